package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/httperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

type SalesHandler struct {
	usecase sales.UseCase
	logger  logger.ZapLogger
}

func NewSalesHandler(uc sales.UseCase, log logger.ZapLogger) *SalesHandler {
	return &SalesHandler{usecase: uc, logger: log}
}

func (h *SalesHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/sales-orders")
	{
		orders.POST("", h.OpenOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/items", h.AddLineItem)
		orders.POST("/:id/confirm", h.Confirm)
		orders.POST("/:id/cancel", h.Cancel)
		orders.DELETE("/:id", h.Discard)
	}
}

type openOrderRequest struct {
	CustomerName string `json:"customer_name"`
}

func (h *SalesHandler) OpenOrder(c *gin.Context) {
	var req openOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	so, err := h.usecase.OpenOrder(c.Request.Context(), &dto.OpenOrderInput{CustomerName: req.CustomerName})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, so)
}

type addLineItemRequest struct {
	VariantID string           `json:"variant_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

func (h *SalesHandler) AddLineItem(c *gin.Context) {
	var req addLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.usecase.AddLineItem(c.Request.Context(), &dto.AddLineItemInput{
		OrderID:   c.Param("id"),
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *SalesHandler) Confirm(c *gin.Context) {
	so, err := h.usecase.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("Sales order confirmation failed", zap.String("sales_order_id", c.Param("id")), zap.Error(err))
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (h *SalesHandler) Cancel(c *gin.Context) {
	so, err := h.usecase.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (h *SalesHandler) Discard(c *gin.Context) {
	if err := h.usecase.Discard(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SalesHandler) GetOrder(c *gin.Context) {
	so, err := h.usecase.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, so)
}

func (h *SalesHandler) ListOrders(c *gin.Context) {
	filters := &dto.SalesOrderFilters{
		Status:   c.Query("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	orders, count, err := h.usecase.ListOrders(c.Request.Context(), filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": count})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
