package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/httperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

type PurchaseHandler struct {
	usecase purchase.UseCase
	logger  logger.ZapLogger
}

func NewPurchaseHandler(uc purchase.UseCase, log logger.ZapLogger) *PurchaseHandler {
	return &PurchaseHandler{usecase: uc, logger: log}
}

func (h *PurchaseHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/purchase-orders")
	{
		orders.POST("", h.CreatePurchaseOrder)
		orders.GET("", h.ListPurchaseOrders)
		orders.GET("/:id", h.GetPurchaseOrder)
		orders.POST("/:id/items/:itemId/receive", h.ReceiveBatch)
		orders.POST("/:id/reimburse", h.MarkReimbursed)
		orders.GET("/:id/reimbursements", h.ReimbursementHistory)
	}
}

type createPurchaseItemRequest struct {
	VariantID  string          `json:"variant_id" binding:"required"`
	QtyOrdered int64           `json:"qty_ordered" binding:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

type createPurchaseOrderRequest struct {
	SupplierName string                      `json:"supplier_name" binding:"required"`
	PayerName    string                      `json:"payer_name"`
	OrderDate    *time.Time                  `json:"order_date"`
	Items        []createPurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *PurchaseHandler) CreatePurchaseOrder(c *gin.Context) {
	var req createPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &dto.CreatePurchaseOrderInput{
		SupplierName: req.SupplierName,
		PayerName:    req.PayerName,
		OrderDate:    req.OrderDate,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, dto.CreatePurchaseItemInput{
			VariantID:  item.VariantID,
			QtyOrdered: item.QtyOrdered,
			UnitCost:   item.UnitCost,
		})
	}

	po, err := h.usecase.CreatePurchaseOrder(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create purchase order", zap.String("supplier", req.SupplierName), zap.Error(err))
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *PurchaseHandler) GetPurchaseOrder(c *gin.Context) {
	po, err := h.usecase.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *PurchaseHandler) ListPurchaseOrders(c *gin.Context) {
	filters := &dto.PurchaseOrderFilters{
		PayerName:   c.Query("payer_name"),
		PendingOnly: c.Query("pending_only") == "true",
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}

	orders, count, err := h.usecase.ListPurchaseOrders(c.Request.Context(), filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": count})
}

type receiveBatchRequest struct {
	Quantity         int64 `json:"quantity" binding:"required,gt=0"`
	AllowOverReceipt bool  `json:"allow_over_receipt"`
}

func (h *PurchaseHandler) ReceiveBatch(c *gin.Context) {
	var req receiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.usecase.ReceiveBatch(c.Request.Context(), &dto.ReceiveBatchInput{
		PurchaseOrderID:  c.Param("id"),
		ItemID:           c.Param("itemId"),
		Quantity:         req.Quantity,
		AllowOverReceipt: req.AllowOverReceipt,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

type markReimbursedRequest struct {
	ReimbursedDate *time.Time `json:"reimbursed_date"`
}

func (h *PurchaseHandler) MarkReimbursed(c *gin.Context) {
	var req markReimbursedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := time.Now()
	if req.ReimbursedDate != nil {
		date = *req.ReimbursedDate
	}

	record, err := h.usecase.MarkReimbursed(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *PurchaseHandler) ReimbursementHistory(c *gin.Context) {
	records, err := h.usecase.ReimbursementHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
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
