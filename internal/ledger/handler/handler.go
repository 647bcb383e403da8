package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/httperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

type LedgerHandler struct {
	usecase ledger.UseCase
	logger  logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{usecase: uc, logger: log}
}

func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	stock := r.Group("/stock")
	{
		stock.POST("/receipts", h.RecordReceipt)
		stock.POST("/consumptions", h.RecordConsumption)
		stock.POST("/adjustments", h.RecordAdjustment)
		stock.GET("/events", h.ListEvents)
		stock.GET("/:variantId", h.OnHand)
		stock.GET("/:variantId/events", h.ListVariantEvents)
	}
}

type recordReceiptRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	RefType   string `json:"ref_type"`
	RefID     string `json:"ref_id"`
	Reason    string `json:"reason"`
}

func (h *LedgerHandler) RecordReceipt(c *gin.Context) {
	var req recordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.usecase.RecordReceipt(c.Request.Context(), &dto.RecordReceiptInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		RefType:   req.RefType,
		RefID:     req.RefID,
		Reason:    req.Reason,
	})
	if err != nil {
		h.logger.Error("Failed to record receipt", zap.String("variant_id", req.VariantID), zap.Error(err))
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *LedgerHandler) RecordConsumption(c *gin.Context) {
	var req recordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.usecase.RecordConsumption(c.Request.Context(), &dto.RecordConsumptionInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		RefType:   req.RefType,
		RefID:     req.RefID,
		Reason:    req.Reason,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

type recordAdjustmentRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	RefType   string `json:"ref_type"`
	RefID     string `json:"ref_id"`
}

func (h *LedgerHandler) RecordAdjustment(c *gin.Context) {
	var req recordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.usecase.RecordAdjustment(c.Request.Context(), &dto.RecordAdjustmentInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		RefType:   req.RefType,
		RefID:     req.RefID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// OnHand reports the current on-hand level, or the level as of a point in
// time when the `at` query parameter (RFC 3339) is given.
func (h *LedgerHandler) OnHand(c *gin.Context) {
	variantID := c.Param("variantId")

	var (
		onHand int64
		err    error
	)
	if raw := c.Query("at"); raw != "" {
		at, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC 3339"})
			return
		}
		onHand, err = h.usecase.OnHandAsOf(c.Request.Context(), variantID, at)
	} else {
		onHand, err = h.usecase.OnHand(c.Request.Context(), variantID)
	}
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	low, err := h.usecase.IsLowStock(c.Request.Context(), variantID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variant_id": variantID,
		"on_hand":    onHand,
		"low_stock":  low,
	})
}

func (h *LedgerHandler) ListEvents(c *gin.Context) {
	h.listEvents(c, c.Query("variant_id"))
}

func (h *LedgerHandler) ListVariantEvents(c *gin.Context) {
	h.listEvents(c, c.Param("variantId"))
}

func (h *LedgerHandler) listEvents(c *gin.Context, variantID string) {
	filters := &dto.EventFilters{
		VariantID: variantID,
		Kind:      c.Query("kind"),
		RefType:   c.Query("ref_type"),
		RefID:     c.Query("ref_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 50),
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be RFC 3339"})
			return
		}
		filters.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be RFC 3339"})
			return
		}
		filters.EndDate = &t
	}

	events, count, err := h.usecase.ListEvents(c.Request.Context(), filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events, "total": count})
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
