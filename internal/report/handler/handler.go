package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/httperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report/dto"
)

type ReportHandler struct {
	usecase report.UseCase
	logger  logger.ZapLogger
}

func NewReportHandler(uc report.UseCase, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{usecase: uc, logger: log}
}

func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/low-stock", h.LowStock)
		reports.GET("/pending-reimbursements", h.PendingReimbursements)
		reports.GET("/pending-reimbursements/totals", h.PendingReimbursementTotals)
		reports.GET("/stock-as-of", h.StockAsOf)
		reports.GET("/movements", h.Movements)
	}
}

func (h *ReportHandler) LowStock(c *gin.Context) {
	rows, err := h.usecase.LowStockReport(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *ReportHandler) PendingReimbursements(c *gin.Context) {
	rows, err := h.usecase.PendingReimbursements(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *ReportHandler) PendingReimbursementTotals(c *gin.Context) {
	totals, err := h.usecase.PendingReimbursementTotals(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (h *ReportHandler) StockAsOf(c *gin.Context) {
	variantID := c.Query("variant_id")
	if variantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variant_id is required"})
		return
	}
	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC 3339"})
		return
	}

	onHand, err := h.usecase.StockAsOf(c.Request.Context(), variantID, at)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant_id": variantID, "at": at, "on_hand": onHand})
}

func (h *ReportHandler) Movements(c *gin.Context) {
	variantID := c.Query("variant_id")
	if variantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variant_id is required"})
		return
	}

	filters := &dto.MovementHistoryFilters{
		VariantID: variantID,
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

	events, count, err := h.usecase.VariantMovementHistory(c.Request.Context(), filters)
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
