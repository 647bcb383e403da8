package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
)

// Respond maps a usecase error onto an HTTP response. One mapping for every
// handler so the status taxonomy stays consistent across workflows.
func Respond(c *gin.Context, err error) {
	var insufficient *apperr.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "insufficient stock",
			"variant_id": insufficient.VariantID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrUnknownVariant), errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidQuantity), errors.Is(err, apperr.ErrMissingReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrOrderNotOpen),
		errors.Is(err, apperr.ErrOrderNotConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsStoreUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
