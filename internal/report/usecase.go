package report

import (
	"context"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report/dto"
)

// UseCase is the read-only reconciliation surface consumed by external
// reporting and debug tooling. It never writes.
type UseCase interface {
	LowStockReport(ctx context.Context) ([]dto.LowStockRow, error)
	PendingReimbursements(ctx context.Context) ([]dto.PendingReimbursementRow, error)
	PendingReimbursementTotals(ctx context.Context) ([]dto.PayerTotal, error)
	StockAsOf(ctx context.Context, variantID string, at time.Time) (int64, error)
	VariantMovementHistory(ctx context.Context, filters *dto.MovementHistoryFilters) ([]model.StockEvent, int, error)
}
