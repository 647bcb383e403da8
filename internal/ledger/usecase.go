package ledger

import (
	"context"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

type UseCase interface {
	RecordReceipt(ctx context.Context, input *dto.RecordReceiptInput) (*model.StockEvent, error)
	RecordConsumption(ctx context.Context, input *dto.RecordConsumptionInput) (*model.StockEvent, error)
	ConsumeBatch(ctx context.Context, input *dto.ConsumeBatchInput) ([]model.StockEvent, error)
	RecordAdjustment(ctx context.Context, input *dto.RecordAdjustmentInput) (*model.StockEvent, error)

	OnHand(ctx context.Context, variantID string) (int64, error)
	OnHandAsOf(ctx context.Context, variantID string, at time.Time) (int64, error)
	IsLowStock(ctx context.Context, variantID string) (bool, error)
	ListEvents(ctx context.Context, filters *dto.EventFilters) ([]model.StockEvent, int, error)
}
