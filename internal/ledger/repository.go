package ledger

import (
	"context"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

// Repository is the append-only event store for the ledger. There is no
// update or delete: corrections are new adjustment events.
type Repository interface {
	AppendEvent(ctx context.Context, e *model.StockEvent) error
	// AppendEvents writes a batch in one transaction. Used by multi-line
	// sales confirmation so no partial consumption is ever committed.
	AppendEvents(ctx context.Context, events []*model.StockEvent) error

	SumByVariant(ctx context.Context, variantID string) (int64, error)
	SumByVariantAsOf(ctx context.Context, variantID string, at time.Time) (int64, error)
	SumAllVariants(ctx context.Context) (map[string]int64, error)

	ListEvents(ctx context.Context, filters *dto.EventFilters) ([]model.StockEvent, int, error)
}

// Publisher pushes successfully appended events onto the movement feed.
// Publishing is best-effort; a feed outage never fails a write.
type Publisher interface {
	PublishMovement(ctx context.Context, e *model.StockEvent)
}
