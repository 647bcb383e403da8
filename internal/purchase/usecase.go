package purchase

import (
	"context"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

type UseCase interface {
	CreatePurchaseOrder(ctx context.Context, input *dto.CreatePurchaseOrderInput) (*model.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error)

	// ReceiveBatch confirms one delivered batch against a purchase item and
	// emits the matching receipt into the ledger. Partial batches accumulate
	// on the item's received counter.
	ReceiveBatch(ctx context.Context, input *dto.ReceiveBatchInput) (*model.StockEvent, error)

	MarkReimbursed(ctx context.Context, purchaseOrderID string, reimbursedDate time.Time) (*model.ReimbursementRecord, error)
	ReimbursementHistory(ctx context.Context, purchaseOrderID string) ([]model.ReimbursementRecord, error)
}
