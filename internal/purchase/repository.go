package purchase

import (
	"context"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

type Repository interface {
	CreateOrder(ctx context.Context, po *model.PurchaseOrder) error
	FindOrderByID(ctx context.Context, id string) (*model.PurchaseOrder, error)
	FindAllOrders(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error)

	FindItemByID(ctx context.Context, itemID string) (*model.PurchaseItem, error)
	UpdateItemReceived(ctx context.Context, itemID string, qtyReceived int64, updatedAt time.Time) error

	// MarkReimbursed updates the order's wire columns and appends the
	// transition record in one transaction.
	MarkReimbursed(ctx context.Context, po *model.PurchaseOrder, record *model.ReimbursementRecord) error
	AppendReimbursementRecord(ctx context.Context, record *model.ReimbursementRecord) error
	ListReimbursementRecords(ctx context.Context, purchaseOrderID string) ([]model.ReimbursementRecord, error)
}
