package sales

import (
	"context"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

type UseCase interface {
	OpenOrder(ctx context.Context, input *dto.OpenOrderInput) (*model.SalesOrder, error)
	AddLineItem(ctx context.Context, input *dto.AddLineItemInput) (*model.SalesOrderItem, error)

	// Confirm consumes stock for every line in one all-or-nothing ledger
	// transaction. If any line lacks stock, nothing is consumed and the
	// order stays open.
	Confirm(ctx context.Context, orderID string) (*model.SalesOrder, error)

	// Cancel reverses a confirmed order with compensating adjustments.
	// The original consumption events stay in the ledger.
	Cancel(ctx context.Context, orderID string) (*model.SalesOrder, error)

	// Discard removes an open order that never touched the ledger.
	Discard(ctx context.Context, orderID string) error

	GetOrder(ctx context.Context, id string) (*model.SalesOrder, error)
	ListOrders(ctx context.Context, filters *dto.SalesOrderFilters) ([]model.SalesOrder, int, error)
}
