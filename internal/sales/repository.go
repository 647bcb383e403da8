package sales

import (
	"context"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

type Repository interface {
	CreateOrder(ctx context.Context, so *model.SalesOrder) error
	FindOrderByID(ctx context.Context, id string) (*model.SalesOrder, error)
	FindAllOrders(ctx context.Context, filters *dto.SalesOrderFilters) ([]model.SalesOrder, int, error)
	AddItem(ctx context.Context, item *model.SalesOrderItem) error
	UpdateOrderStatus(ctx context.Context, so *model.SalesOrder) error
	// DeleteOrder discards an open order and its lines. Confirmed orders
	// are never deleted; they carry ledger history.
	DeleteOrder(ctx context.Context, id string) error
}
