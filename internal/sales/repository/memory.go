package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

// MemoryRepository keeps sales orders in process memory. Used by tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]model.SalesOrder
	items  map[string][]model.SalesOrderItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]model.SalesOrder),
		items:  make(map[string][]model.SalesOrderItem),
	}
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, so *model.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *so
	stored.Items = nil
	r.orders[so.ID] = stored
	return nil
}

func (r *MemoryRepository) FindOrderByID(ctx context.Context, id string) (*model.SalesOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	so, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	items := append([]model.SalesOrderItem(nil), r.items[id]...)
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	so.Items = items
	return &so, nil
}

func (r *MemoryRepository) FindAllOrders(ctx context.Context, f *dto.SalesOrderFilters) ([]model.SalesOrder, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.SalesOrder
	for _, so := range r.orders {
		if f.Status != "" && string(so.Status) != f.Status {
			continue
		}
		out = append(out, so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	count := len(out)
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > len(out) {
			start = len(out)
		}
		end := start + f.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, count, nil
}

func (r *MemoryRepository) AddItem(ctx context.Context, item *model.SalesOrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.SalesOrderID] = append(r.items[item.SalesOrderID], *item)
	return nil
}

func (r *MemoryRepository) UpdateOrderStatus(ctx context.Context, so *model.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *so
	stored.Items = nil
	r.orders[so.ID] = stored
	return nil
}

func (r *MemoryRepository) DeleteOrder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	delete(r.items, id)
	return nil
}
