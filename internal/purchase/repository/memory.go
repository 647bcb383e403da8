package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

// MemoryRepository keeps purchase orders in process memory. Used by tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[string]model.PurchaseOrder
	items   map[string]model.PurchaseItem
	records []model.ReimbursementRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]model.PurchaseOrder),
		items:  make(map[string]model.PurchaseItem),
	}
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, po *model.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *po
	stored.Items = nil
	r.orders[po.ID] = stored
	for _, item := range po.Items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *MemoryRepository) FindOrderByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	po, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	for _, item := range r.items {
		if item.PurchaseOrderID == id {
			po.Items = append(po.Items, item)
		}
	}
	sort.Slice(po.Items, func(i, j int) bool { return po.Items[i].CreatedAt.Before(po.Items[j].CreatedAt) })
	return &po, nil
}

func (r *MemoryRepository) FindAllOrders(ctx context.Context, f *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.PurchaseOrder
	for _, po := range r.orders {
		if f.PayerName != "" && (po.PayerName == nil || *po.PayerName != f.PayerName) {
			continue
		}
		if f.PendingOnly && (po.PayerName == nil || po.IsReimbursed) {
			continue
		}
		out = append(out, po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })

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

func (r *MemoryRepository) FindItemByID(ctx context.Context, itemID string) (*model.PurchaseItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if item, ok := r.items[itemID]; ok {
		return &item, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateItemReceived(ctx context.Context, itemID string, qtyReceived int64, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil
	}
	item.QtyReceived = qtyReceived
	item.UpdatedAt = updatedAt
	r.items[itemID] = item
	return nil
}

func (r *MemoryRepository) MarkReimbursed(ctx context.Context, po *model.PurchaseOrder, record *model.ReimbursementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *po
	stored.Items = nil
	r.orders[po.ID] = stored
	r.records = append(r.records, *record)
	return nil
}

func (r *MemoryRepository) AppendReimbursementRecord(ctx context.Context, record *model.ReimbursementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *MemoryRepository) ListReimbursementRecords(ctx context.Context, purchaseOrderID string) ([]model.ReimbursementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ReimbursementRecord
	for _, rec := range r.records {
		if rec.PurchaseOrderID == purchaseOrderID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
