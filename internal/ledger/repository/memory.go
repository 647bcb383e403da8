package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

// MemoryRepository is an in-process append-only event store. Used by tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	events []model.StockEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) AppendEvent(ctx context.Context, e *model.StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *MemoryRepository) AppendEvents(ctx context.Context, events []*model.StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events = append(r.events, *e)
	}
	return nil
}

func (r *MemoryRepository) SumByVariant(ctx context.Context, variantID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, e := range r.events {
		if e.VariantID == variantID {
			sum += e.Quantity
		}
	}
	return sum, nil
}

func (r *MemoryRepository) SumByVariantAsOf(ctx context.Context, variantID string, at time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, e := range r.events {
		if e.VariantID == variantID && !e.OccurredAt.After(at) {
			sum += e.Quantity
		}
	}
	return sum, nil
}

func (r *MemoryRepository) SumAllVariants(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := map[string]int64{}
	for _, e := range r.events {
		sums[e.VariantID] += e.Quantity
	}
	return sums, nil
}

func (r *MemoryRepository) ListEvents(ctx context.Context, f *dto.EventFilters) ([]model.StockEvent, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.StockEvent
	for _, e := range r.events {
		if f.VariantID != "" && e.VariantID != f.VariantID {
			continue
		}
		if f.Kind != "" && string(e.Kind) != f.Kind {
			continue
		}
		if f.RefType != "" && (e.RefType == nil || *e.RefType != f.RefType) {
			continue
		}
		if f.RefID != "" && (e.RefID == nil || *e.RefID != f.RefID) {
			continue
		}
		if f.StartDate != nil && e.OccurredAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && e.OccurredAt.After(*f.EndDate) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

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
