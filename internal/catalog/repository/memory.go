package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

// MemoryRepository keeps the catalog in process memory. Used by tests and
// available as a store for dev mode without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]model.Product
	variants map[string]model.ProductVariant
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]model.Product),
		variants: make(map[string]model.ProductVariant),
	}
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) FindProductByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *MemoryRepository) FindProductByCode(ctx context.Context, code string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Code == code {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) FindAllProducts(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Product
	for _, p := range r.products {
		if f.Category != "" && (p.Category == nil || *p.Category != f.Category) {
			continue
		}
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		if f.SearchQuery != "" {
			q := strings.ToLower(f.SearchQuery)
			if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Code), q) {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

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

func (r *MemoryRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) IsCodeUnique(ctx context.Context, code, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Code == code && p.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

func (r *MemoryRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = *v
	return nil
}

func (r *MemoryRepository) FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.variants[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (r *MemoryRepository) FindVariantsByProduct(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ProductVariant
	for _, v := range r.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func strEq(a *string, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func (r *MemoryRepository) FindVariantByAttrs(ctx context.Context, productID string, size, color *string) (*model.ProductVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.variants {
		if v.ProductID == productID && strEq(v.Size, size) && strEq(v.Color, color) {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = *v
	return nil
}

func (r *MemoryRepository) IsSKUUnique(ctx context.Context, productID, sku, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.variants {
		if v.ProductID == productID && v.SKU == sku && v.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}
