package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

type catalogUseCase struct {
	repo   catalog.Repository
	logger logger.ZapLogger
}

func NewCatalogUseCase(repo catalog.Repository, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *catalogUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	unique, err := uc.repo.IsCodeUnique(ctx, input.Code, "")
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.IsCodeUnique", err)
	}
	if !unique {
		return nil, errors.New("product code already exists")
	}
	if input.MinStockLevel < 0 {
		return nil, apperr.ErrInvalidQuantity
	}

	now := time.Now()
	var category *string
	if input.Category != "" {
		c := input.Category
		category = &c
	}

	p := &model.Product{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Code:          input.Code,
		Name:          input.Name,
		Category:      category,
		MinStockLevel: input.MinStockLevel,
		IsActive:      true,
	}

	if err := uc.repo.CreateProduct(ctx, p); err != nil {
		return nil, apperr.StoreUnavailable("catalog.CreateProduct", err)
	}

	for i := range input.Variants {
		vi := input.Variants[i]
		vi.ProductID = p.ID
		v, err := uc.AddVariant(ctx, &vi)
		if err != nil {
			return nil, fmt.Errorf("failed to add variant %s: %w", vi.SKU, err)
		}
		p.Variants = append(p.Variants, *v)
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("code", p.Code))
	return p, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindProductByID", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	variants, err := uc.repo.FindVariantsByProduct(ctx, id)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantsByProduct", err)
	}
	p.Variants = variants
	return p, nil
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	products, count, err := uc.repo.FindAllProducts(ctx, filters)
	if err != nil {
		return nil, 0, apperr.StoreUnavailable("catalog.FindAllProducts", err)
	}
	return products, count, nil
}

func (uc *catalogUseCase) AddVariant(ctx context.Context, input *dto.CreateVariantInput) (*model.ProductVariant, error) {
	p, err := uc.repo.FindProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindProductByID", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.ProductID, input.SKU, "")
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.IsSKUUnique", err)
	}
	if !unique {
		return nil, errors.New("SKU already exists for product")
	}

	now := time.Now()
	var size, color *string
	if input.Size != "" {
		s := input.Size
		size = &s
	}
	if input.Color != "" {
		c := input.Color
		color = &c
	}

	v := &model.ProductVariant{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID:     input.ProductID,
		SKU:           input.SKU,
		Size:          size,
		Color:         color,
		UnitPrice:     input.UnitPrice,
		MinStockLevel: input.MinStockLevel,
		IsActive:      true,
	}

	if err := uc.repo.CreateVariant(ctx, v); err != nil {
		return nil, apperr.StoreUnavailable("catalog.CreateVariant", err)
	}
	return v, nil
}

func (uc *catalogUseCase) GetVariant(ctx context.Context, id string) (*model.ProductVariant, error) {
	v, err := uc.repo.FindVariantByID(ctx, id)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return nil, apperr.ErrUnknownVariant
	}
	return v, nil
}

func (uc *catalogUseCase) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	variants, err := uc.repo.FindVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantsByProduct", err)
	}
	return variants, nil
}

// ResolveVariant maps an order-entry selection (product code + size/color)
// to a concrete variant.
func (uc *catalogUseCase) ResolveVariant(ctx context.Context, productCode string, size, color *string) (*model.ProductVariant, error) {
	p, err := uc.repo.FindProductByCode(ctx, productCode)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindProductByCode", err)
	}
	if p == nil {
		return nil, apperr.ErrUnknownVariant
	}
	v, err := uc.repo.FindVariantByAttrs(ctx, p.ID, size, color)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantByAttrs", err)
	}
	if v == nil {
		return nil, apperr.ErrUnknownVariant
	}
	return v, nil
}

func (uc *catalogUseCase) UpdateProductThreshold(ctx context.Context, productID string, level int64) (*model.Product, error) {
	if level < 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	p, err := uc.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindProductByID", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	p.MinStockLevel = level
	p.UpdatedAt = time.Now()
	if err := uc.repo.UpdateProduct(ctx, p); err != nil {
		return nil, apperr.StoreUnavailable("catalog.UpdateProduct", err)
	}
	return p, nil
}

func (uc *catalogUseCase) UpdateVariantThreshold(ctx context.Context, variantID string, level *int64) (*model.ProductVariant, error) {
	if level != nil && *level < 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	v, err := uc.repo.FindVariantByID(ctx, variantID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return nil, apperr.ErrUnknownVariant
	}
	v.MinStockLevel = level
	v.UpdatedAt = time.Now()
	if err := uc.repo.UpdateVariant(ctx, v); err != nil {
		return nil, apperr.StoreUnavailable("catalog.UpdateVariant", err)
	}
	return v, nil
}

// DeactivateVariant retires a variant without deleting it. Ledger history
// stays attached to the variant id.
func (uc *catalogUseCase) DeactivateVariant(ctx context.Context, variantID string) (*model.ProductVariant, error) {
	v, err := uc.repo.FindVariantByID(ctx, variantID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return nil, apperr.ErrUnknownVariant
	}
	if !v.IsActive {
		return v, nil
	}
	v.IsActive = false
	v.UpdatedAt = time.Now()
	if err := uc.repo.UpdateVariant(ctx, v); err != nil {
		return nil, apperr.StoreUnavailable("catalog.UpdateVariant", err)
	}
	uc.logger.Info("variant deactivated", zap.String("variant_id", variantID))
	return v, nil
}

func (uc *catalogUseCase) EffectiveThreshold(ctx context.Context, variantID string) (int64, error) {
	v, err := uc.repo.FindVariantByID(ctx, variantID)
	if err != nil {
		return 0, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return 0, apperr.ErrUnknownVariant
	}
	p, err := uc.repo.FindProductByID(ctx, v.ProductID)
	if err != nil {
		return 0, apperr.StoreUnavailable("catalog.FindProductByID", err)
	}
	return model.EffectiveThreshold(p, v), nil
}
