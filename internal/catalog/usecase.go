package catalog

import (
	"context"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	AddVariant(ctx context.Context, input *dto.CreateVariantInput) (*model.ProductVariant, error)
	GetVariant(ctx context.Context, id string) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
	ResolveVariant(ctx context.Context, productCode string, size, color *string) (*model.ProductVariant, error)

	UpdateProductThreshold(ctx context.Context, productID string, level int64) (*model.Product, error)
	UpdateVariantThreshold(ctx context.Context, variantID string, level *int64) (*model.ProductVariant, error)
	DeactivateVariant(ctx context.Context, variantID string) (*model.ProductVariant, error)
	EffectiveThreshold(ctx context.Context, variantID string) (int64, error)
}
