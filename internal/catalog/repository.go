package catalog

import (
	"context"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

type Repository interface {
	// Products
	CreateProduct(ctx context.Context, p *model.Product) error
	FindProductByID(ctx context.Context, id string) (*model.Product, error)
	FindProductByCode(ctx context.Context, code string) (*model.Product, error)
	FindAllProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	IsCodeUnique(ctx context.Context, code, excludeID string) (bool, error)

	// Variants
	CreateVariant(ctx context.Context, v *model.ProductVariant) error
	FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error)
	FindVariantsByProduct(ctx context.Context, productID string) ([]model.ProductVariant, error)
	FindVariantByAttrs(ctx context.Context, productID string, size, color *string) (*model.ProductVariant, error)
	UpdateVariant(ctx context.Context, v *model.ProductVariant) error
	IsSKUUnique(ctx context.Context, productID, sku, excludeID string) (bool, error)
}
