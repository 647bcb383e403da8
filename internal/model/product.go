package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Code          string           `db:"code" json:"code"`
	Name          string           `db:"name" json:"name"`
	Category      *string          `db:"category" json:"category"`
	MinStockLevel int64            `db:"min_stock_level" json:"min_stock_level"`
	IsActive      bool             `db:"is_active" json:"is_active"`
	Variants      []ProductVariant `db:"-" json:"variants"` // Joined data, not a column
}

// ProductVariant is one purchasable configuration of a product. Identity for
// order entry is (product, size, color); SKU is unique per product.
// Variants referenced by ledger events are never deleted, only deactivated.
type ProductVariant struct {
	BaseModel
	ProductID     string          `db:"product_id" json:"product_id"`
	SKU           string          `db:"sku" json:"sku"`
	Size          *string         `db:"size" json:"size"`
	Color         *string         `db:"color" json:"color"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	MinStockLevel *int64          `db:"min_stock_level" json:"min_stock_level"` // Nullable override of product default
	IsActive      bool            `db:"is_active" json:"is_active"`
}

// EffectiveThreshold resolves the low-stock threshold for a variant: the
// variant override when set, else the product default.
func EffectiveThreshold(p *Product, v *ProductVariant) int64 {
	if v != nil && v.MinStockLevel != nil {
		return *v.MinStockLevel
	}
	if p != nil {
		return p.MinStockLevel
	}
	return 0
}
