package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Code          string
	Name          string
	Category      string
	MinStockLevel int64
	Variants      []CreateVariantInput
}

type CreateVariantInput struct {
	ProductID     string
	SKU           string
	Size          string
	Color         string
	UnitPrice     decimal.Decimal
	MinStockLevel *int64
}
