package dto

import "github.com/shopspring/decimal"

type SalesOrderFilters struct {
	Status   string
	Page     int
	PageSize int
}

type OpenOrderInput struct {
	CustomerName string
}

type AddLineItemInput struct {
	OrderID   string
	VariantID string
	Quantity  int64
	// UnitPrice overrides the variant's current price when set; either way
	// the value stored on the line is an immutable snapshot.
	UnitPrice *decimal.Decimal
}
