package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type LowStockRow struct {
	VariantID   string  `json:"variant_id"`
	SKU         string  `json:"sku"`
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Size        *string `json:"size"`
	Color       *string `json:"color"`
	OnHand      int64   `json:"on_hand"`
	Threshold   int64   `json:"threshold"`
	ReorderQty  int64   `json:"reorder_qty"`
}

type PendingReimbursementRow struct {
	PurchaseOrderID string    `json:"purchase_order_id"`
	SupplierName    string    `json:"supplier_name"`
	PayerName       string    `json:"payer_name"`
	OrderDate       time.Time `json:"order_date"`
}

type PayerTotal struct {
	PayerName string          `json:"payer_name"`
	Orders    int             `json:"orders"`
	Total     decimal.Decimal `json:"total"`
}

type MovementHistoryFilters struct {
	VariantID string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
