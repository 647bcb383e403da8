package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrderFilters struct {
	PayerName   string
	PendingOnly bool // payer set, not yet reimbursed
	Page        int
	PageSize    int
}

type CreatePurchaseItemInput struct {
	VariantID  string
	QtyOrdered int64
	UnitCost   decimal.Decimal
}

type CreatePurchaseOrderInput struct {
	SupplierName string
	PayerName    string // empty means paid by the business, no reimbursement
	OrderDate    *time.Time
	Items        []CreatePurchaseItemInput
}

type ReceiveBatchInput struct {
	PurchaseOrderID string
	ItemID          string
	Quantity        int64
	// AllowOverReceipt permits received > ordered for this batch. Without
	// it over-receipt is rejected.
	AllowOverReceipt bool
}
