package model

import "time"

type StockEventKind string

const (
	StockEventReceipt     StockEventKind = "receipt"
	StockEventConsumption StockEventKind = "consumption"
	StockEventAdjustment  StockEventKind = "adjustment"
)

// Reference types tie a ledger event back to its source document.
const (
	StockRefPurchaseOrder = "purchase_order"
	StockRefSalesOrder    = "sales_order"
	StockRefManual        = "manual"
)

// StockEvent is an immutable ledger fact. Rows are append-only: corrections
// are new adjustment events, never updates or deletes, so the full causal
// history of a variant's stock is always reconstructible.
type StockEvent struct {
	ID         string         `db:"id" json:"id"`
	VariantID  string         `db:"variant_id" json:"variant_id"`
	Kind       StockEventKind `db:"kind" json:"kind"`
	Quantity   int64          `db:"quantity" json:"quantity"` // signed: receipts > 0, consumptions < 0
	Reason     string         `db:"reason" json:"reason"`
	RefType    *string        `db:"ref_type" json:"ref_type"`
	RefID      *string        `db:"ref_id" json:"ref_id"`
	OccurredAt time.Time      `db:"occurred_at" json:"occurred_at"`
}
