package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReimbursementState string

const (
	// ReimbursementNone marks orders paid directly by the business; no
	// settlement is expected.
	ReimbursementNone ReimbursementState = "none"
	// ReimbursementPending marks orders advanced by a payer who has not
	// been paid back yet.
	ReimbursementPending ReimbursementState = "pending"
	// ReimbursementReimbursed is terminal; there is no reversal path.
	ReimbursementReimbursed ReimbursementState = "reimbursed"
)

type PurchaseOrder struct {
	BaseModel
	SupplierName string     `db:"supplier_name" json:"supplier_name"`
	PayerName    *string    `db:"payer_name" json:"payer_name"`
	OrderDate    time.Time  `db:"order_date" json:"order_date"`
	// is_reimbursed + reimbursed_date are the wire encoding of the
	// two-state reimbursement machine; the append-only transition log in
	// reimbursement_records is authoritative.
	IsReimbursed   bool           `db:"is_reimbursed" json:"is_reimbursed"`
	ReimbursedDate *time.Time     `db:"reimbursed_date" json:"reimbursed_date"`
	Items          []PurchaseItem `db:"-" json:"items"`
}

// ReimbursementState derives the current state from the wire columns.
func (po *PurchaseOrder) ReimbursementState() ReimbursementState {
	if po.PayerName == nil || *po.PayerName == "" {
		return ReimbursementNone
	}
	if po.IsReimbursed {
		return ReimbursementReimbursed
	}
	return ReimbursementPending
}

type PurchaseItem struct {
	BaseModel
	PurchaseOrderID string          `db:"purchase_order_id" json:"purchase_order_id"`
	VariantID       string          `db:"variant_id" json:"variant_id"`
	QtyOrdered      int64           `db:"qty_ordered" json:"qty_ordered"`
	QtyReceived     int64           `db:"qty_received" json:"qty_received"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
}

// ReimbursementRecord is one row of the append-only transition log. The
// latest row for a purchase order is its current state.
type ReimbursementRecord struct {
	ID              string             `db:"id" json:"id"`
	PurchaseOrderID string             `db:"purchase_order_id" json:"purchase_order_id"`
	PayerName       string             `db:"payer_name" json:"payer_name"`
	State           ReimbursementState `db:"state" json:"state"`
	ReimbursedDate  *time.Time         `db:"reimbursed_date" json:"reimbursed_date"`
	RecordedAt      time.Time          `db:"recorded_at" json:"recorded_at"`
}
