package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesOrderStatus string

const (
	SalesOrderOpen      SalesOrderStatus = "open"
	SalesOrderConfirmed SalesOrderStatus = "confirmed"
	SalesOrderCancelled SalesOrderStatus = "cancelled"
)

// SalesOrder moves open -> confirmed -> cancelled. Confirmed orders cannot
// be reopened or edited; open orders can be discarded without a ledger trace.
type SalesOrder struct {
	BaseModel
	CustomerName *string          `db:"customer_name" json:"customer_name"`
	Status       SalesOrderStatus `db:"status" json:"status"`
	ConfirmedAt  *time.Time       `db:"confirmed_at" json:"confirmed_at"`
	CancelledAt  *time.Time       `db:"cancelled_at" json:"cancelled_at"`
	Items        []SalesOrderItem `db:"-" json:"items"`
}

type SalesOrderItem struct {
	BaseModel
	SalesOrderID string          `db:"sales_order_id" json:"sales_order_id"`
	VariantID    string          `db:"variant_id" json:"variant_id"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"` // price snapshot at order time
	Position     int             `db:"position" json:"position"`
}
