package dto

type RecordReceiptInput struct {
	VariantID string
	Quantity  int64
	RefType   string
	RefID     string
	Reason    string
}

type RecordConsumptionInput struct {
	VariantID string
	Quantity  int64 // positive; recorded as a negative ledger quantity
	RefType   string
	RefID     string
	Reason    string
}

type RecordAdjustmentInput struct {
	VariantID string
	Quantity  int64 // signed
	Reason    string
	RefType   string
	RefID     string
}

type ConsumeLine struct {
	VariantID string
	Quantity  int64
}

// ConsumeBatchInput is an all-or-nothing multi-line consumption. Either
// every line is appended or none is.
type ConsumeBatchInput struct {
	Lines   []ConsumeLine
	RefType string
	RefID   string
	Reason  string
}
