package dto

import "time"

type EventFilters struct {
	VariantID string
	Kind      string
	RefType   string
	RefID     string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
