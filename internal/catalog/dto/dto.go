package dto

type ProductFilters struct {
	Category    string
	IsActive    *bool
	SearchQuery string // code or name
	Page        int
	PageSize    int
}
