package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ListOptions carries the paging and sorting knobs shared by list endpoints.
type ListOptions struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize applies defaults and bounds.
func (o *ListOptions) Normalize(defaultSize int) {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultSize
	}
	if o.PageSize > 200 {
		o.PageSize = 200
	}
}

// Offset returns the row offset for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}
