package shared

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// NewPagination normalises paging input and computes neighbour pages.
// hasNext is determined by the caller fetching one row past the page.
func NewPagination(page, pageSize int, hasNext bool) Pagination {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page <= 0 {
		page = 1
	}
	p := Pagination{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		p.PrevPage = page - 1
	}
	if hasNext {
		p.NextPage = page + 1
	}
	return p
}
