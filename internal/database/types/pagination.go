package types

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int
}

// Pages returns the number of pages needed to hold every item.
func (p *Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p.Page < p.Pages()
}

// HasPrev reports whether an earlier page exists.
func (p *Page[T]) HasPrev() bool {
	return p.Page > 1
}
