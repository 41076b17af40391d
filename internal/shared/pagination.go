package shared

// PageWindowRadius is how many page buttons are shown on each side of the current page.
const PageWindowRadius = 2

// PageLink is one element of a pagination control.
type PageLink struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// Pagination describes the control rendered under a list.
type Pagination struct {
	Page       int
	TotalPages int
	Prev       int
	Next       int
	HasPrev    bool
	HasNext    bool
	Links      []PageLink
}

// Visible reports whether the control should be rendered at all.
func (p Pagination) Visible() bool {
	return p.TotalPages > 1
}

// NewPagination builds the page window current±2 with first/last shortcuts
// and ellipses where the window does not reach the boundary.
func NewPagination(current, total int) Pagination {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	p := Pagination{
		Page:       current,
		TotalPages: total,
		Prev:       current - 1,
		Next:       current + 1,
		HasPrev:    current > 1,
		HasNext:    current < total,
	}
	if total <= 1 {
		return p
	}

	start := max(1, current-PageWindowRadius)
	end := min(total, current+PageWindowRadius)

	if start > 1 {
		p.Links = append(p.Links, PageLink{Page: 1})
		if start > 2 {
			p.Links = append(p.Links, PageLink{Ellipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Links = append(p.Links, PageLink{Page: i, Current: i == current})
	}
	if end < total {
		if end < total-1 {
			p.Links = append(p.Links, PageLink{Ellipsis: true})
		}
		p.Links = append(p.Links, PageLink{Page: total})
	}
	return p
}
