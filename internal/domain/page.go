package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is a 1-based pagination window.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Window slices items (already filtered) to the page, for stores without native paging.
func Window[T any](items []T, p Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
