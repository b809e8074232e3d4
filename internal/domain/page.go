package domain

// Page selects a window of a listing. Page is 1-indexed.
type Page struct {
	Page  int
	Limit int
}

// Listing limits.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NewPage builds a Page from optional query values. Missing or non-positive
// values fall back to page 1 and DefaultPageLimit; the limit is capped at
// MaxPageLimit.
func NewPage(page, limit *int) Page {
	p := Page{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Bounds returns the half-open index range [lo, hi) of this page within a
// listing of n items. Pages past the end yield an empty range.
func (p Page) Bounds(n int) (lo, hi int) {
	lo = min((p.Page-1)*p.Limit, n)
	hi = min(lo+p.Limit, n)
	return lo, hi
}

// Paginate returns the items of p within items.
func Paginate[T any](items []T, p Page) []T {
	lo, hi := p.Bounds(len(items))
	return items[lo:hi]
}
