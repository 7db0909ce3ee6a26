package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit into their allowed ranges: page >= 1,
// limit within [1, MaxLimit], defaulting to DefaultLimit.
func (p Params) Normalize() Params {
	out := p
	if out.Page < 1 {
		out.Page = 1
	}
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	return out
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Pages computes the page count for a total row count.
func (p Params) Pages(total int64) int {
	n := p.Normalize()
	if total <= 0 {
		return 0
	}
	pages := int(total) / n.Limit
	if int(total)%n.Limit != 0 {
		pages++
	}
	return pages
}
