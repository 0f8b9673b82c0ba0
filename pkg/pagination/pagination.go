package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page describes one page of results alongside the total row count.
type Page struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// Normalize enforces the configured default and maximum limits and clamps
// negative offsets.
func (p Params) Normalize() Params {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// PageFor builds the page envelope for the normalized params and total count.
func PageFor(params Params, total int64) Page {
	normalized := params.Normalize()
	return Page{
		Limit:  normalized.Limit,
		Offset: normalized.Offset,
		Total:  total,
	}
}

// HasMore reports whether rows remain beyond this page.
func (p Page) HasMore() bool {
	return int64(p.Offset+p.Limit) < p.Total
}
