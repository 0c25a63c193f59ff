package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Counted is a list result carrying the total number of matches
type Counted[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

// NewCounted wraps results with their total count
func NewCounted[T any](results []T, count int64) Counted[T] {
	if results == nil {
		results = []T{}
	}
	return Counted[T]{Count: count, Results: results}
}
