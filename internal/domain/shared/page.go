package shared

// Page is one page of query results plus the size of the full filtered set.
// Pages are immutable snapshots; callers re-query for freshness.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage creates a page result, deriving TotalPages from total and limit.
func NewPage[T any](data []T, total int64, page, limit int) Page[T] {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// MapPage converts a page of one element type to another, preserving the
// pagination envelope.
func MapPage[A, B any](p Page[A], f func(A) (B, error)) (Page[B], error) {
	out := make([]B, len(p.Data))
	for i, a := range p.Data {
		b, err := f(a)
		if err != nil {
			return Page[B]{}, err
		}
		out[i] = b
	}
	return Page[B]{
		Data:       out,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}, nil
}
