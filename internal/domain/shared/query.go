package shared

// Row is an opaque record as returned by a storage backend. Rows are value
// objects: adapters build a fresh map per row and nothing holds a reference
// back into the backend.
type Row = map[string]any

// FilterOp identifies the comparison a FilterValue performs. The operator is
// always explicit; it is never inferred from the shape of the value.
type FilterOp int

const (
	OpEquals FilterOp = iota
	OpPattern
	OpAnyOf
	OpRange
	OpIsNull
)

// FilterValue is a tagged filter condition applied to a single field.
type FilterValue struct {
	Op     FilterOp
	Value  any   // OpEquals
	Term   string // OpPattern: case-insensitive substring
	Values []any  // OpAnyOf
	Min    any    // OpRange: nil means open below
	Max    any    // OpRange: nil means open above
	Null   bool   // OpIsNull: true = IS NULL, false = IS NOT NULL
}

// Equals matches rows whose field equals v.
func Equals(v any) FilterValue { return FilterValue{Op: OpEquals, Value: v} }

// Pattern matches rows whose field contains term, case-insensitively.
func Pattern(term string) FilterValue { return FilterValue{Op: OpPattern, Term: term} }

// AnyOf matches rows whose field equals any of vs.
func AnyOf(vs ...any) FilterValue { return FilterValue{Op: OpAnyOf, Values: vs} }

// Range matches rows whose field lies in [min, max]; either bound may be nil.
func Range(min, max any) FilterValue { return FilterValue{Op: OpRange, Min: min, Max: max} }

// IsNull matches rows whose field is (or is not) null.
func IsNull(null bool) FilterValue { return FilterValue{Op: OpIsNull, Null: null} }

// Search is an OR-combined case-insensitive substring match across fields.
// An empty term means no search filter at all.
type Search struct {
	Fields []string `json:"fields"`
	Term   string   `json:"query"`
}

// SortField is one entry of a multi-column sort; earlier entries take
// precedence on ties.
type SortField struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Spec is the backend-neutral query specification every caller builds.
// A zero Spec is valid and means "first page of everything".
type Spec struct {
	Filters map[string]FilterValue
	Search  *Search
	Sort    []SortField
	Page    int
	Limit   int

	// Residual is a predicate the backend cannot express server-side
	// (e.g. comparisons between two columns). When set, adapters fetch the
	// full server-side-filtered set, apply it in memory, and recompute the
	// total from the post-filtered set.
	Residual func(Row) bool `json:"-"`
}

// DefaultLimit is applied when a spec carries no pagination.
const DefaultLimit = 20

// Normalized returns a copy of the spec with pagination clamped to valid
// values: page and limit are always positive after normalization.
func (s Spec) Normalized() Spec {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.Limit < 1 {
		s.Limit = DefaultLimit
	}
	return s
}

// Offset returns the row offset implied by the spec's pagination.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// HasSearch reports whether the spec carries a non-empty search term.
func (s Spec) HasSearch() bool {
	return s.Search != nil && s.Search.Term != "" && len(s.Search.Fields) > 0
}
