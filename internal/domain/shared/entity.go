package shared

// EntityDescriptor carries the backend-facing metadata for one entity: the
// table (or collection) name, its primary key, and the field whitelists the
// adapters validate queries against.
type EntityDescriptor struct {
	Table      string
	PrimaryKey string

	// Fields is the full set of filterable/sortable columns. Filter and sort
	// references outside this set are rejected as invalid queries before any
	// backend call is issued.
	Fields map[string]bool

	// SearchFields is the set of columns eligible for substring search.
	SearchFields map[string]bool

	// DefaultSearch lists the columns searched when the caller supplies a
	// term without naming fields.
	DefaultSearch []string
}

// FieldAllowed reports whether the named column may appear in filters or sort.
func (d EntityDescriptor) FieldAllowed(field string) bool {
	return d.Fields[field]
}

// SearchAllowed reports whether the named column may appear in a search.
func (d EntityDescriptor) SearchAllowed(field string) bool {
	return d.SearchFields[field]
}
