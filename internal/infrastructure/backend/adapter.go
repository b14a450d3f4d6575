// Package backend translates backend-neutral query specifications into the
// native protocols of the two storage backends: the embedded SQLite engine
// and the remote PostgREST-style gateway. All entity-specific logic lives
// above the Adapter interface, so swapping backends never touches repository
// or aggregation code.
package backend

import (
	"context"

	"github.com/northwind/backend/internal/domain/shared"
)

// Adapter executes backend-neutral queries against one storage backend and
// normalizes the results.
type Adapter interface {
	// Execute runs a query specification and returns exactly one page of
	// rows plus the total count of the filtered set.
	Execute(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) (shared.Page[shared.Row], error)
	// Get fetches a single row by primary key; absence is (nil, nil).
	Get(ctx context.Context, entity shared.EntityDescriptor, id any) (shared.Row, error)
	// Insert creates a row and returns it as stored.
	Insert(ctx context.Context, entity shared.EntityDescriptor, values shared.Row) (shared.Row, error)
	// Update patches a row by primary key and returns the stored result;
	// absence is (nil, nil). Callers must not pass an empty values map.
	Update(ctx context.Context, entity shared.EntityDescriptor, id any, values shared.Row) (shared.Row, error)
	// Delete removes a row by primary key; a missing id is (false, nil).
	Delete(ctx context.Context, entity shared.EntityDescriptor, id any) (bool, error)
	// Count returns the size of the set matching the filters.
	Count(ctx context.Context, entity shared.EntityDescriptor, filters map[string]shared.FilterValue) (int64, error)
}

// validateSpec rejects filter, sort, and search references to fields outside
// the entity's whitelist before any backend call is issued.
func validateSpec(entity shared.EntityDescriptor, spec shared.Spec) error {
	for field := range spec.Filters {
		if !entity.FieldAllowed(field) {
			return shared.InvalidQueryError("unknown filter field " + field + " for " + entity.Table)
		}
	}
	for _, s := range spec.Sort {
		if !entity.FieldAllowed(s.Field) {
			return shared.InvalidQueryError("unknown sort field " + s.Field + " for " + entity.Table)
		}
	}
	if spec.HasSearch() {
		for _, f := range spec.Search.Fields {
			if !entity.SearchAllowed(f) {
				return shared.InvalidQueryError("field " + f + " is not searchable on " + entity.Table)
			}
		}
	}
	return nil
}

// searchFields resolves the columns a search applies to, falling back to the
// entity's defaults when the caller named none.
func searchFields(entity shared.EntityDescriptor, spec shared.Spec) []string {
	if spec.Search == nil || spec.Search.Term == "" {
		return nil
	}
	if len(spec.Search.Fields) > 0 {
		return spec.Search.Fields
	}
	return entity.DefaultSearch
}

// residualPage applies the in-memory residual predicate to the full
// server-side-filtered set, recomputes the total from the post-filtered set,
// and slices out the requested page. Both adapters funnel residual queries
// through here so the two backends stay observably identical.
func residualPage(rows []shared.Row, spec shared.Spec) shared.Page[shared.Row] {
	filtered := make([]shared.Row, 0, len(rows))
	for _, r := range rows {
		if spec.Residual(r) {
			filtered = append(filtered, r)
		}
	}
	total := int64(len(filtered))

	offset := spec.Offset()
	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + spec.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return shared.NewPage(filtered[offset:end], total, spec.Page, spec.Limit)
}
