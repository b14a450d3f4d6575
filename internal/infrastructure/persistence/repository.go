// Package persistence provides the entity-agnostic repository facade over a
// backend adapter, plus thin per-entity specializations. Repositories own
// pagination math and result-shape normalization; adapters own protocol
// translation.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/backend"
)

// Repository is a generic entity repository over a backend adapter. It is
// constructed explicitly with its adapter and descriptor; there is no
// process-wide registry.
type Repository[T any] struct {
	adapter backend.Adapter
	entity  shared.EntityDescriptor
	logger  *zap.Logger
}

// NewRepository creates a repository for one entity on the given adapter.
func NewRepository[T any](adapter backend.Adapter, entity shared.EntityDescriptor, logger *zap.Logger) *Repository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository[T]{
		adapter: adapter,
		entity:  entity,
		logger:  logger.Named("repo." + entity.Table),
	}
}

// Entity exposes the descriptor for callers composing raw adapter queries.
func (r *Repository[T]) Entity() shared.EntityDescriptor {
	return r.entity
}

// Adapter exposes the underlying adapter for cross-entity composition.
func (r *Repository[T]) Adapter() backend.Adapter {
	return r.adapter
}

// FindAll runs the query specification and returns one typed page.
func (r *Repository[T]) FindAll(ctx context.Context, spec shared.Spec) (shared.Page[T], error) {
	page, err := r.adapter.Execute(ctx, r.entity, spec.Normalized())
	if err != nil {
		return shared.Page[T]{}, err
	}
	return shared.MapPage(page, decodeRow[T])
}

// All pages through the entire filtered set and returns every row. Used by
// the aggregation engine for driving sets and dependent fetches.
func (r *Repository[T]) All(ctx context.Context, spec shared.Spec) ([]T, error) {
	const pageSize = 500
	spec = spec.Normalized()
	spec.Limit = pageSize

	var out []T
	for page := 1; ; page++ {
		spec.Page = page
		result, err := r.FindAll(ctx, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, result.Data...)
		if len(result.Data) < pageSize || int64(len(out)) >= result.Total {
			return out, nil
		}
	}
}

// FindByID fetches one entity by primary key. Absence is (nil, nil); an
// error is returned only for genuine backend failures.
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	row, err := r.adapter.Get(ctx, r.entity, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	entity, err := decodeRow[T](row)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Create inserts a new entity from a partial row. Absent fields stay
// undefined; explicit nils are stored as nulls.
func (r *Repository[T]) Create(ctx context.Context, values shared.Row) (*T, error) {
	row, err := r.adapter.Insert(ctx, r.entity, cloneRow(values))
	if err != nil {
		return nil, err
	}
	entity, err := decodeRow[T](row)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update patches an entity by primary key. An empty partial is a no-op that
// returns the current entity without issuing a write. Absence is (nil, nil).
func (r *Repository[T]) Update(ctx context.Context, id any, values shared.Row) (*T, error) {
	if len(values) == 0 {
		return r.FindByID(ctx, id)
	}
	row, err := r.adapter.Update(ctx, r.entity, id, cloneRow(values))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	entity, err := decodeRow[T](row)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes an entity by primary key. A missing id is (false, nil),
// not an error.
func (r *Repository[T]) Delete(ctx context.Context, id any) (bool, error) {
	ok, err := r.adapter.Delete(ctx, r.entity, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Count returns the size of the set matching the filters.
func (r *Repository[T]) Count(ctx context.Context, filters map[string]shared.FilterValue) (int64, error) {
	return r.adapter.Count(ctx, r.entity, filters)
}

// decodeRow types an opaque row at the repository boundary through its json
// tags, normalizing the numeric-type differences between the two backends.
func decodeRow[T any](row shared.Row) (T, error) {
	var entity T
	raw, err := json.Marshal(row)
	if err != nil {
		return entity, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(raw, &entity); err != nil {
		return entity, fmt.Errorf("decode row: %w", err)
	}
	return entity, nil
}

func cloneRow(values shared.Row) shared.Row {
	out := make(shared.Row, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
