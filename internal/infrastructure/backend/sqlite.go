package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/northwind/backend/internal/domain/shared"
)

// SQLiteAdapter executes query specifications against the embedded SQLite
// engine through GORM. Every user-controlled value travels as a bound
// parameter; column names are concatenated only after whitelist validation.
type SQLiteAdapter struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteAdapter creates a SQLiteAdapter on an open GORM connection.
func NewSQLiteAdapter(db *gorm.DB, logger *zap.Logger) *SQLiteAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteAdapter{db: db, logger: logger.Named("sqlite")}
}

// Execute implements Adapter.
func (a *SQLiteAdapter) Execute(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) (shared.Page[shared.Row], error) {
	spec = spec.Normalized()
	if err := validateSpec(entity, spec); err != nil {
		return shared.Page[shared.Row]{}, err
	}

	if spec.Residual != nil {
		rows, err := a.fetchAll(ctx, entity, spec)
		if err != nil {
			return shared.Page[shared.Row]{}, err
		}
		return residualPage(rows, spec), nil
	}

	var total int64
	countQuery := a.applyConditions(a.db.WithContext(ctx).Table(entity.Table), entity, spec)
	if err := countQuery.Count(&total).Error; err != nil {
		return shared.Page[shared.Row]{}, a.mapError(err)
	}

	dataQuery := a.applyConditions(a.db.WithContext(ctx).Table(entity.Table), entity, spec)
	dataQuery = applyOrder(dataQuery, entity, spec).
		Offset(spec.Offset()).
		Limit(spec.Limit)

	var rows []map[string]any
	if err := dataQuery.Find(&rows).Error; err != nil {
		return shared.Page[shared.Row]{}, a.mapError(err)
	}
	return shared.NewPage(toRows(rows), total, spec.Page, spec.Limit), nil
}

// fetchAll returns the full filtered set, ordered but unpaginated. Used for
// residual-predicate queries where the page is sliced after post-filtering.
func (a *SQLiteAdapter) fetchAll(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) ([]shared.Row, error) {
	query := a.applyConditions(a.db.WithContext(ctx).Table(entity.Table), entity, spec)
	query = applyOrder(query, entity, spec)

	var rows []map[string]any
	if err := query.Find(&rows).Error; err != nil {
		return nil, a.mapError(err)
	}
	return toRows(rows), nil
}

// Get implements Adapter.
func (a *SQLiteAdapter) Get(ctx context.Context, entity shared.EntityDescriptor, id any) (shared.Row, error) {
	var row map[string]any
	err := a.db.WithContext(ctx).
		Table(entity.Table).
		Where(entity.PrimaryKey+" = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, a.mapError(err)
	}
	return row, nil
}

// Insert implements Adapter. When the primary key is absent from values the
// engine assigns a rowid, which is read back on the same connection.
func (a *SQLiteAdapter) Insert(ctx context.Context, entity shared.EntityDescriptor, values shared.Row) (shared.Row, error) {
	if len(values) == 0 {
		return nil, shared.InvalidQueryError("insert with no values for " + entity.Table)
	}
	for field := range values {
		if !entity.FieldAllowed(field) {
			return nil, shared.InvalidQueryError("unknown field " + field + " for " + entity.Table)
		}
	}

	id := values[entity.PrimaryKey]
	vals := map[string]any(values)
	err := a.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		if err := tx.Table(entity.Table).Create(&vals).Error; err != nil {
			return err
		}
		if id == nil {
			var rowid int64
			if err := tx.Raw("SELECT last_insert_rowid()").Scan(&rowid).Error; err != nil {
				return err
			}
			id = rowid
		}
		return nil
	})
	if err != nil {
		return nil, a.mapError(err)
	}
	return a.Get(ctx, entity, id)
}

// Update implements Adapter.
func (a *SQLiteAdapter) Update(ctx context.Context, entity shared.EntityDescriptor, id any, values shared.Row) (shared.Row, error) {
	for field := range values {
		if !entity.FieldAllowed(field) {
			return nil, shared.InvalidQueryError("unknown field " + field + " for " + entity.Table)
		}
	}
	result := a.db.WithContext(ctx).
		Table(entity.Table).
		Where(entity.PrimaryKey+" = ?", id).
		Updates(map[string]any(values))
	if result.Error != nil {
		return nil, a.mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return a.Get(ctx, entity, id)
}

// Delete implements Adapter.
func (a *SQLiteAdapter) Delete(ctx context.Context, entity shared.EntityDescriptor, id any) (bool, error) {
	result := a.db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", entity.Table, entity.PrimaryKey), id)
	if result.Error != nil {
		return false, a.mapError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count implements Adapter.
func (a *SQLiteAdapter) Count(ctx context.Context, entity shared.EntityDescriptor, filters map[string]shared.FilterValue) (int64, error) {
	spec := shared.Spec{Filters: filters}.Normalized()
	if err := validateSpec(entity, spec); err != nil {
		return 0, err
	}
	var total int64
	query := a.applyConditions(a.db.WithContext(ctx).Table(entity.Table), entity, spec)
	if err := query.Count(&total).Error; err != nil {
		return 0, a.mapError(err)
	}
	return total, nil
}

// applyConditions composes filter conditions with AND and wraps the
// OR-combined search group in parentheses so it composes safely.
func (a *SQLiteAdapter) applyConditions(query *gorm.DB, entity shared.EntityDescriptor, spec shared.Spec) *gorm.DB {
	for field, fv := range spec.Filters {
		switch fv.Op {
		case shared.OpEquals:
			query = query.Where(field+" = ?", fv.Value)
		case shared.OpPattern:
			query = query.Where("LOWER("+field+") LIKE ? ESCAPE '\\'", likePattern(fv.Term))
		case shared.OpAnyOf:
			query = query.Where(field+" IN ?", fv.Values)
		case shared.OpRange:
			if fv.Min != nil {
				query = query.Where(field+" >= ?", fv.Min)
			}
			if fv.Max != nil {
				query = query.Where(field+" <= ?", fv.Max)
			}
		case shared.OpIsNull:
			if fv.Null {
				query = query.Where(field + " IS NULL")
			} else {
				query = query.Where(field + " IS NOT NULL")
			}
		}
	}

	if fields := searchFields(entity, spec); len(fields) > 0 {
		pattern := likePattern(spec.Search.Term)
		group := a.db.Where("LOWER("+fields[0]+") LIKE ? ESCAPE '\\'", pattern)
		for _, f := range fields[1:] {
			group = group.Or("LOWER("+f+") LIKE ? ESCAPE '\\'", pattern)
		}
		query = query.Where(group)
	}
	return query
}

// applyOrder applies the multi-column sort in list order, defaulting to an
// ascending primary-key order that keeps repeated pagination deterministic.
func applyOrder(query *gorm.DB, entity shared.EntityDescriptor, spec shared.Spec) *gorm.DB {
	if len(spec.Sort) == 0 {
		return query.Order(entity.PrimaryKey + " ASC")
	}
	for _, s := range spec.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		query = query.Order(s.Field + " " + dir)
	}
	return query
}

// likeEscaper keeps LIKE metacharacters in a user term literal; backslash is
// declared as the escape character on every LIKE the adapters emit.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func toRows(rows []map[string]any) []shared.Row {
	out := make([]shared.Row, len(rows))
	for i, r := range rows {
		out[i] = shared.Row(r)
	}
	return out
}

// mapError wraps driver errors into the shared taxonomy so backend-specific
// codes never leak past the adapter.
func (a *SQLiteAdapter) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	a.logger.Warn("sqlite query failed", zap.Error(err))
	return fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
}

var _ Adapter = (*SQLiteAdapter)(nil)
