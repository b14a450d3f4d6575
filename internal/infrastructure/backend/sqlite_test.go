package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/catalog"
	"github.com/northwind/backend/internal/domain/partner"
	"github.com/northwind/backend/internal/domain/shared"
)

func newSQLiteAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	return NewSQLiteAdapter(openTestDB(t), zap.NewNop())
}

func TestSQLiteExecuteFilters(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("equals", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"category_id": shared.Equals(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, []any{int64(3), int64(4), int64(5), int64(6), int64(8)}, names(page, "product_id"))
	})

	t.Run("any of", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"product_id": shared.AnyOf(1, 5, 8)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("pattern is case-insensitive", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"product_name": shared.Pattern("CHEF")},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, []any{int64(4), int64(5)}, names(page, "product_id"))
	})

	t.Run("pattern wildcards match literally", func(t *testing.T) {
		adapter := newSQLiteAdapter(t)
		insertRow(t, adapter.db, "products", productRow(9, "Sirop 100% Erable", f(1), f(2), "12 - 500 ml bottles", 28, 6, 0, 5, 0))

		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"product_name": shared.Pattern("100%")},
		})
		require.NoError(t, err)
		// "%" in the term stops being a wildcard: only the literal match
		// survives, not every name containing "100".
		assert.Equal(t, []any{int64(9)}, names(page, "product_id"))
	})

	t.Run("range with both bounds", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"unit_price": shared.Range(19, 25)},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(2), int64(4), int64(5), int64(6)}, names(page, "product_id"))
	})

	t.Run("range open above", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"unit_price": shared.Range(30, nil)},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(7), int64(8)}, names(page, "product_id"))
	})

	t.Run("is null", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"supplier_id": shared.IsNull(true)},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(8)}, names(page, "product_id"))
	})

	t.Run("is not null", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"supplier_id": shared.IsNull(false)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), page.Total)
	})
}

func TestSQLiteExecuteSearch(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("search ORs across fields and ANDs with filters", func(t *testing.T) {
		page, err := adapter.Execute(ctx, partner.CustomerEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"country": shared.Equals("Mexico")},
			Search:  &shared.Search{Fields: []string{"company_name", "contact_name"}, Term: "ana"},
		})
		require.NoError(t, err)
		// ANATR matches on both fields; ALFKI's "Maria Anders" is excluded by
		// the country filter, proving the search group is parenthesized.
		assert.Equal(t, []any{"ANATR"}, names(page, "customer_id"))
	})

	t.Run("search falls back to default fields", func(t *testing.T) {
		page, err := adapter.Execute(ctx, partner.CustomerEntity, shared.Spec{
			Search: &shared.Search{Fields: []string{"company_name", "contact_name", "city"}, Term: "berl"},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"ALFKI", "BERGS"}, names(page, "customer_id"))
	})
}

func TestSQLiteExecuteSortAndPagination(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("multi-column sort", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"category_id": shared.Equals(2)},
			Sort: []shared.SortField{
				{Field: "reorder_level", Desc: true},
				{Field: "unit_price", Desc: false},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(3), int64(6), int64(5), int64(4), int64(8)}, names(page, "product_id"))
	})

	t.Run("pagination envelope", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(8), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, []any{int64(4), int64(5), int64(6)}, names(page, "product_id"))
	})

	t.Run("page past the end is empty with intact total", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{Page: 9, Limit: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Equal(t, int64(8), page.Total)
	})

	t.Run("identical specs return identical pages", func(t *testing.T) {
		spec := shared.Spec{Page: 1, Limit: 4}
		first, err := adapter.Execute(ctx, catalog.ProductEntity, spec)
		require.NoError(t, err)
		second, err := adapter.Execute(ctx, catalog.ProductEntity, spec)
		require.NoError(t, err)
		assert.Equal(t, names(first, "product_id"), names(second, "product_id"))
	})
}

func TestSQLiteExecuteResidual(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("total reflects the post-filtered set", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Residual: catalog.LowStock,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, []any{int64(2), int64(3)}, names(page, "product_id"))
	})

	t.Run("composes with server-side filters", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters:  map[string]shared.FilterValue{"category_id": shared.Equals(2)},
			Residual: catalog.LowStock,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, []any{int64(3)}, names(page, "product_id"))
	})

	t.Run("out of stock", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Residual: catalog.OutOfStock,
		})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(5)}, names(page, "product_id"))
	})
}

func TestSQLiteWhitelist(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("unknown filter field", func(t *testing.T) {
		_, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Filters: map[string]shared.FilterValue{"password": shared.Equals("x")},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuery)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		_, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Sort: []shared.SortField{{Field: "1; DROP TABLE products"}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuery)
	})

	t.Run("non-searchable field", func(t *testing.T) {
		_, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Search: &shared.Search{Fields: []string{"unit_price"}, Term: "18"},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuery)
	})

	t.Run("hostile search term stays a bound parameter", func(t *testing.T) {
		page, err := adapter.Execute(ctx, catalog.ProductEntity, shared.Spec{
			Search: &shared.Search{Fields: []string{"product_name"}, Term: "') OR 1=1 --"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
	})
}

func TestSQLiteMutations(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	ctx := context.Background()

	t.Run("get by primary key", func(t *testing.T) {
		row, err := adapter.Get(ctx, catalog.ProductEntity, 1)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "Chai", row["product_name"])
	})

	t.Run("get missing is nil without error", func(t *testing.T) {
		row, err := adapter.Get(ctx, catalog.ProductEntity, 9999)
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("insert assigns id and returns stored row", func(t *testing.T) {
		row, err := adapter.Insert(ctx, catalog.ProductEntity, shared.Row{
			"product_name":   "Ikura",
			"unit_price":     31.0,
			"units_in_stock": int64(31),
			"units_on_order": int64(0),
			"reorder_level":  int64(0),
			"discontinued":   int64(0),
		})
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, int64(9), row["product_id"])
		assert.Equal(t, "Ikura", row["product_name"])
	})

	t.Run("insert rejects unknown field", func(t *testing.T) {
		_, err := adapter.Insert(ctx, catalog.ProductEntity, shared.Row{"not_a_column": 1})
		assert.ErrorIs(t, err, shared.ErrInvalidQuery)
	})

	t.Run("update returns stored row", func(t *testing.T) {
		row, err := adapter.Update(ctx, catalog.ProductEntity, 1, shared.Row{"units_in_stock": int64(50)})
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, int64(50), row["units_in_stock"])
	})

	t.Run("update missing is nil without error", func(t *testing.T) {
		row, err := adapter.Update(ctx, catalog.ProductEntity, 9999, shared.Row{"units_in_stock": int64(1)})
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("delete reports whether a row existed", func(t *testing.T) {
		deleted, err := adapter.Delete(ctx, catalog.ProductEntity, 8)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = adapter.Delete(ctx, catalog.ProductEntity, 8)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("count honors filters", func(t *testing.T) {
		total, err := adapter.Count(ctx, partner.CustomerEntity, map[string]shared.FilterValue{
			"country": shared.Equals("Mexico"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}
