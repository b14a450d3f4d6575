package persistence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind/backend/internal/domain/partner"
	"github.com/northwind/backend/internal/domain/shared"
)

// stubAdapter is an in-memory Adapter that records which calls the repository
// issues. Rows use float64 numbers, matching what the remote gateway produces,
// so the tests also cover the repository's numeric normalization.
type stubAdapter struct {
	mu   sync.Mutex
	data map[string][]shared.Row

	executeCalls int
	getCalls     int
	insertCalls  int
	updateCalls  int
	deleteCalls  int
}

func newStubAdapter() *stubAdapter {
	return &stubAdapter{data: map[string][]shared.Row{}}
}

func (s *stubAdapter) Execute(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) (shared.Page[shared.Row], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executeCalls++

	spec = spec.Normalized()
	filtered := s.filter(entity.Table, spec.Filters)
	sortStubRows(filtered, spec.Sort, entity.PrimaryKey)
	if spec.Residual != nil {
		kept := filtered[:0]
		for _, r := range filtered {
			if spec.Residual(r) {
				kept = append(kept, r)
			}
		}
		filtered = kept
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
	return shared.NewPage(filtered[offset:end], total, spec.Page, spec.Limit), nil
}

func (s *stubAdapter) Get(ctx context.Context, entity shared.EntityDescriptor, id any) (shared.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	for _, r := range s.data[entity.Table] {
		if stubEq(r[entity.PrimaryKey], id) {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubAdapter) Insert(ctx context.Context, entity shared.EntityDescriptor, values shared.Row) (shared.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	s.data[entity.Table] = append(s.data[entity.Table], values)
	return values, nil
}

func (s *stubAdapter) Update(ctx context.Context, entity shared.EntityDescriptor, id any, values shared.Row) (shared.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	for _, r := range s.data[entity.Table] {
		if stubEq(r[entity.PrimaryKey], id) {
			for k, v := range values {
				r[k] = v
			}
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubAdapter) Delete(ctx context.Context, entity shared.EntityDescriptor, id any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	rows := s.data[entity.Table]
	for i, r := range rows {
		if stubEq(r[entity.PrimaryKey], id) {
			s.data[entity.Table] = append(rows[:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAdapter) Count(ctx context.Context, entity shared.EntityDescriptor, filters map[string]shared.FilterValue) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filter(entity.Table, filters))), nil
}

func (s *stubAdapter) filter(table string, filters map[string]shared.FilterValue) []shared.Row {
	out := make([]shared.Row, 0, len(s.data[table]))
	for _, r := range s.data[table] {
		if stubMatches(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func stubMatches(r shared.Row, filters map[string]shared.FilterValue) bool {
	for field, fv := range filters {
		switch fv.Op {
		case shared.OpEquals:
			if !stubEq(r[field], fv.Value) {
				return false
			}
		case shared.OpRange:
			v := fmt.Sprintf("%v", r[field])
			if fv.Min != nil && v < fmt.Sprintf("%v", fv.Min) {
				return false
			}
			if fv.Max != nil && v > fmt.Sprintf("%v", fv.Max) {
				return false
			}
		}
	}
	return true
}

func stubEq(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func sortStubRows(rows []shared.Row, keys []shared.SortField, pk string) {
	if len(keys) == 0 {
		keys = []shared.SortField{{Field: pk}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := stubCmp(rows[i][k.Field], rows[j][k.Field])
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func stubCmp(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func productStubRow(id float64, name string, price float64) shared.Row {
	return shared.Row{
		"product_id":        id,
		"product_name":      name,
		"supplier_id":       nil,
		"category_id":       float64(1),
		"quantity_per_unit": "",
		"unit_price":        price,
		"units_in_stock":    float64(10),
		"units_on_order":    float64(0),
		"reorder_level":     float64(5),
		"discontinued":      float64(0),
	}
}

func TestRepositoryFindAll(t *testing.T) {
	adapter := newStubAdapter()
	adapter.data["products"] = []shared.Row{
		productStubRow(1, "Chai", 18),
		productStubRow(2, "Chang", 19),
	}
	repo := NewProductRepository(adapter, nil)

	page, err := repo.FindAll(context.Background(), shared.Spec{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	// float64 from the wire decodes into the typed int64 field.
	assert.Equal(t, int64(1), page.Data[0].ProductID)
	assert.Equal(t, "Chai", page.Data[0].ProductName)
	assert.Equal(t, 19.0, page.Data[1].UnitPrice)
	assert.Equal(t, int64(2), page.Total)
}

func TestRepositoryFindByID(t *testing.T) {
	adapter := newStubAdapter()
	adapter.data["products"] = []shared.Row{productStubRow(1, "Chai", 18)}
	repo := NewProductRepository(adapter, nil)

	t.Run("present", func(t *testing.T) {
		p, err := repo.FindByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Chai", p.ProductName)
	})

	t.Run("absent is nil without error", func(t *testing.T) {
		p, err := repo.FindByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestRepositoryUpdate(t *testing.T) {
	t.Run("empty partial issues no write", func(t *testing.T) {
		adapter := newStubAdapter()
		adapter.data["products"] = []shared.Row{productStubRow(1, "Chai", 18)}
		repo := NewProductRepository(adapter, nil)

		p, err := repo.Update(context.Background(), 1, shared.Row{})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Chai", p.ProductName)
		assert.Equal(t, 0, adapter.updateCalls)
		assert.Equal(t, 1, adapter.getCalls)
	})

	t.Run("patch updates named fields only", func(t *testing.T) {
		adapter := newStubAdapter()
		adapter.data["products"] = []shared.Row{productStubRow(1, "Chai", 18)}
		repo := NewProductRepository(adapter, nil)

		p, err := repo.Update(context.Background(), 1, shared.Row{"unit_price": 20.5})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 20.5, p.UnitPrice)
		assert.Equal(t, "Chai", p.ProductName)
		assert.Equal(t, 1, adapter.updateCalls)
	})

	t.Run("absent is nil without error", func(t *testing.T) {
		adapter := newStubAdapter()
		repo := NewProductRepository(adapter, nil)

		p, err := repo.Update(context.Background(), 42, shared.Row{"unit_price": 1.0})
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestRepositoryDelete(t *testing.T) {
	adapter := newStubAdapter()
	adapter.data["products"] = []shared.Row{productStubRow(1, "Chai", 18)}
	repo := NewProductRepository(adapter, nil)

	deleted, err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepositoryAll(t *testing.T) {
	adapter := newStubAdapter()
	for i := 0; i < 1010; i++ {
		adapter.data["order_details"] = append(adapter.data["order_details"], shared.Row{
			"order_id":   float64(i + 1),
			"product_id": float64(1),
			"unit_price": float64(10),
			"quantity":   float64(2),
			"discount":   float64(0),
		})
	}
	repo := NewOrderLineRepository(adapter, nil)

	lines, err := repo.FindByProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, lines, 1010)
	// 1010 rows at the 500-row page size means three fetches.
	assert.Equal(t, 3, adapter.executeCalls)
	assert.Equal(t, int64(1), lines[0].OrderID)
	assert.Equal(t, int64(1010), lines[1009].OrderID)
}

func TestProductRepositoryStockListings(t *testing.T) {
	adapter := newStubAdapter()
	low := productStubRow(1, "Chang", 19)
	low["units_in_stock"] = float64(3)
	out := productStubRow(2, "Gumbo Mix", 21.35)
	out["units_in_stock"] = float64(0)
	healthy := productStubRow(3, "Chai", 18)
	healthy["units_in_stock"] = float64(40)
	adapter.data["products"] = []shared.Row{low, out, healthy}
	repo := NewProductRepository(adapter, nil)

	t.Run("low stock recomputes total", func(t *testing.T) {
		page, err := repo.FindLowStock(context.Background(), shared.Spec{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Chang", page.Data[0].ProductName)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("out of stock", func(t *testing.T) {
		page, err := repo.FindOutOfStock(context.Background(), shared.Spec{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Gumbo Mix", page.Data[0].ProductName)
	})

	t.Run("in stock", func(t *testing.T) {
		page, err := repo.FindInStock(context.Background(), shared.Spec{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})
}

func TestOrderRepositoryFindWithDetails(t *testing.T) {
	adapter := newStubAdapter()
	adapter.data["orders"] = []shared.Row{{
		"order_id":      float64(10248),
		"customer_id":   "ALFKI",
		"employee_id":   float64(5),
		"order_date":    "2026-07-04",
		"required_date": "2026-08-01",
		"shipped_date":  nil,
		"ship_via":      float64(3),
		"freight":       32.38,
		"ship_name":     "Alfreds Futterkiste",
		"ship_city":     "Berlin",
		"ship_country":  "Germany",
	}}
	adapter.data["order_details"] = []shared.Row{
		{"order_id": float64(10248), "product_id": float64(2), "unit_price": float64(19), "quantity": float64(9), "discount": float64(0)},
		{"order_id": float64(10248), "product_id": float64(1), "unit_price": float64(18), "quantity": float64(12), "discount": 0.1},
		{"order_id": float64(99999), "product_id": float64(1), "unit_price": float64(18), "quantity": float64(1), "discount": float64(0)},
	}
	repo := NewOrderRepository(adapter, nil)

	t.Run("materializes lines sorted by product", func(t *testing.T) {
		order, err := repo.FindWithDetails(context.Background(), 10248)
		require.NoError(t, err)
		require.NotNil(t, order)
		require.Len(t, order.OrderDetails, 2)
		assert.Equal(t, int64(1), order.OrderDetails[0].ProductID)
		assert.Equal(t, int64(2), order.OrderDetails[1].ProductID)
	})

	t.Run("absent order is nil without error", func(t *testing.T) {
		order, err := repo.FindWithDetails(context.Background(), 5)
		require.NoError(t, err)
		assert.Nil(t, order)
	})
}

func TestOrderRepositoryFindInDateRange(t *testing.T) {
	adapter := newStubAdapter()
	for i, date := range []string{"2026-06-30", "2026-07-04", "2026-07-20", "2026-08-02"} {
		adapter.data["orders"] = append(adapter.data["orders"], shared.Row{
			"order_id":      float64(i + 1),
			"customer_id":   "ALFKI",
			"employee_id":   nil,
			"order_date":    date,
			"required_date": date,
			"shipped_date":  nil,
			"ship_via":      nil,
			"freight":       float64(0),
			"ship_name":     "",
			"ship_city":     "",
			"ship_country":  "",
		})
	}
	repo := NewOrderRepository(adapter, nil)

	page, err := repo.FindInDateRange(context.Background(), "2026-07-01", "2026-07-31", shared.Spec{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestCustomerRepositorySearch(t *testing.T) {
	adapter := newStubAdapter()
	adapter.data["customers"] = []shared.Row{
		{"customer_id": "ALFKI", "company_name": "Alfreds Futterkiste", "contact_name": "Maria Anders",
			"contact_title": "", "address": "", "city": "Berlin", "region": nil, "postal_code": "",
			"country": "Germany", "phone": "", "fax": ""},
	}
	repo := NewCustomerRepository(adapter, nil)

	page, err := repo.FindByCountry(context.Background(), "Germany", shared.Spec{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, partner.Customer{
		CustomerID:  "ALFKI",
		CompanyName: "Alfreds Futterkiste",
		ContactName: "Maria Anders",
		City:        "Berlin",
		Country:     "Germany",
	}, page.Data[0])
}
