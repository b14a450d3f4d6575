package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/domain/trade"
	"github.com/northwind/backend/internal/infrastructure/backend"
)

// OrderRepository specializes the generic repository for orders and owns the
// materialization of order_details onto a with-details read.
type OrderRepository struct {
	*Repository[trade.Order]
	lines *OrderLineRepository
}

// NewOrderRepository creates an order repository on the given adapter.
func NewOrderRepository(adapter backend.Adapter, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		Repository: NewRepository[trade.Order](adapter, trade.OrderEntity, logger),
		lines:      NewOrderLineRepository(adapter, logger),
	}
}

// FindByCustomer lists one customer's orders.
func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID string, spec shared.Spec) (shared.Page[trade.Order], error) {
	if spec.Filters == nil {
		spec.Filters = map[string]shared.FilterValue{}
	}
	spec.Filters["customer_id"] = shared.Equals(customerID)
	return r.FindAll(ctx, spec)
}

// FindInDateRange lists orders whose order_date lies in [from, to]. Dates are
// the backend's own date strings; either bound may be empty for an open end.
func (r *OrderRepository) FindInDateRange(ctx context.Context, from, to string, spec shared.Spec) (shared.Page[trade.Order], error) {
	if spec.Filters == nil {
		spec.Filters = map[string]shared.FilterValue{}
	}
	var min, max any
	if from != "" {
		min = from
	}
	if to != "" {
		max = to
	}
	spec.Filters["order_date"] = shared.Range(min, max)
	return r.FindAll(ctx, spec)
}

// FindWithDetails fetches one order with its order_details materialized.
// Absence of the order is (nil, nil); a failure fetching the lines is a
// failure of the read, not a silent empty list.
func (r *OrderRepository) FindWithDetails(ctx context.Context, orderID int64) (*trade.Order, error) {
	order, err := r.FindByID(ctx, orderID)
	if err != nil || order == nil {
		return order, err
	}
	lines, err := r.lines.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.OrderDetails = lines
	return order, nil
}

// Lines exposes the order-line repository sharing this repository's adapter.
func (r *OrderRepository) Lines() *OrderLineRepository {
	return r.lines
}

// OrderLineRepository specializes the generic repository for order lines.
type OrderLineRepository struct {
	*Repository[trade.OrderLine]
}

// NewOrderLineRepository creates an order-line repository on the given adapter.
func NewOrderLineRepository(adapter backend.Adapter, logger *zap.Logger) *OrderLineRepository {
	return &OrderLineRepository{
		Repository: NewRepository[trade.OrderLine](adapter, trade.OrderLineEntity, logger),
	}
}

// FindByOrder returns every line of one order.
func (r *OrderLineRepository) FindByOrder(ctx context.Context, orderID int64) ([]trade.OrderLine, error) {
	return r.All(ctx, shared.Spec{
		Filters: map[string]shared.FilterValue{
			"order_id": shared.Equals(orderID),
		},
		Sort: []shared.SortField{{Field: "product_id"}},
	})
}

// FindByProduct returns every line referencing one product.
func (r *OrderLineRepository) FindByProduct(ctx context.Context, productID int64) ([]trade.OrderLine, error) {
	return r.All(ctx, shared.Spec{
		Filters: map[string]shared.FilterValue{
			"product_id": shared.Equals(productID),
		},
		Sort: []shared.SortField{{Field: "order_id"}},
	})
}
