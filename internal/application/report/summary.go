package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/northwind/backend/internal/domain/finance"
	"github.com/northwind/backend/internal/domain/shared"
)

// Summary is the dashboard header: totals across the whole dataset.
type Summary struct {
	RunInfo
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	OrderCount        int64           `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	CustomerCount     int64           `json:"customer_count"`
	ProductCount      int64           `json:"product_count"`
}

// Summarize computes the dashboard totals. All fetches here are driving
// fetches: any failure is fatal rather than zero-substituted.
func (e *Engine) Summarize(ctx context.Context) (*Summary, error) {
	lines, err := e.lines.All(ctx, shared.Spec{
		Sort: []shared.SortField{{Field: "order_id"}},
	})
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	orderIDs := make(map[int64]struct{})
	for _, l := range lines {
		revenue = revenue.Add(lineRevenue(l))
		orderIDs[l.OrderID] = struct{}{}
	}

	customerCount, err := e.customers.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	productCount, err := e.products.Count(ctx, nil)
	if err != nil {
		return nil, err
	}

	orderCount := int64(len(orderIDs))
	return &Summary{
		TotalRevenue:      revenue,
		OrderCount:        orderCount,
		AverageOrderValue: finance.AverageOrderValue(revenue, orderCount),
		CustomerCount:     customerCount,
		ProductCount:      productCount,
	}, nil
}
