package report

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/finance"
	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/domain/trade"
)

// CustomerMetric is one customer's accumulated order activity. Revenue is an
// exact decimal; display rounding is the caller's concern.
type CustomerMetric struct {
	CustomerID  string          `json:"customer_id"`
	CompanyName string          `json:"company_name"`
	OrderCount  int64           `json:"order_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

// CustomerMetricsResult is a full customer scan: every customer appears,
// zero-substituted when it has no orders.
type CustomerMetricsResult struct {
	RunInfo
	Metrics []CustomerMetric `json:"metrics"`
}

// CustomerMetrics scans every customer and accumulates order count and
// revenue per customer. Customers without orders contribute zero-valued
// entries, not omissions.
func (e *Engine) CustomerMetrics(ctx context.Context) (*CustomerMetricsResult, error) {
	customers, err := e.customers.All(ctx, shared.Spec{
		Sort: []shared.SortField{{Field: "customer_id"}},
	})
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.CustomerID] = c.CompanyName
		acc.ensure(c.CustomerID)
	}

	g, _ := e.group(ctx)
	for _, c := range customers {
		customerID := c.CustomerID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			e.accumulateCustomer(ctx, acc, customerID)
			return nil
		})
	}
	_ = g.Wait()

	result := &CustomerMetricsResult{
		RunInfo: RunInfo{Warnings: acc.warnings, Partial: ctx.Err() != nil},
		Metrics: make([]CustomerMetric, 0, len(customers)),
	}
	for _, c := range customers {
		b := acc.buckets[c.CustomerID]
		result.Metrics = append(result.Metrics, CustomerMetric{
			CustomerID:  c.CustomerID,
			CompanyName: names[c.CustomerID],
			OrderCount:  int64(len(b.orders)),
			TotalSpent:  b.revenue,
		})
	}
	return result, nil
}

// accumulateCustomer fetches one customer's orders and reduces their lines
// into the accumulator. A dependent failure degrades to a zero contribution
// plus a warning; caller cancellation surfaces only as a partial run.
func (e *Engine) accumulateCustomer(ctx context.Context, acc *accumulator, customerID string) {
	dctx, cancel := e.dependentCtx(ctx)
	orders, err := e.orders.All(dctx, shared.Spec{
		Filters: map[string]shared.FilterValue{"customer_id": shared.Equals(customerID)},
		Sort:    []shared.SortField{{Field: "order_id"}},
	})
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("orders fetch failed, substituting zero",
				zap.String("customer_id", customerID), zap.Error(err))
			acc.warn()
		}
		return
	}

	for _, o := range orders {
		if ctx.Err() != nil {
			return
		}
		lctx, lcancel := e.dependentCtx(ctx)
		lines, err := e.lines.FindByOrder(lctx, o.OrderID)
		lcancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("order lines fetch failed, substituting zero",
				zap.Int64("order_id", o.OrderID), zap.Error(err))
			acc.warn()
			continue
		}
		qty, revenue := reduceLines(lines)
		acc.add(customerID, qty, revenue, o.OrderID)
	}
}

// RankedCustomer is one entry of the top-customers ranking.
type RankedCustomer struct {
	Rank int `json:"rank"`
	CustomerMetric
}

// TopCustomersResult is a revenue-descending customer ranking.
type TopCustomersResult struct {
	RunInfo
	Customers []RankedCustomer `json:"customers"`
}

// TopCustomers ranks customers by revenue, descending, truncated to n.
// Unlike the full scan, the ranking requires at least one order.
func (e *Engine) TopCustomers(ctx context.Context, n int) (*TopCustomersResult, error) {
	scan, err := e.CustomerMetrics(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]CustomerMetric, 0, len(scan.Metrics))
	for _, m := range scan.Metrics {
		if m.OrderCount > 0 {
			ranked = append(ranked, m)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].TotalSpent.Equal(ranked[j].TotalSpent) {
			return ranked[i].TotalSpent.GreaterThan(ranked[j].TotalSpent)
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	result := &TopCustomersResult{
		RunInfo:   scan.RunInfo,
		Customers: make([]RankedCustomer, len(ranked)),
	}
	for i, m := range ranked {
		result.Customers[i] = RankedCustomer{Rank: i + 1, CustomerMetric: m}
	}
	return result, nil
}

// ProductRank is one entry of the top-products ranking.
type ProductRank struct {
	Rank         int             `json:"rank"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"order_count"`
}

// TopProductsResult is a revenue-descending product ranking.
type TopProductsResult struct {
	RunInfo
	Products []ProductRank `json:"products"`
}

// TopProducts ranks products by accumulated line revenue, descending,
// truncated to n.
func (e *Engine) TopProducts(ctx context.Context, n int) (*TopProductsResult, error) {
	products, err := e.products.All(ctx, shared.Spec{
		Sort: []shared.SortField{{Field: "product_id"}},
	})
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	names := make(map[string]string, len(products))
	for _, p := range products {
		key := strconv.FormatInt(p.ProductID, 10)
		names[key] = p.ProductName
		acc.ensure(key)
	}

	g, _ := e.group(ctx)
	for _, p := range products {
		productID := p.ProductID
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			dctx, cancel := e.dependentCtx(ctx)
			lines, err := e.lines.FindByProduct(dctx, productID)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					e.logger.Warn("product lines fetch failed, substituting zero",
						zap.Int64("product_id", productID), zap.Error(err))
					acc.warn()
				}
				return nil
			}
			key := strconv.FormatInt(productID, 10)
			for _, l := range lines {
				acc.add(key, l.Quantity, lineRevenue(l), l.OrderID)
			}
			return nil
		})
	}
	_ = g.Wait()

	ranks := make([]ProductRank, 0, len(products))
	for _, p := range products {
		key := strconv.FormatInt(p.ProductID, 10)
		b := acc.buckets[key]
		ranks = append(ranks, ProductRank{
			ProductID:    p.ProductID,
			ProductName:  names[key],
			QuantitySold: b.quantity,
			Revenue:      b.revenue,
			OrderCount:   int64(len(b.orders)),
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if !ranks[i].Revenue.Equal(ranks[j].Revenue) {
			return ranks[i].Revenue.GreaterThan(ranks[j].Revenue)
		}
		return ranks[i].ProductID < ranks[j].ProductID
	})
	if n > 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}

	return &TopProductsResult{
		RunInfo:  RunInfo{Warnings: acc.warnings, Partial: ctx.Err() != nil},
		Products: ranks,
	}, nil
}

// CategoryMetric is one category's accumulated sales activity.
type CategoryMetric struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ProductCount int64           `json:"product_count"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// CategoryBreakdownResult is the per-category revenue breakdown.
type CategoryBreakdownResult struct {
	RunInfo
	Categories []CategoryMetric `json:"categories"`
}

// CategoryBreakdown joins categories to products to order lines client-side
// and accumulates revenue per category. Every category appears, zero-valued
// when nothing in it ever sold.
func (e *Engine) CategoryBreakdown(ctx context.Context) (*CategoryBreakdownResult, error) {
	categories, err := e.categories.All(ctx, shared.Spec{
		Sort: []shared.SortField{{Field: "category_id"}},
	})
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	productCounts := make(map[string]int64, len(categories))
	var countsMu sync.Mutex

	g, _ := e.group(ctx)
	for _, c := range categories {
		categoryID := c.CategoryID
		key := strconv.FormatInt(categoryID, 10)
		acc.ensure(key)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			dctx, cancel := e.dependentCtx(ctx)
			products, err := e.products.All(dctx, shared.Spec{
				Filters: map[string]shared.FilterValue{"category_id": shared.Equals(categoryID)},
				Sort:    []shared.SortField{{Field: "product_id"}},
			})
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					e.logger.Warn("category products fetch failed, substituting zero",
						zap.Int64("category_id", categoryID), zap.Error(err))
					acc.warn()
				}
				return nil
			}
			countsMu.Lock()
			productCounts[key] = int64(len(products))
			countsMu.Unlock()

			for _, p := range products {
				if ctx.Err() != nil {
					return nil
				}
				lctx, lcancel := e.dependentCtx(ctx)
				lines, err := e.lines.FindByProduct(lctx, p.ProductID)
				lcancel()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					e.logger.Warn("product lines fetch failed, substituting zero",
						zap.Int64("product_id", p.ProductID), zap.Error(err))
					acc.warn()
					continue
				}
				for _, l := range lines {
					acc.add(key, l.Quantity, lineRevenue(l), l.OrderID)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &CategoryBreakdownResult{
		RunInfo:    RunInfo{Warnings: acc.warnings, Partial: ctx.Err() != nil},
		Categories: make([]CategoryMetric, 0, len(categories)),
	}
	for _, c := range categories {
		key := strconv.FormatInt(c.CategoryID, 10)
		b := acc.buckets[key]
		result.Categories = append(result.Categories, CategoryMetric{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			ProductCount: productCounts[key],
			QuantitySold: b.quantity,
			Revenue:      b.revenue,
		})
	}
	sort.SliceStable(result.Categories, func(i, j int) bool {
		if !result.Categories[i].Revenue.Equal(result.Categories[j].Revenue) {
			return result.Categories[i].Revenue.GreaterThan(result.Categories[j].Revenue)
		}
		return result.Categories[i].CategoryID < result.Categories[j].CategoryID
	})
	return result, nil
}

// reduceLines sums quantity and revenue over an order's lines.
func reduceLines(lines []trade.OrderLine) (int64, decimal.Decimal) {
	var qty int64
	revenue := decimal.Zero
	for _, l := range lines {
		qty += l.Quantity
		revenue = revenue.Add(lineRevenue(l))
	}
	return qty, revenue
}

// lineRevenue is the exact revenue contribution of one order line.
func lineRevenue(l trade.OrderLine) decimal.Decimal {
	return finance.LineTotal(finance.NewLine(l.UnitPrice, l.Quantity, l.Discount))
}
