package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/domain/trade"
)

// TrendBucket selects the time-bucket granularity of a revenue trend.
type TrendBucket string

const (
	BucketDay   TrendBucket = "day"
	BucketWeek  TrendBucket = "week"
	BucketMonth TrendBucket = "month"
)

// TrendPoint is one time bucket of the revenue trend.
type TrendPoint struct {
	Bucket     string          `json:"bucket"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// RevenueTrendResult is a bucketed revenue series, ascending by bucket key.
type RevenueTrendResult struct {
	RunInfo
	Points []TrendPoint `json:"points"`
}

// RevenueTrend accumulates revenue per time bucket over the orders in
// [from, to]. Each order's lines land in exactly one bucket, keyed by the
// order's own date. Week buckets start on Sunday in UTC, so bucket keys are
// deterministic and locale-independent.
func (e *Engine) RevenueTrend(ctx context.Context, from, to string, bucket TrendBucket) (*RevenueTrendResult, error) {
	if bucket != BucketDay && bucket != BucketWeek && bucket != BucketMonth {
		return nil, shared.InvalidQueryError("unknown trend bucket " + string(bucket))
	}

	orders, err := e.ordersInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	g, _ := e.group(ctx)
	for _, o := range orders {
		order := o
		key, ok := bucketKey(order.OrderDate, bucket)
		if !ok {
			e.logger.Warn("order has unparseable date, substituting zero",
				zap.Int64("order_id", order.OrderID), zap.String("order_date", order.OrderDate))
			acc.warn()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			dctx, cancel := e.dependentCtx(ctx)
			lines, err := e.lines.FindByOrder(dctx, order.OrderID)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					e.logger.Warn("order lines fetch failed, substituting zero",
						zap.Int64("order_id", order.OrderID), zap.Error(err))
					acc.warn()
				}
				return nil
			}
			qty, revenue := reduceLines(lines)
			acc.add(key, qty, revenue, order.OrderID)
			return nil
		})
	}
	_ = g.Wait()

	result := &RevenueTrendResult{
		RunInfo: RunInfo{Warnings: acc.warnings, Partial: ctx.Err() != nil},
		Points:  make([]TrendPoint, 0, len(acc.buckets)),
	}
	for key, b := range acc.buckets {
		result.Points = append(result.Points, TrendPoint{
			Bucket:     key,
			OrderCount: int64(len(b.orders)),
			Revenue:    b.revenue,
		})
	}
	sort.Slice(result.Points, func(i, j int) bool {
		return result.Points[i].Bucket < result.Points[j].Bucket
	})
	return result, nil
}

// ordersInRange fetches the driving set of a trend; its failure is fatal to
// the aggregate.
func (e *Engine) ordersInRange(ctx context.Context, from, to string) ([]trade.Order, error) {
	filters := map[string]shared.FilterValue{}
	var min, max any
	if from != "" {
		min = from
	}
	if to != "" {
		max = to
	}
	if min != nil || max != nil {
		filters["order_date"] = shared.Range(min, max)
	}
	return e.orders.All(ctx, shared.Spec{
		Filters: filters,
		Sort:    []shared.SortField{{Field: "order_id"}},
	})
}

// bucketKey derives the stable bucket key for an order date.
func bucketKey(orderDate string, bucket TrendBucket) (string, bool) {
	t, ok := trade.ParseOrderDate(orderDate)
	if !ok {
		return "", false
	}
	switch bucket {
	case BucketDay:
		return t.Format("2006-01-02"), true
	case BucketWeek:
		return weekStart(t).Format("2006-01-02"), true
	case BucketMonth:
		return t.Format("2006-01"), true
	default:
		return "", false
	}
}

// weekStart returns the Sunday beginning the calendar week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	return t.AddDate(0, 0, -int(t.Weekday()))
}
