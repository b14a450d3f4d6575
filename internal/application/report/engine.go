// Package report computes cross-entity business aggregates the backends
// cannot produce server-side: neither backend offers joins or grouped
// aggregation, so the engine fans out fine-grained repository queries and
// reduces them client-side through the financial calculator.
package report

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/persistence"
)

const defaultFanout = 8

// Engine composes repository calls into aggregates. The per-row dependent
// fetches are independent and issued concurrently up to a bounded fan-out;
// reduction is a commutative sum, so their ordering is irrelevant.
type Engine struct {
	customers   *persistence.CustomerRepository
	products    *persistence.ProductRepository
	categories  *persistence.CategoryRepository
	orders      *persistence.OrderRepository
	lines       *persistence.OrderLineRepository
	logger      *zap.Logger
	fanout      int
	callTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithFanout bounds the number of concurrent dependent fetches.
func WithFanout(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.fanout = n
		}
	}
}

// WithCallTimeout applies a timeout to each individual dependent fetch. A
// slow dependent times out alone and degrades to a zero contribution instead
// of failing the whole aggregate.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.callTimeout = d
	}
}

// NewEngine creates an aggregation engine over the given repositories.
func NewEngine(
	customers *persistence.CustomerRepository,
	products *persistence.ProductRepository,
	categories *persistence.CategoryRepository,
	orders *persistence.OrderRepository,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		customers:  customers,
		products:   products,
		categories: categories,
		orders:     orders,
		lines:      orders.Lines(),
		logger:     logger.Named("report"),
		fanout:     defaultFanout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunInfo reports how an aggregation run completed. Warnings counts
// dependents substituted by zero contributions; Partial marks a run cut
// short by cancellation. Neither is a hard failure.
type RunInfo struct {
	Warnings int  `json:"warnings"`
	Partial  bool `json:"partial"`
}

// Err reports degradation as a PartialAggregationError once any dependent
// was zero-substituted. The result stays usable either way; callers that
// care about exactness inspect this, callers that do not ignore it.
func (r RunInfo) Err() error {
	if r.Warnings == 0 {
		return nil
	}
	return &shared.PartialAggregationError{Warnings: r.Warnings}
}

// accumulator is the transient per-run reduction state, keyed by the
// grouping key. It lives for one aggregation call and is never shared.
type accumulator struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	warnings int
}

type bucket struct {
	quantity int64
	revenue  decimal.Decimal
	orders   map[int64]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{buckets: make(map[string]*bucket)}
}

// ensure registers a zero-valued bucket for a driving row, so rows with zero
// dependents appear in full scans instead of being omitted.
func (a *accumulator) ensure(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bucketLocked(key)
}

func (a *accumulator) add(key string, quantity int64, revenue decimal.Decimal, orderID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.bucketLocked(key)
	b.quantity += quantity
	b.revenue = b.revenue.Add(revenue)
	b.orders[orderID] = struct{}{}
}

func (a *accumulator) bucketLocked(key string) *bucket {
	b, ok := a.buckets[key]
	if !ok {
		b = &bucket{revenue: decimal.Zero, orders: make(map[int64]struct{})}
		a.buckets[key] = b
	}
	return b
}

func (a *accumulator) warn() {
	a.mu.Lock()
	a.warnings++
	a.mu.Unlock()
}

// group runs fn per driving row with bounded concurrency. Workers never
// propagate errors through the group: dependent failures degrade to zero
// contributions, and cancellation stops new fetches without discarding what
// has already accumulated.
func (e *Engine) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g := &errgroup.Group{}
	g.SetLimit(e.fanout)
	return g, ctx
}

// dependentCtx derives the context for one dependent fetch, applying the
// per-call timeout when configured.
func (e *Engine) dependentCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout > 0 {
		return context.WithTimeout(ctx, e.callTimeout)
	}
	return ctx, func() {}
}
