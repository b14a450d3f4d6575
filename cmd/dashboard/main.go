// Command dashboard wires the query core together and prints the business
// dashboard as JSON: summary totals, top customers and products, category
// breakdown, monthly revenue trend, and reorder alerts. It is the reference
// wiring for embedding the core; UI surfaces live elsewhere.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/northwind/backend/internal/application/report"
	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/backend"
	"github.com/northwind/backend/internal/infrastructure/cache"
	"github.com/northwind/backend/internal/infrastructure/config"
	"github.com/northwind/backend/internal/infrastructure/logger"
	"github.com/northwind/backend/internal/infrastructure/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, log = logger.WithRequestID(logger.WithContext(ctx, log), log, uuid.NewString())

	pageCache := openPageCache(cfg, log)
	if pageCache != nil {
		defer func() { _ = pageCache.Close() }()
	}
	cacheKey, err := cache.QueryKey(map[string]any{
		"backend": cfg.Backend.Kind,
		"top_n":   cfg.Report.TopN,
	})
	if err == nil && pageCache != nil {
		if payload, hit, cerr := pageCache.Get(ctx, dashboardCacheEntity, cacheKey); cerr == nil && hit {
			log.Info("serving cached dashboard")
			_, _ = os.Stdout.Write(payload)
			return
		}
	}

	adapter, err := buildAdapter(cfg, log)
	if err != nil {
		log.Fatal("failed to construct backend adapter", zap.Error(err))
	}

	customers := persistence.NewCustomerRepository(adapter, log)
	products := persistence.NewProductRepository(adapter, log)
	categories := persistence.NewCategoryRepository(adapter, log)
	orders := persistence.NewOrderRepository(adapter, log)

	engine := report.NewEngine(customers, products, categories, orders, log,
		report.WithFanout(cfg.Report.Fanout),
		report.WithCallTimeout(time.Duration(cfg.Report.CallTimeoutSeconds)*time.Second),
	)

	log.Info("computing dashboard",
		zap.String("backend", cfg.Backend.Kind),
		zap.Int("fanout", cfg.Report.Fanout))

	dashboard, err := buildDashboard(ctx, engine, cfg.Report.TopN)
	if err != nil {
		log.Fatal("dashboard computation failed", zap.Error(err))
	}
	if w := dashboard.Warnings(); w > 0 {
		log.Warn("dashboard computed with degraded aggregates",
			zap.Error(&shared.PartialAggregationError{Warnings: w}))
	}

	payload, err := json.MarshalIndent(dashboard, "", "  ")
	if err != nil {
		log.Fatal("failed to encode dashboard", zap.Error(err))
	}
	payload = append(payload, '\n')

	if pageCache != nil && dashboard.Warnings() == 0 {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		if cerr := pageCache.Set(ctx, dashboardCacheEntity, cacheKey, payload, ttl); cerr != nil {
			log.Warn("failed to cache dashboard", zap.Error(cerr))
		}
	}
	_, _ = os.Stdout.Write(payload)
}

const dashboardCacheEntity = "dashboard"

// openPageCache connects the Redis page cache when enabled. The dashboard is
// a one-shot process, so the in-memory fallback is pointless here; without
// Redis it simply computes fresh.
func openPageCache(cfg *config.Config, log *zap.Logger) cache.PageCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.NewPageCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(false),
	).Create()
	if err != nil {
		log.Info("dashboard cache disabled", zap.Error(err))
		return nil
	}
	return store
}

func buildAdapter(cfg *config.Config, log *zap.Logger) (backend.Adapter, error) {
	switch cfg.Backend.Kind {
	case config.BackendSQLite:
		db, err := backend.OpenSQLite(cfg.Backend.SQLitePath,
			logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
		if err != nil {
			return nil, err
		}
		return backend.NewSQLiteAdapter(db, log), nil
	case config.BackendPostgREST:
		return backend.NewPostgRESTAdapter(&backend.GatewayConfig{
			BaseURL:        cfg.Backend.GatewayURL,
			APIKey:         cfg.Backend.GatewayAPIKey,
			TimeoutSeconds: cfg.Backend.TimeoutSeconds,
			FetchChunk:     cfg.Backend.FetchChunk,
		}, log)
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}

// Dashboard is the printed result. Revenue figures are rounded to two
// decimal places here, at the display boundary; the aggregates underneath
// stay exact.
type Dashboard struct {
	GeneratedAt string                          `json:"generated_at"`
	Summary     *report.Summary                 `json:"summary"`
	Customers   *report.TopCustomersResult      `json:"top_customers"`
	Products    *report.TopProductsResult       `json:"top_products"`
	Categories  *report.CategoryBreakdownResult `json:"category_breakdown"`
	Trend       *report.RevenueTrendResult      `json:"revenue_trend"`
	Reorders    *report.ReorderAlertsResult     `json:"reorder_alerts"`
}

// Warnings sums the warning counts across every aggregate on the dashboard.
func (d *Dashboard) Warnings() int {
	return d.Summary.Warnings + d.Customers.Warnings + d.Products.Warnings +
		d.Categories.Warnings + d.Trend.Warnings + d.Reorders.Warnings
}

func buildDashboard(ctx context.Context, engine *report.Engine, topN int) (*Dashboard, error) {
	summary, err := engine.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	topCustomers, err := engine.TopCustomers(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	topProducts, err := engine.TopProducts(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	categories, err := engine.CategoryBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	trend, err := engine.RevenueTrend(ctx, "", "", report.BucketMonth)
	if err != nil {
		return nil, fmt.Errorf("revenue trend: %w", err)
	}
	reorders, err := engine.ReorderAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reorder alerts: %w", err)
	}

	roundSummary(summary)
	for i := range topCustomers.Customers {
		topCustomers.Customers[i].TotalSpent = topCustomers.Customers[i].TotalSpent.Round(2)
	}
	for i := range topProducts.Products {
		topProducts.Products[i].Revenue = topProducts.Products[i].Revenue.Round(2)
	}
	for i := range categories.Categories {
		categories.Categories[i].Revenue = categories.Categories[i].Revenue.Round(2)
	}
	for i := range trend.Points {
		trend.Points[i].Revenue = trend.Points[i].Revenue.Round(2)
	}

	return &Dashboard{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:     summary,
		Customers:   topCustomers,
		Products:    topProducts,
		Categories:  categories,
		Trend:       trend,
		Reorders:    reorders,
	}, nil
}

func roundSummary(s *report.Summary) {
	s.TotalRevenue = s.TotalRevenue.Round(2)
	s.AverageOrderValue = s.AverageOrderValue.Round(2)
}
