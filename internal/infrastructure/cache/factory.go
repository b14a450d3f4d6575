package cache

import (
	"go.uber.org/zap"

	"github.com/northwind/backend/internal/infrastructure/config"
)

// PageCacheFactory creates page caches based on configuration.
type PageCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PageCacheFactoryOption is a functional option for configuring the factory.
type PageCacheFactoryOption func(*PageCacheFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) PageCacheFactoryOption {
	return func(f *PageCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) PageCacheFactoryOption {
	return func(f *PageCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPageCacheFactory creates a new factory.
func NewPageCacheFactory(cfg config.RedisConfig, opts ...PageCacheFactoryOption) *PageCacheFactory {
	f := &PageCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the page cache, preferring Redis and degrading to the
// in-memory cache when allowed.
func (f *PageCacheFactory) Create() (PageCache, error) {
	store, err := NewRedisPageCache(RedisConfig{
		Addr:     f.redisConfig.RedisAddr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("page cache using redis", zap.String("addr", f.redisConfig.RedisAddr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, err
	}
	f.logger.Warn("redis unavailable, falling back to in-memory page cache", zap.Error(err))
	return NewInMemoryPageCache(), nil
}
