package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend kinds selectable at construction time.
const (
	BackendSQLite    = "sqlite"
	BackendPostgREST = "postgrest"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Report  ReportConfig
	Log     LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// BackendConfig selects and configures the storage backend
type BackendConfig struct {
	Kind           string // sqlite or postgrest
	SQLitePath     string
	GatewayURL     string
	GatewayAPIKey  string
	TimeoutSeconds int
	FetchChunk     int
}

// RedisConfig holds Redis connection settings for the page cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig tunes the page-result cache
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
}

// ReportConfig tunes the aggregation engine
type ReportConfig struct {
	Fanout             int
	CallTimeoutSeconds int
	TopN               int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration from config.toml and the environment.
// Priority (highest to lowest):
// 1. Environment variables with NORTHWIND_ prefix (e.g., NORTHWIND_BACKEND_KIND)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NORTHWIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Backend: BackendConfig{
			Kind:           v.GetString("backend.kind"),
			SQLitePath:     v.GetString("backend.sqlite_path"),
			GatewayURL:     v.GetString("backend.gateway_url"),
			GatewayAPIKey:  v.GetString("backend.gateway_api_key"),
			TimeoutSeconds: v.GetInt("backend.timeout_seconds"),
			FetchChunk:     v.GetInt("backend.fetch_chunk"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Enabled:    v.GetBool("cache.enabled"),
			TTLSeconds: v.GetInt("cache.ttl_seconds"),
		},
		Report: ReportConfig{
			Fanout:             v.GetInt("report.fanout"),
			CallTimeoutSeconds: v.GetInt("report.call_timeout_seconds"),
			TopN:               v.GetInt("report.top_n"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "northwind")
	v.SetDefault("app.env", "development")
	v.SetDefault("backend.kind", BackendSQLite)
	v.SetDefault("backend.sqlite_path", "northwind.db")
	v.SetDefault("backend.timeout_seconds", 30)
	v.SetDefault("backend.fetch_chunk", 1000)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("report.fanout", 8)
	v.SetDefault("report.call_timeout_seconds", 10)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("backend.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgREST:
		if c.Backend.GatewayURL == "" {
			return fmt.Errorf("backend.gateway_url is required for the postgrest backend")
		}
	default:
		return fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}
	return nil
}

// RedisAddr returns the host:port address for the Redis client.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
