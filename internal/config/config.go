package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSqlite   = "sqlite"
)

// Config holds all service configuration.
type Config struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	GoogleMapsAPIKey string `mapstructure:"google_maps_api_key"`
	GeocodeAPIURL    string `mapstructure:"geocode_api_url"`
	BrasilAPIURL     string `mapstructure:"brasilapi_url"`
	ViaCEPURL        string `mapstructure:"viacep_url"`
	GatewayURL       string `mapstructure:"gateway_url"`

	CacheBackend            string        `mapstructure:"cache_backend"`
	RedisAddr               string        `mapstructure:"redis_addr"`
	DatabaseURL             string        `mapstructure:"database_url"`
	SqlitePath              string        `mapstructure:"sqlite_path"`
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`
	GatewayCacheMaxEntries  int           `mapstructure:"gateway_cache_max_entries"`
	ResolverCacheMaxEntries int           `mapstructure:"resolver_cache_max_entries"`

	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`

	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	UpstreamRPS     float64       `mapstructure:"upstream_rps"`

	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	RetryMultiplier  float64       `mapstructure:"retry_multiplier"`

	BatchConcurrency int     `mapstructure:"batch_concurrency"`
	AverageSpeedKmh  float64 `mapstructure:"average_speed_kmh"`

	Barriers []BarrierConfig `mapstructure:"barriers"`
}

// BarrierConfig describes one barrier region pair in config.yaml.
type BarrierConfig struct {
	Name     string  `mapstructure:"name"`
	ALat     float64 `mapstructure:"a_lat"`
	ALng     float64 `mapstructure:"a_lng"`
	BLat     float64 `mapstructure:"b_lat"`
	BLng     float64 `mapstructure:"b_lng"`
	Factor   float64 `mapstructure:"factor"`
	RadiusKm float64 `mapstructure:"radius_km"`
}

var defaults = map[string]any{
	"port":                       "8080",
	"log_level":                  "info",
	"log_format":                 "json",
	"google_maps_api_key":        "",
	"geocode_api_url":            "https://maps.googleapis.com/maps/api/geocode/json",
	"brasilapi_url":              "https://brasilapi.com.br/api/cep/v2",
	"viacep_url":                 "https://viacep.com.br/ws",
	"gateway_url":                "",
	"cache_backend":              BackendMemory,
	"redis_addr":                 "localhost:6379",
	"database_url":               "",
	"sqlite_path":                "data/cache.db",
	"cache_ttl":                  time.Hour,
	"gateway_cache_max_entries":  100,
	"resolver_cache_max_entries": 1000,
	"rate_limit_max":             10,
	"rate_limit_window":          time.Minute,
	"upstream_timeout":           5 * time.Second,
	"upstream_rps":               10.0,
	"retry_max_attempts":         3,
	"retry_base_delay":           time.Second,
	"retry_multiplier":           2.0,
	"batch_concurrency":          4,
	"average_speed_kmh":          40.0,
}

// Load reads .env (optional), config.yaml (optional) and the environment.
// Environment variables use the upper-case key, e.g. RATE_LIMIT_MAX.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
		// AutomaticEnv only applies to keys viper already knows about.
		_ = v.BindEnv(k, strings.ToUpper(k))
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that settings are present and sane.
// A missing GOOGLE_MAPS_API_KEY is not an error here: the gateway reports it per request.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, "port is required")
	}

	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, "redis_addr is required for the redis cache backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "database_url is required for the postgres cache backend")
		}
	case BackendSqlite:
		if c.SqlitePath == "" {
			errs = append(errs, "sqlite_path is required for the sqlite cache backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache_backend must be one of memory, redis, postgres, sqlite; got %q", c.CacheBackend))
	}

	if c.CacheTTL <= 0 {
		errs = append(errs, "cache_ttl must be positive")
	}
	if c.GatewayCacheMaxEntries <= 0 || c.ResolverCacheMaxEntries <= 0 {
		errs = append(errs, "cache max entries must be positive")
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, "rate_limit_max must be positive")
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, "rate_limit_window must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, "upstream_timeout must be positive")
	}
	if c.UpstreamRPS <= 0 {
		errs = append(errs, "upstream_rps must be positive")
	}
	if c.RetryMaxAttempts < 1 {
		errs = append(errs, "retry_max_attempts must be at least 1")
	}
	if c.RetryMultiplier < 1 {
		errs = append(errs, "retry_multiplier must be at least 1")
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, "batch_concurrency must be at least 1")
	}
	if c.AverageSpeedKmh <= 0 {
		errs = append(errs, "average_speed_kmh must be positive")
	}
	for i, b := range c.Barriers {
		if b.Factor < 1 || b.RadiusKm <= 0 {
			errs = append(errs, fmt.Sprintf("barriers[%d] (%s): factor must be >= 1 and radius_km positive", i, b.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
