package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"route-planner-service/internal/adapters/cache"
	"route-planner-service/internal/adapters/geocoding"
	"route-planner-service/internal/adapters/postal"
	"route-planner-service/internal/api"
	"route-planner-service/internal/config"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/gateway"
	"route-planner-service/internal/platform/db"
	"route-planner-service/internal/platform/httpclient"
	"route-planner-service/internal/platform/logging"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (stores, postal providers, Google) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer st.Close()

	// Postal lookups are unpaced; calls toward the paid geocoder are paced.
	outbound := httpclient.New(httpclient.Options{Timeout: cfg.UpstreamTimeout})
	googleClient := httpclient.New(httpclient.Options{
		Timeout:           cfg.UpstreamTimeout,
		RequestsPerSecond: cfg.UpstreamRPS,
		Burst:             1,
	})

	google := geocoding.NewGoogleGeocoder(googleClient, cfg.GeocodeAPIURL, cfg.GoogleMapsAPIKey)
	if !google.Configured() {
		slog.Warn("GOOGLE_MAPS_API_KEY is not set; /geocode will answer with a configuration error")
	}

	limiter := gateway.NewLimiter(st.rate, cfg.RateLimitMax, cfg.RateLimitWindow)
	gw := gateway.NewService(limiter, st.gatewayCache, google, cfg.UpstreamTimeout)

	var geocoder ports.AddressGeocoder = gateway.LocalGeocoder{Service: gw, ClientID: "resolver"}
	if cfg.GatewayURL != "" {
		slog.Info("resolver uses a remote gateway", "url", cfg.GatewayURL)
		geocoder = geocoding.NewGatewayClient(outbound, cfg.GatewayURL)
	}

	resolver, err := services.NewResolver(services.ResolverConfig{
		Primary:   postal.NewBrasilAPI(outbound, cfg.BrasilAPIURL),
		Secondary: postal.NewViaCEP(outbound, cfg.ViaCEPURL),
		Geocoder:  geocoder,
		Cache:     st.resolverCache,
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Multiplier:  cfg.RetryMultiplier,
		},
		Timeout:     cfg.UpstreamTimeout,
		Concurrency: cfg.BatchConcurrency,
	})
	if err != nil {
		log.Fatalf("build resolver: %v", err)
	}

	planner := services.NewPlanner(resolver, services.NewGeoDistance(barriers(cfg)), cfg.AverageSpeedKmh)

	router := api.NewRouter(api.Dependencies{
		Gateway:  gw,
		Resolver: resolver,
		Planner:  planner,
	})

	// Timeouts allow for a cold-cache batch (several upstream calls with backoff).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "cache_backend", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
	slog.Info("server stopped")
}

type stores struct {
	gatewayCache  ports.GeocodeStore
	resolverCache ports.GeocodeStore
	rate          ports.RateLimitStore
	closers       []func() error
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn("close store failed", "err", err)
		}
	}
}

// openStores builds the cache and rate-limit stores for the configured backend.
// Shared backends hold both caches in one table or keyspace; keys are prefixed
// per cache and each prefix keeps its own ceiling.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{rate: cache.NewMemoryRateStore()}

	switch cfg.CacheBackend {
	case config.BackendMemory:
		st.gatewayCache = cache.NewMemoryGeocodeStore(cfg.CacheTTL, cfg.GatewayCacheMaxEntries)
		st.resolverCache = cache.NewMemoryGeocodeStore(cfg.CacheTTL, cfg.ResolverCacheMaxEntries)

	case config.BackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		shared := cache.NewRedisGeocodeStore(client, cfg.CacheTTL).
			WithCeiling(gateway.CacheKeyPrefix, cfg.GatewayCacheMaxEntries).
			WithCeiling(services.PostalCacheKeyPrefix, cfg.ResolverCacheMaxEntries)
		st.gatewayCache, st.resolverCache = shared, shared
		st.rate = cache.NewRedisRateStore(client)

	case config.BackendPostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, conn.Close)
		if err := cache.InitSchema(conn); err != nil {
			st.Close()
			return nil, err
		}
		shared := cache.NewSQLGeocodeCache(conn, cfg.CacheTTL).
			WithCeiling(gateway.CacheKeyPrefix, cfg.GatewayCacheMaxEntries).
			WithCeiling(services.PostalCacheKeyPrefix, cfg.ResolverCacheMaxEntries)
		st.gatewayCache, st.resolverCache = shared, shared

	case config.BackendSqlite:
		if err := os.MkdirAll(filepath.Dir(cfg.SqlitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		conn, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, conn.Close)
		if err := cache.InitSchema(conn); err != nil {
			st.Close()
			return nil, err
		}
		shared := cache.NewSqliteGeocodeCache(conn, cfg.CacheTTL).
			WithCeiling(gateway.CacheKeyPrefix, cfg.GatewayCacheMaxEntries).
			WithCeiling(services.PostalCacheKeyPrefix, cfg.ResolverCacheMaxEntries)
		st.gatewayCache, st.resolverCache = shared, shared

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	return st, nil
}

func barriers(cfg *config.Config) []services.BarrierRegion {
	if len(cfg.Barriers) == 0 {
		return services.DefaultBarriers
	}

	out := make([]services.BarrierRegion, 0, len(cfg.Barriers))
	for _, b := range cfg.Barriers {
		out = append(out, services.BarrierRegion{
			Name:     b.Name,
			AnchorA:  domain.Coordinates{Lat: b.ALat, Lng: b.ALng},
			AnchorB:  domain.Coordinates{Lat: b.BLat, Lng: b.BLng},
			Factor:   b.Factor,
			RadiusKm: b.RadiusKm,
		})
	}
	return out
}
