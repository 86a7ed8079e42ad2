package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minAddressLength = 3
	maxAddressLength = 200
)

// CacheKeyPrefix starts every gateway cache key.
const CacheKeyPrefix = "addr:"

var addressPattern = regexp.MustCompile(`^[\p{L}\p{N}\s,.\-/#'()ºª°&:;]+$`)

// Service is the geocoding gateway: the only component that holds the
// provider credential. Each request is rate limited per client, validated,
// served from cache when possible, and otherwise forwarded upstream.
type Service struct {
	limiter  *Limiter
	cache    ports.GeocodeStore
	upstream ports.UpstreamGeocoder
	timeout  time.Duration
	now      func() time.Time
}

func NewService(limiter *Limiter, cache ports.GeocodeStore, upstream ports.UpstreamGeocoder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{limiter: limiter, cache: cache, upstream: upstream, timeout: timeout, now: time.Now}
}

// NormalizeAddress trims address and checks its length and characters.
func NormalizeAddress(address string) (string, error) {
	a := strings.TrimSpace(address)
	n := utf8.RuneCountInString(a)
	switch {
	case n < minAddressLength:
		return "", fmt.Errorf("address must be at least %d characters: %w", minAddressLength, domain.ErrInvalidInput)
	case n > maxAddressLength:
		return "", fmt.Errorf("address must be at most %d characters: %w", maxAddressLength, domain.ErrInvalidInput)
	case !addressPattern.MatchString(a):
		return "", fmt.Errorf("address contains unsupported characters: %w", domain.ErrInvalidInput)
	}
	return a, nil
}

func cacheKey(address string) string {
	return CacheKeyPrefix + strings.ToLower(strings.TrimSpace(address))
}

// Geocode answers one address for clientID.
//
// Not-found answers (including upstream HTTP failures) are responses, and are
// cached. Errors: *domain.RateLimitError, domain.ErrInvalidInput,
// domain.ErrConfiguration, domain.ErrUpstreamTimeout (not cached), or
// domain.ErrUpstreamUnavailable.
func (s *Service) Geocode(ctx context.Context, address, clientID string) (_ domain.GeocodeResponse, err error) {
	defer obs.Time(ctx, "gateway.Geocode")(&err)

	if err := s.limiter.Allow(ctx, clientID); err != nil {
		return domain.GeocodeResponse{}, err
	}

	addr, err := NormalizeAddress(address)
	if err != nil {
		return domain.GeocodeResponse{}, err
	}

	key := cacheKey(addr)
	if entry, ok := s.cached(ctx, key); ok {
		return domain.GeocodeResponse{Status: entry.Status, Matches: entry.Matches}, nil
	}

	if !s.upstream.Configured() {
		slog.ErrorContext(ctx, "geocoding provider key is not configured", "req_id", obs.RequestID(ctx))
		return domain.GeocodeResponse{}, fmt.Errorf("gateway: %w", domain.ErrConfiguration)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.upstream.Geocode(callCtx, addr)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, domain.ErrUpstreamTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
		}
		return domain.GeocodeResponse{}, fmt.Errorf("gateway: %w", err)
	}

	if resp.Status == "" {
		resp.Status = domain.GeocodeStatusUpstreamError
	}
	if err := s.cache.Put(ctx, key, domain.CacheEntry{
		Found:    resp.Found(),
		Status:   resp.Status,
		Matches:  resp.Matches,
		StoredAt: s.now(),
	}); err != nil {
		slog.WarnContext(ctx, "gateway cache write failed", "req_id", obs.RequestID(ctx), "key", key, "err", err)
	}

	return resp, nil
}

func (s *Service) cached(ctx context.Context, key string) (domain.CacheEntry, bool) {
	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "gateway cache read failed", "req_id", obs.RequestID(ctx), "key", key, "err", err)
		obs.CacheLookups.WithLabelValues("gateway", "error").Inc()
		return domain.CacheEntry{}, false
	}
	switch {
	case !ok:
		obs.CacheLookups.WithLabelValues("gateway", "miss").Inc()
	case !entry.Found:
		obs.CacheLookups.WithLabelValues("gateway", "negative_hit").Inc()
	default:
		obs.CacheLookups.WithLabelValues("gateway", "hit").Inc()
	}
	return entry, ok
}

// LocalGeocoder lets in-process callers use the gateway as a ports.AddressGeocoder.
// Calls are charged to the client id on ctx (see obs.WithClientID); ClientID
// is used only when ctx carries none, e.g. for background work.
type LocalGeocoder struct {
	Service  *Service
	ClientID string
}

func (g LocalGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResponse, error) {
	id := obs.ClientID(ctx)
	if id == "" {
		id = g.ClientID
	}
	return g.Service.Geocode(ctx, address, id)
}
