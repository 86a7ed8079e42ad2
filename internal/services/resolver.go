package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
	"time"
)

const postalCodeLength = 8

// PostalCacheKeyPrefix starts every resolver cache key.
const PostalCacheKeyPrefix = "cep:"

// ResolverConfig wires a Resolver. Secondary may be nil.
type ResolverConfig struct {
	Primary   ports.PostalCodeProvider
	Secondary ports.PostalCodeProvider
	Geocoder  ports.AddressGeocoder
	Cache     ports.GeocodeStore
	Retry     RetryPolicy
	// Timeout bounds each outbound call. Zero means 5s.
	Timeout time.Duration
	// Concurrency bounds ResolveBatch. Zero means 4.
	Concurrency int
	Now         func() time.Time
}

// Resolver turns postal codes into coordinates.
//
// It coordinates:
//   - Input validation and normalization
//   - Positive and negative caching
//   - Primary and secondary postal-code providers
//   - Free-text geocoding through the gateway, with retry/backoff
//
// The resolver is safe for concurrent use. Concurrent misses on the same
// code may both reach the providers; the last write wins in the cache.
type Resolver struct {
	primary     ports.PostalCodeProvider
	secondary   ports.PostalCodeProvider
	geocoder    ports.AddressGeocoder
	cache       ports.GeocodeStore
	retry       RetryPolicy
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Primary == nil {
		return nil, errors.New("new resolver: primary postal provider is required")
	}
	if cfg.Geocoder == nil {
		return nil, errors.New("new resolver: geocoder is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("new resolver: cache is required")
	}

	r := &Resolver{
		primary:     cfg.Primary,
		secondary:   cfg.Secondary,
		geocoder:    cfg.Geocoder,
		cache:       cfg.Cache,
		retry:       cfg.Retry,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
	if r.timeout <= 0 {
		r.timeout = 5 * time.Second
	}
	if r.concurrency <= 0 {
		r.concurrency = 4
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.retry.MaxAttempts == 0 {
		r.retry = DefaultRetryPolicy()
	}
	if r.retry.OnRetry == nil {
		r.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			obs.Retries.Inc()
			slog.Info("geocode attempt failed, backing off", "attempt", attempt, "delay", delay.String(), "err", err)
		}
	}

	return r, nil
}

// NormalizePostalCode strips separators and checks the code is 8 digits.
func NormalizePostalCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
		default:
			return "", fmt.Errorf("postal code %q: unexpected character %q: %w", raw, r, domain.ErrInvalidInput)
		}
	}

	code := b.String()
	if len(code) != postalCodeLength {
		return "", fmt.Errorf("postal code %q: want %d digits, got %d: %w", raw, postalCodeLength, len(code), domain.ErrInvalidInput)
	}
	return code, nil
}

// Resolve returns the location of a postal code.
//
// Expected outcomes are sentinel errors: domain.ErrInvalidInput for malformed
// input (no network call) and domain.ErrNotFound for codes that do not
// resolve (cached). domain.ErrRateLimited means the retry budget was spent.
func (r *Resolver) Resolve(ctx context.Context, raw string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "resolver.Resolve")(&err)

	code, err := NormalizePostalCode(raw)
	if err != nil {
		return domain.Location{}, err
	}

	key := PostalCacheKeyPrefix + code
	if entry, ok := r.cached(ctx, key); ok {
		if !entry.Found || len(entry.Matches) == 0 {
			return domain.Location{}, fmt.Errorf("resolve %s (cached): %w", code, domain.ErrNotFound)
		}
		m := entry.Matches[0]
		return domain.Location{Coordinates: m.Location, Description: m.FormattedAddress}, nil
	}

	loc, err := r.resolveUncached(ctx, code)
	switch {
	case err == nil:
		r.store(ctx, key, domain.CacheEntry{
			Found:    true,
			Status:   domain.GeocodeStatusOK,
			Matches:  []domain.GeocodeMatch{{FormattedAddress: loc.Description, Location: loc.Coordinates}},
			StoredAt: r.now(),
		})
		return loc, nil

	case errors.Is(err, domain.ErrRateLimited), ctx.Err() != nil:
		// Transient for the caller; do not remember it.
		return domain.Location{}, fmt.Errorf("resolve %s: %w", code, err)

	default:
		r.store(ctx, key, domain.CacheEntry{Found: false, StoredAt: r.now()})
		return domain.Location{}, fmt.Errorf("resolve %s: %w", code, err)
	}
}

func (r *Resolver) resolveUncached(ctx context.Context, code string) (domain.Location, error) {
	rec, err := r.lookupPostal(ctx, code)
	if err != nil {
		return domain.Location{}, err
	}

	if rec.Coordinates != nil && rec.Coordinates.Valid() {
		return domain.Location{Coordinates: *rec.Coordinates, Description: describe(rec)}, nil
	}

	query := describe(rec) + ", " + code

	resp, err := Retry(ctx, r.retry, retryableGeocodeErr, func(ctx context.Context) (domain.GeocodeResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.geocoder.Geocode(callCtx, query)
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", query, err)
	}

	if !resp.Found() {
		return domain.Location{}, fmt.Errorf("geocode %q: status %s: %w", query, resp.Status, domain.ErrNotFound)
	}

	m := resp.Matches[0]
	desc := m.FormattedAddress
	if desc == "" {
		desc = query
	}
	return domain.Location{Coordinates: m.Location, Description: desc}, nil
}

// lookupPostal asks the primary provider and falls back to the secondary when
// the primary cannot answer. A primary "not found" is final.
func (r *Resolver) lookupPostal(ctx context.Context, code string) (ports.PostalRecord, error) {
	rec, err := r.callProvider(ctx, r.primary, code)
	if err == nil || errors.Is(err, domain.ErrNotFound) || r.secondary == nil {
		return rec, err
	}

	slog.WarnContext(ctx, "primary postal provider failed, trying secondary",
		"req_id", obs.RequestID(ctx), "primary", r.primary.Name(), "secondary", r.secondary.Name(), "err", err)

	rec, err2 := r.callProvider(ctx, r.secondary, code)
	if err2 != nil {
		return ports.PostalRecord{}, fmt.Errorf("%s: %v; %s: %w", r.primary.Name(), err, r.secondary.Name(), err2)
	}
	return rec, nil
}

func (r *Resolver) callProvider(ctx context.Context, p ports.PostalCodeProvider, code string) (ports.PostalRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rec, err := p.Lookup(callCtx, code)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return rec, err
}

func (r *Resolver) cached(ctx context.Context, key string) (domain.CacheEntry, bool) {
	entry, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "resolver cache read failed", "key", key, "err", err)
		obs.CacheLookups.WithLabelValues("resolver", "error").Inc()
		return domain.CacheEntry{}, false
	}
	switch {
	case !ok:
		obs.CacheLookups.WithLabelValues("resolver", "miss").Inc()
	case !entry.Found:
		obs.CacheLookups.WithLabelValues("resolver", "negative_hit").Inc()
	default:
		obs.CacheLookups.WithLabelValues("resolver", "hit").Inc()
	}
	return entry, ok
}

func (r *Resolver) store(ctx context.Context, key string, entry domain.CacheEntry) {
	if err := r.cache.Put(ctx, key, entry); err != nil {
		slog.WarnContext(ctx, "resolver cache write failed", "key", key, "err", err)
	}
}

func retryableGeocodeErr(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUpstreamTimeout)
}

// describe formats "street, neighborhood, city - state".
func describe(rec ports.PostalRecord) string {
	return fmt.Sprintf("%s, %s, %s - %s", rec.Street, rec.Neighborhood, rec.City, rec.State)
}
