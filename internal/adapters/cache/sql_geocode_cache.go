package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLGeocodeCache is a Postgres-backed geocode store.
// Rows older than TTL read as misses and are overwritten on the next Put.
type SQLGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration

	ceilings []Ceiling
	now      func() time.Time
}

func NewSQLGeocodeCache(db *sql.DB, ttl time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl, now: time.Now}
}

// WithCeiling caps the rows whose key starts with prefix. maxEntries <= 0 leaves them unbounded.
func (s *SQLGeocodeCache) WithCeiling(prefix string, maxEntries int) *SQLGeocodeCache {
	s.ceilings = addCeiling(s.ceilings, prefix, maxEntries)
	return s
}

func (s *SQLGeocodeCache) Get(ctx context.Context, key string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("geocode cache: db is nil")
	}

	q := `
	SELECT payload
    FROM geocode_cache
    WHERE cache_key = $1 AND stored_at >= $2;
	`

	var payload string
	minStored := s.now().Add(-s.TTL).UnixMilli()
	err = s.DB.QueryRowContext(ctx, q, key, minStored).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return decodeEntry(payload)
}

func (s *SQLGeocodeCache) Put(ctx context.Context, key string, entry domain.CacheEntry) (err error) {
	defer obs.Time(ctx, "geocode.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert geocode cache: empty key")
	}

	payload, storedAt, err := encodeEntry(entry, s.now)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (cache_key, payload, stored_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		stored_at = EXCLUDED.stored_at;
	`, key, payload, storedAt)
	if err != nil {
		return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
	}

	if c, ok := ceilingFor(s.ceilings, key); ok {
		return s.trim(ctx, c)
	}
	return nil
}

// trim deletes expired rows under the ceiling's prefix, then the oldest rows beyond its size.
func (s *SQLGeocodeCache) trim(ctx context.Context, c Ceiling) error {
	pattern := likePrefix(c.Prefix)

	_, err := s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE cache_key LIKE $1 ESCAPE '\' AND stored_at < $2;
	`, pattern, s.now().Add(-s.TTL).UnixMilli())
	if err != nil {
		return fmt.Errorf("trim geocode cache %q: delete expired: %w", c.Prefix, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE cache_key IN (
        SELECT cache_key
        FROM geocode_cache
        WHERE cache_key LIKE $1 ESCAPE '\'
        ORDER BY stored_at DESC, cache_key DESC
        OFFSET $2
    );
	`, pattern, c.MaxEntries)
	if err != nil {
		return fmt.Errorf("trim geocode cache %q: delete oldest: %w", c.Prefix, err)
	}

	return nil
}

func encodeEntry(entry domain.CacheEntry, now func() time.Time) (string, int64, error) {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return "", 0, fmt.Errorf("encode geocode cache entry: %w", err)
	}
	return string(raw), entry.StoredAt.UnixMilli(), nil
}

func decodeEntry(payload string) (domain.CacheEntry, bool, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("decode geocode cache entry: %w", err)
	}
	return entry, true, nil
}

// Purge deletes rows older than TTL and returns how many were removed.
func (s *SQLGeocodeCache) Purge(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "geocode.cache.Purge")(&err)

	if s.DB == nil {
		return 0, errors.New("geocode cache: db is nil")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE stored_at < $1;`, s.now().Add(-s.TTL).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: %w", err)
	}
	return res.RowsAffected()
}
