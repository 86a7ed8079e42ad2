package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLite backed geocode store for single-node deployments.
// Keys are expected to be normalized by the caller.
type SqliteGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration

	ceilings []Ceiling
	now      func() time.Time
}

func NewSqliteGeocodeCache(db *sql.DB, ttl time.Duration) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db, TTL: ttl, now: time.Now}
}

// WithCeiling caps the rows whose key starts with prefix. maxEntries <= 0 leaves them unbounded.
func (s *SqliteGeocodeCache) WithCeiling(prefix string, maxEntries int) *SqliteGeocodeCache {
	s.ceilings = addCeiling(s.ceilings, prefix, maxEntries)
	return s
}

func (s *SqliteGeocodeCache) Get(ctx context.Context, key string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "geocode.sqlite.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("geocode cache: db is nil")
	}

	q := `
	SELECT payload
    FROM geocode_cache
    WHERE cache_key = ? AND stored_at >= ?;
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

func (s *SqliteGeocodeCache) Put(ctx context.Context, key string, entry domain.CacheEntry) (err error) {
	defer obs.Time(ctx, "geocode.sqlite.Put")(&err)

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
	INSERT OR REPLACE INTO geocode_cache (
        cache_key,
        payload,
        stored_at
    )
    VALUES (?, ?, ?);
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
func (s *SqliteGeocodeCache) trim(ctx context.Context, c Ceiling) error {
	pattern := likePrefix(c.Prefix)

	_, err := s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE cache_key LIKE ? ESCAPE '\' AND stored_at < ?;
	`, pattern, s.now().Add(-s.TTL).UnixMilli())
	if err != nil {
		return fmt.Errorf("trim geocode cache %q: delete expired: %w", c.Prefix, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE cache_key IN (
        SELECT cache_key
        FROM geocode_cache
        WHERE cache_key LIKE ? ESCAPE '\'
        ORDER BY stored_at DESC, cache_key DESC
        LIMIT -1 OFFSET ?
    );
	`, pattern, c.MaxEntries)
	if err != nil {
		return fmt.Errorf("trim geocode cache %q: delete oldest: %w", c.Prefix, err)
	}

	return nil
}

// Purge deletes rows older than TTL and returns how many were removed.
func (s *SqliteGeocodeCache) Purge(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "geocode.sqlite.Purge")(&err)

	if s.DB == nil {
		return 0, errors.New("geocode cache: db is nil")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE stored_at < ?;`, s.now().Add(-s.TTL).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: %w", err)
	}
	return res.RowsAffected()
}
