package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect %s: %w", addr, err)
	}
	return client, nil
}

// RedisGeocodeStore keeps cache entries as JSON values that expire with the TTL.
// Keys under a ceiling are also tracked in a sorted set scored by write time.
type RedisGeocodeStore struct {
	client   redis.UniversalClient
	ttl      time.Duration
	prefix   string
	ceilings []Ceiling
	now      func() time.Time
}

func NewRedisGeocodeStore(client redis.UniversalClient, ttl time.Duration) *RedisGeocodeStore {
	return &RedisGeocodeStore{client: client, ttl: ttl, prefix: "geocode:", now: time.Now}
}

// WithCeiling caps the entries whose key starts with prefix. maxEntries <= 0 leaves them unbounded.
func (s *RedisGeocodeStore) WithCeiling(prefix string, maxEntries int) *RedisGeocodeStore {
	s.ceilings = addCeiling(s.ceilings, prefix, maxEntries)
	return s
}

// indexKey names the sorted set tracking the keys under c.
func (s *RedisGeocodeStore) indexKey(c Ceiling) string {
	return s.prefix + "index:" + c.Prefix
}

func (s *RedisGeocodeStore) Get(ctx context.Context, key string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "geocode.redis.Get")(&err)

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get geocode cache %q: %w", key, err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get geocode cache %q: decode: %w", key, err)
	}
	return entry, true, nil
}

func (s *RedisGeocodeStore) Put(ctx context.Context, key string, entry domain.CacheEntry) (err error) {
	defer obs.Time(ctx, "geocode.redis.Put")(&err)

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("put geocode cache %q: encode: %w", key, err)
	}

	c, capped := ceilingFor(s.ceilings, key)
	if !capped {
		if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
			return fmt.Errorf("put geocode cache %q: %w", key, err)
		}
		return nil
	}

	now := s.now()
	expiredBefore := "-inf"
	if s.ttl > 0 {
		expiredBefore = "(" + strconv.FormatInt(now.Add(-s.ttl).UnixMilli(), 10)
	}
	err = putCappedScript.Run(ctx, s.client,
		[]string{s.prefix + key, s.indexKey(c)},
		raw, s.ttl.Milliseconds(), now.UnixMilli(), c.MaxEntries, expiredBefore,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("put geocode cache %q: %w", key, err)
	}
	return nil
}

// putCappedScript stores an entry, records it in the index, drops index
// members whose entries have expired, and evicts the oldest beyond the ceiling.
// It returns the number of entries evicted.
var putCappedScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
	redis.call("ZREMRANGEBYSCORE", KEYS[2], "-inf", ARGV[5])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
redis.call("ZADD", KEYS[2], ARGV[3], KEYS[1])
local over = redis.call("ZCARD", KEYS[2]) - tonumber(ARGV[4])
if over > 0 then
	local oldest = redis.call("ZRANGE", KEYS[2], 0, over - 1)
	redis.call("DEL", unpack(oldest))
	redis.call("ZREMRANGEBYRANK", KEYS[2], 0, over - 1)
	return over
end
return 0
`)

// hitScript increments the counter and starts the window on first use.
// It returns the count and the remaining window in milliseconds.
var hitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateStore keeps fixed-window counters in Redis so several instances share them.
type RedisRateStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRateStore(client redis.UniversalClient) *RedisRateStore {
	return &RedisRateStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisRateStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (domain.RateRecord, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.RateRecord{}, fmt.Errorf("rate limit hit %q: %w", key, err)
	}
	if len(res) != 2 {
		return domain.RateRecord{}, fmt.Errorf("rate limit hit %q: unexpected reply %v", key, res)
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	resetAt := now.Add(remaining)
	return domain.RateRecord{
		Count:       int(res[0]),
		WindowStart: resetAt.Add(-window),
		ResetAt:     resetAt,
	}, nil
}
