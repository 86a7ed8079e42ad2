package cache

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/db"
	"testing"
	"time"
)

func TestSqliteGeocodeCache(t *testing.T) {
	conn, err := db.OpenSqlite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	// Idempotent.
	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema twice: %v", err)
	}

	clk := newClock()
	s := NewSqliteGeocodeCache(conn, time.Hour)
	s.now = clk.Now
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "cep:01001000"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Put(ctx, "cep:01001000", positive(-23.55)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "cep:99999999", domain.CacheEntry{Found: false}); err != nil {
		t.Fatalf("put negative: %v", err)
	}

	got, ok, err := s.Get(ctx, "cep:01001000")
	if err != nil || !ok || got.Matches[0].Location.Lat != -23.55 {
		t.Fatalf("get = %+v ok=%v err=%v", got, ok, err)
	}
	neg, ok, err := s.Get(ctx, "cep:99999999")
	if err != nil || !ok || neg.Found {
		t.Fatalf("negative get = %+v ok=%v err=%v", neg, ok, err)
	}

	// Overwrite refreshes the timestamp.
	clk.Advance(30 * time.Minute)
	if err := s.Put(ctx, "cep:01001000", positive(-23.56)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	clk.Advance(45 * time.Minute)
	if _, ok, _ := s.Get(ctx, "cep:99999999"); ok {
		t.Fatalf("expected expired negative entry to miss")
	}
	got, ok, _ = s.Get(ctx, "cep:01001000")
	if !ok || got.Matches[0].Location.Lat != -23.56 {
		t.Fatalf("refreshed entry = %+v ok=%v", got, ok)
	}

	n, err := s.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
}

func openTestSqlite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSqlite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

func countRows(t *testing.T, conn *sql.DB, pattern string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM geocode_cache WHERE cache_key LIKE ?;`, pattern).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestSqliteGeocodeCacheCeiling(t *testing.T) {
	conn := openTestSqlite(t)
	clk := newClock()
	s := NewSqliteGeocodeCache(conn, time.Hour).WithCeiling("addr:", 100)
	s.now = clk.Now
	ctx := context.Background()

	if err := s.Put(ctx, "cep:01001000", positive(-23.55)); err != nil {
		t.Fatalf("put: %v", err)
	}
	for i := 0; i < 150; i++ {
		clk.Advance(time.Millisecond)
		if err := s.Put(ctx, fmt.Sprintf("addr:rua %03d", i), positive(float64(i))); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	if n := countRows(t, conn, "addr:%"); n != 100 {
		t.Fatalf("addr rows = %d, want 100", n)
	}
	if n := countRows(t, conn, "cep:%"); n != 1 {
		t.Fatalf("cep rows = %d, want 1 (other prefixes are not capped)", n)
	}
	for _, key := range []string{"addr:rua 000", "addr:rua 049"} {
		if _, ok, _ := s.Get(ctx, key); ok {
			t.Fatalf("expected %s to be evicted", key)
		}
	}
	for _, key := range []string{"addr:rua 050", "addr:rua 149"} {
		if _, ok, _ := s.Get(ctx, key); !ok {
			t.Fatalf("expected %s to be kept", key)
		}
	}
}

func TestSqliteGeocodeCacheCeilingSweepsExpiredFirst(t *testing.T) {
	conn := openTestSqlite(t)
	clk := newClock()
	s := NewSqliteGeocodeCache(conn, time.Hour).WithCeiling("addr:", 3)
	s.now = clk.Now
	ctx := context.Background()

	if err := s.Put(ctx, "addr:old", positive(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	clk.Advance(2 * time.Hour)

	for _, key := range []string{"addr:a", "addr:b", "addr:c"} {
		clk.Advance(time.Millisecond)
		if err := s.Put(ctx, key, positive(2)); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if n := countRows(t, conn, "addr:%"); n != 3 {
		t.Fatalf("addr rows = %d, want 3", n)
	}
	if _, ok, _ := s.Get(ctx, "addr:a"); !ok {
		t.Fatalf("expired row should have been evicted before addr:a")
	}

	clk.Advance(time.Millisecond)
	if err := s.Put(ctx, "addr:d", positive(3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "addr:a"); ok {
		t.Fatalf("expected oldest entry addr:a to be evicted")
	}
	if n := countRows(t, conn, "addr:%"); n != 3 {
		t.Fatalf("addr rows = %d, want 3", n)
	}
}
