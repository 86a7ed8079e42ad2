package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"route-planner-service/internal/adapters/cache"
	"route-planner-service/internal/config"
	"route-planner-service/internal/platform/db"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dbtool prepares or trims the persistent geocode cache.
//
//	dbtool            create the schema
//	dbtool -purge     also delete rows older than CACHE_TTL
func main() {
	purge := flag.Bool("purge", false, "delete expired cache rows after ensuring the schema")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	backend := config.Get("CACHE_BACKEND", config.BackendPostgres)
	ttl, err := time.ParseDuration(config.Get("CACHE_TTL", "1h"))
	if err != nil {
		log.Fatalf("invalid CACHE_TTL: %v", err)
	}

	var conn *sql.DB
	switch backend {
	case config.BackendSqlite:
		conn, err = db.OpenSqlite(config.Get("SQLITE_PATH", "data/cache.db"))
	case config.BackendPostgres:
		databaseURL := config.Get("DATABASE_URL", "")
		if strings.TrimSpace(databaseURL) == "" {
			log.Fatal("DATABASE_URL is required")
		}
		conn, err = db.Open(databaseURL)
	default:
		log.Fatalf("CACHE_BACKEND %q has no schema to manage", backend)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing geocode cache schema...")
	if err := cache.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !*purge {
		return
	}

	ctx := context.Background()
	var n int64
	if backend == config.BackendSqlite {
		n, err = cache.NewSqliteGeocodeCache(conn, ttl).Purge(ctx)
	} else {
		n, err = cache.NewSQLGeocodeCache(conn, ttl).Purge(ctx)
	}
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}
	log.Printf("Purged %d expired rows.", n)
}
