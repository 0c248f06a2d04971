package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/sitehub/internal/api"
	"github.com/ignite/sitehub/internal/assets"
	"github.com/ignite/sitehub/internal/config"
	"github.com/ignite/sitehub/internal/domains"
	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/tenant"
	"github.com/ignite/sitehub/internal/vercel"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// withTimeouts appends connect and statement timeouts to the DSN so a
// wedged database never hangs request handlers indefinitely.
func withTimeouts(dbURL string) string {
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
		sep = "&"
	}
	return dbURL + sep + "options=-c%20statement_timeout%3D15000%20-c%20idle_in_transaction_session_timeout%3D15000"
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  SITEHUB Tenant Platform Server (cmd/server/main.go)      ║")
	log.Println("║  Subdomain + custom domain resolution with Vercel DNS     ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	dbURL := withTimeouts(cfg.Database.URL)
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dbURL))

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pingCancel()
	log.Println("PostgreSQL connected")

	// Redis is optional: without it the facade reads the registry
	// directly on every request.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — serving uncached reads", cfg.Redis.URL, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (tenant config cache enabled)", cfg.Redis.URL)
		}
		cancel()
	}

	// Favicon blob store is optional too; upload endpoints answer 503
	// until a bucket is configured.
	var assetStore assets.Store
	if cfg.Assets.S3Bucket != "" {
		s3Store, err := assets.NewS3Store(context.Background(), cfg.Assets)
		if err != nil {
			log.Printf("Warning: Failed to initialize asset store: %v", err)
		} else {
			assetStore = s3Store
			log.Printf("Asset store initialized: bucket=%s, cdn=%s", cfg.Assets.S3Bucket, cfg.Assets.CDNDomain)
		}
	}

	vercelClient := vercel.NewClient(cfg.Vercel)
	if !vercelClient.IsConfigured() {
		log.Println("Warning: Vercel credentials not configured — custom domain attach will fail until set")
	}

	siteStore := registry.NewSiteStore(db)
	domainStore := registry.NewDomainStore(db)
	domainSvc := domains.NewService(domainStore, vercelClient)

	var faviconResolver tenant.FaviconResolver
	if assetStore != nil {
		faviconResolver = assetStore
	}
	facade := tenant.NewFacade(siteStore, domainStore, faviconResolver, redisClient, cfg.Platform.CacheTTL(), cfg.Platform.CacheStale())
	resolver := tenant.NewResolver(cfg.Platform.RootDomains)
	log.Printf("Wildcard roots: %v", cfg.Platform.RootDomains)

	handlers := api.NewHandlers(siteStore, domainSvc, facade, resolver, assetStore, cfg.Platform.ReservedSubdomains)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	log.Println("Server stopped")
}
