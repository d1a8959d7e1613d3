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
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/api"
	"github.com/ignite/campaign-insights/internal/cache"
	"github.com/ignite/campaign-insights/internal/campaign"
	"github.com/ignite/campaign-insights/internal/config"
	"github.com/ignite/campaign-insights/internal/pkg/distlock"
	"github.com/ignite/campaign-insights/internal/pkg/httpretry"
	"github.com/ignite/campaign-insights/internal/pkg/logger"
	"github.com/ignite/campaign-insights/internal/report"
	"github.com/ignite/campaign-insights/internal/repository/postgres"
	"github.com/ignite/campaign-insights/internal/service/brand"
	"github.com/ignite/campaign-insights/internal/source"
	"github.com/ignite/campaign-insights/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
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

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func openDatabase(ctx context.Context, dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("Warning: failed to open database: %v", err)
		return nil
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Printf("Warning: database ping failed: %v (brand management disabled)", err)
		db.Close()
		return nil
	}
	return db
}

func connectRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("Redis not configured (REDIS_URL not set), snapshots stay in process")
		return nil
	}
	var client *redis.Client
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	} else {
		client = redis.NewClient(opts)
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed (%s): %v, snapshots stay in process", redisURL, err)
		client.Close()
		return nil
	}
	log.Printf("Redis connected: %s (shared snapshot cache enabled)", redisURL)
	return client
}

func warehouseConfig(c config.WarehouseConfig) source.WarehouseConfig {
	wc := source.ParseWarehouseConnString(c.ConnectionString)
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&wc.Account, c.Account)
	override(&wc.User, c.User)
	override(&wc.Password, c.Password)
	override(&wc.Database, c.Database)
	override(&wc.Schema, c.Schema)
	override(&wc.Warehouse, c.Warehouse)
	override(&wc.Role, c.Role)
	override(&wc.Table, c.Table)
	return wc
}

func main() {
	log.Println("campaign-insights server starting")

	cfg, err := config.LoadFromEnv(configPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.SetRedactPII(cfg.RedactPII)

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres backs brand management and the advisory-lock fallback
	var db *sql.DB
	var brandService *brand.Service
	if cfg.Database.URL != "" {
		db = openDatabase(ctx, cfg.Database.URL)
	}
	if db != nil {
		defer db.Close()
		repo := postgres.NewBrandRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare brand schema: %v", err)
		}
		brandService = brand.NewService(repo)
		log.Println("Brand management database connected")
	}

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)
	blobs := source.NewS3BlobStore(s3Client, source.BlobConfig{
		Bucket:       cfg.Storage.S3Bucket,
		CompletedKey: cfg.Storage.CompletedKey,
		LiveKey:      cfg.Storage.LiveKey,
		PresignTTL:   cfg.Storage.PresignTTL(),
	})
	if cfg.Storage.S3Bucket == "" {
		log.Println("Warning: storage.s3_bucket not set, metric fetches will fail until configured")
	}

	var completed source.CompletedSource = blobs
	if cfg.Warehouse.Enabled {
		wh, err := source.OpenWarehouse(warehouseConfig(cfg.Warehouse))
		if err != nil {
			log.Fatalf("Failed to open Snowflake warehouse: %v", err)
		}
		defer wh.Close()
		completed = wh
		log.Println("Completed campaigns sourced from Snowflake")
	}

	var brands source.BrandSource
	switch {
	case cfg.Backend.BaseURL != "":
		brands = source.NewBrandClient(cfg.Backend.BaseURL, httpretry.NewRetryClient(nil, 3), cfg.Backend.Timeout())
		log.Printf("Brand mapping fetched from %s", cfg.Backend.BaseURL)
	case brandService != nil:
		brands = brandService
		log.Println("Brand mapping served from the local brand table")
	default:
		log.Fatal("No brand source: set backend.base_url or DATABASE_URL")
	}

	collector := source.NewCollector(completed, blobs, brands, source.CollectorConfig{
		Interval: cfg.Polling.Interval(),
		Timeout:  cfg.Polling.Timeout(),
		Thresholds: campaign.Thresholds{
			Completed: cfg.Thresholds.MinDeliveredCompleted,
			Live:      cfg.Thresholds.MinDeliveredLive,
		},
		SnapshotTTL: cfg.Polling.SnapshotTTL(),
	})
	// The lock TTL matches the refresh deadline, so a slow refresh is canceled
	// before its lock can lapse.
	newLock := func() distlock.DistLock {
		return distlock.NewLock(redisClient, db, "snapshot-refresh", cfg.Polling.Timeout())
	}
	switch {
	case redisClient != nil:
		collector.SetStore(cache.NewSnapshotCache(redisClient, cache.DefaultKey), newLock)
	case db != nil:
		collector.SetStore(nil, newLock)
		log.Println("No Redis: replicas coordinate refreshes through a Postgres advisory lock")
	}
	collector.Start()
	defer collector.Stop()

	handlers := api.NewHandlers(collector, anomaly.Options{
		Threshold: cfg.Anomaly.Threshold,
		MinSample: cfg.Anomaly.MinSample,
	})
	if brandService != nil {
		handlers.SetBrandStore(brandService)
	}

	archive, err := storage.New(ctx, cfg.Archive, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	if err != nil {
		log.Fatalf("Failed to initialize anomaly archive: %v", err)
	}
	if archive != nil {
		handlers.SetArchive(archive)
		log.Printf("Anomaly archive enabled (%s)", cfg.Archive.Type)
	}

	if cfg.Digest.Enabled {
		sesClient, err := report.NewSESClient(ctx, cfg.Digest.Region, cfg.Storage.GetAWSProfile(), cfg.Digest.AccessKey, cfg.Digest.SecretKey)
		if err != nil {
			log.Fatalf("Failed to initialize SES client: %v", err)
		}
		digest, err := report.NewDigest(report.NewSESSender(sesClient, cfg.Digest.From), cfg.Digest.To, cfg.Digest.SubjectTemplate, cfg.Digest.BodyTemplate)
		if err != nil {
			log.Fatalf("Failed to parse digest templates: %v", err)
		}
		handlers.SetDigest(digest)
		log.Printf("Anomaly digest enabled for %d recipients", len(cfg.Digest.To))
	}

	var bucketHeader api.BucketHeader
	if cfg.Storage.S3Bucket != "" {
		bucketHeader = s3Client
	}
	health := api.NewHealthChecker(collector, db, redisClient, bucketHeader, cfg.Storage.S3Bucket)

	server := api.NewServer(cfg.Server, handlers, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
