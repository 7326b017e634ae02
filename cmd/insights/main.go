// Package main wires together the insights service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/brandloom/shopify-insights/internal/api"
	"github.com/brandloom/shopify-insights/internal/clock/system"
	"github.com/brandloom/shopify-insights/internal/config"
	collyfetcher "github.com/brandloom/shopify-insights/internal/fetcher/colly"
	"github.com/brandloom/shopify-insights/internal/hash/sha256"
	"github.com/brandloom/shopify-insights/internal/id/uuid"
	"github.com/brandloom/shopify-insights/internal/insights"
	"github.com/brandloom/shopify-insights/internal/logging"
	"github.com/brandloom/shopify-insights/internal/metrics"
	"github.com/brandloom/shopify-insights/internal/pipeline"
	memorypublisher "github.com/brandloom/shopify-insights/internal/publisher/memory"
	pubsubpublisher "github.com/brandloom/shopify-insights/internal/publisher/pubsub"
	gcsstorage "github.com/brandloom/shopify-insights/internal/storage/gcs"
	memorystorage "github.com/brandloom/shopify-insights/internal/storage/memory"
	pgstorage "github.com/brandloom/shopify-insights/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	hasher := sha256.New()
	idGen := uuid.New()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.HTTPTimeout(),
		MaxRedirects: cfg.HTTP.MaxRedirects,
		Retry: collyfetcher.RetryConfig{
			MaxAttempts: cfg.HTTP.MaxRetries,
			BaseDelay:   time.Duration(cfg.HTTP.BackoffInitialMs) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
		},
	})

	snapshots, err := buildSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatal("snapshot store init failed", zap.Error(err))
	}
	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}
	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}

	pipe := pipeline.New(fetcher, clock, logger.Named("pipeline"))
	apiServer := api.NewServer(
		pipe,
		snapshots,
		blobs,
		publisher,
		hasher,
		idGen,
		clock,
		cfg,
		logger.Named("api"),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if closer, ok := snapshots.(interface{ Close() }); ok && closer != nil {
		closer.Close()
	}
	if stopper, ok := publisher.(interface{ Stop() }); ok && stopper != nil {
		stopper.Stop()
	}
	logger.Info("shutdown complete")
}

func buildSnapshotStore(ctx context.Context, cfg config.Config) (insights.SnapshotStore, error) {
	switch cfg.DB.Provider {
	case "postgres":
		return pgstorage.NewSnapshotStore(ctx, pgstorage.SnapshotStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
	case "memory":
		return memorystorage.NewSnapshotStore(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown db.provider %q", cfg.DB.Provider)
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (insights.BlobStore, error) {
	switch cfg.Storage.Provider {
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsstorage.New(client, gcsstorage.Config{
			Bucket: cfg.Storage.GCSBucket,
			Prefix: cfg.Storage.Prefix,
		})
	case "memory":
		return memorystorage.NewBlobStore(), nil
	case "noop":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage.provider %q", cfg.Storage.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (insights.Publisher, error) {
	switch cfg.PubSub.Provider {
	case "pubsub":
		client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		return pubsubpublisher.New(client.Topic(cfg.PubSub.TopicName)), nil
	case "memory":
		return memorypublisher.New(), nil
	case "noop":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown pubsub.provider %q", cfg.PubSub.Provider)
	}
}
