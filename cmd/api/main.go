package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/api/rest"
	"github.com/feral-file/ff-media-library/internal/api/server"
	"github.com/feral-file/ff-media-library/internal/catalog"
	"github.com/feral-file/ff-media-library/internal/config"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/media/compressor"
	"github.com/feral-file/ff-media-library/internal/reconciler"
	"github.com/feral-file/ff-media-library/internal/retrieval"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
	"github.com/feral-file/ff-media-library/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "media-api",
		Environment:     cfg.Environment,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Media Library API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	fs := adapter.NewFileSystem()

	var cache adapter.Cache = adapter.NopCache{}
	if cfg.Redis.Addr != "" {
		cache = adapter.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx); err != nil {
			logger.FatalCtx(ctx, "Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
		}
		logger.InfoCtx(ctx, "Connected to redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.WarnCtx(ctx, "Redis not configured, storage config is cached in process only")
	}
	defer func() {
		_ = cache.Close()
	}()

	var purger adapter.CDNPurger = adapter.NopPurger{}
	if cfg.Cloudflare.ZoneID != "" {
		purger, err = adapter.NewCloudflarePurger(cfg.Cloudflare.APIToken, cfg.Cloudflare.ZoneID)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create Cloudflare client", zap.Error(err))
		}
		logger.InfoCtx(ctx, "CDN purging enabled", zap.String("zone_id", cfg.Cloudflare.ZoneID))
	}

	transcoder := adapter.NewFFmpegTranscoder(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

	// Initialize services
	resolver := storageconfig.NewResolver(storageconfig.Config{TTL: cfg.Media.ConfigCacheTTL}, dataStore, cache, clock)
	gateway := storage.NewGateway(adapter.NewS3ClientFactory())
	services := rest.Services{
		Catalog: catalog.New(resolver, gateway, dataStore, purger),
		Retrieval: retrieval.New(retrieval.Config{
			StreamThreshold:    cfg.Media.StreamThreshold,
			ViewCacheMaxAge:    cfg.Media.ViewCacheMaxAge,
			DefaultCacheMaxAge: cfg.Media.DefaultCacheMaxAge,
		}, resolver, gateway),
		Reconciler: reconciler.New(reconciler.Config{Concurrency: cfg.Media.SyncConcurrency, HeadMaxRetries: 3}, resolver, gateway, dataStore, purger, clock),
		Resolver:   resolver,
		Videos:     compressor.NewVideoCompressor(transcoder, fs),
		FS:         fs,
		Clock:      clock,
	}

	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  corsOrigins(ctx, resolver),
		Handler:      rest.Config{MaxCompressInput: cfg.Media.MaxCompressInput},
	}

	srv := server.New(serverConfig, services)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// corsOrigins reads the allowed origins from the active storage config at startup
func corsOrigins(ctx context.Context, resolver storageconfig.Resolver) []string {
	storageCfg, err := resolver.GetActiveConfig(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Storage not configured, allowing any CORS origin", zap.Error(err))
		return nil
	}
	return storageCfg.CORSOrigins
}
