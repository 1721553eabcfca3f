package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/config"
	"github.com/kailas-cloud/reviewdex/internal/db"
	dbRedis "github.com/kailas-cloud/reviewdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/reviewdex/internal/db/sqlite"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	logpkg "github.com/kailas-cloud/reviewdex/internal/logger"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
	reviewrepo "github.com/kailas-cloud/reviewdex/internal/repository/review"
	chiTransport "github.com/kailas-cloud/reviewdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/reviewdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
	reviewuc "github.com/kailas-cloud/reviewdex/internal/usecase/review"
	"github.com/kailas-cloud/reviewdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting reviewdex",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	metrics.Register()

	ctx := context.Background()

	connectStart := time.Now()
	store, err := openStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open review store", zap.Error(err))
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Review store not ready", zap.Error(err))
	}
	repo, err := reviewrepo.New(ctx, store, cfg.Reviews.Collection,
		reviewrepo.WithDecorator(func(c db.Collection) db.Collection {
			return metrics.InstrumentCollection(c, cfg.Database.Driver)
		}),
	)
	if err != nil {
		logger.Fatal("Failed to open review collection", zap.String("collection", cfg.Reviews.Collection), zap.Error(err))
	}
	logger.Info("Connected to review store",
		zap.String("collection", repo.Collection()),
		zap.Duration("connect_time", time.Since(connectStart)),
	)

	ids, err := reviewuc.NewIDGenerator(cfg.Reviews.IDStrategy)
	if err != nil {
		logger.Fatal("Invalid id strategy", zap.Error(err))
	}
	reviewSvc := reviewuc.New(repo, logger).WithIDGenerator(ids)
	healthSvc := healthuc.New(store)

	if emb := buildEmbedder(cfg.Embedding, logger); emb != nil {
		reviewSvc = reviewSvc.WithEmbedder(emb)
		healthSvc = healthSvc.WithEmbedding(emb)
		logger.Info("Embedding enabled",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	server := chiTransport.NewServer(reviewSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	closeStart := time.Now()
	if err := store.Close(); err != nil {
		logger.Error("Error closing review store", zap.Error(err))
	}
	logger.Info("Review store closed", zap.Duration("close_time", time.Since(closeStart)))

	logger.Info("Server stopped gracefully")
}

// openStore selects the store backend by driver.
func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.Path})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Using SQLite review store", zap.String("path", s.Path()))
		return s, nil
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(redisConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		logger.Info("Using networked review store", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func redisConfig(cfg config.DatabaseConfig) dbRedis.Config {
	return dbRedis.Config{
		Addrs:     cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.KeyPrefix,
	}
}

// embedder is what both the review service and health service need from the provider.
type embedder interface {
	reviewuc.Embedder
	healthuc.EmbeddingChecker
}

// buildEmbedder assembles OpenAI -> Instruction. Returns nil when embedding is disabled.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) embedder {
	if !cfg.Enabled() {
		return nil
	}
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})
	if cfg.Instruction != "" {
		return domain.NewInstructionEmbedder(base, cfg.Instruction)
	}
	return base
}
