// Package main provides the entry point for the vectord server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ar4mirez/vectord/internal/collection"
	"github.com/ar4mirez/vectord/internal/config"
	"github.com/ar4mirez/vectord/internal/embedding"
	"github.com/ar4mirez/vectord/internal/index"
	"github.com/ar4mirez/vectord/internal/record/badger"
	"github.com/ar4mirez/vectord/internal/server"
)

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting vectord",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_time", BuildTime),
	)

	store, err := badger.New(&badger.Options{
		DataDir:    cfg.Storage.DataDir,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		logger.Info("closing storage")
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	logger.Info("storage initialized", zap.String("data_dir", cfg.Storage.DataDir))

	provider, err := embedding.NewProvider(embeddingConfigFrom(cfg.Embedding))
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Error("failed to close embedding provider", zap.Error(err))
		}
	}()

	coll := collection.New(store, logger)
	defer func() {
		if err := coll.Close(); err != nil {
			logger.Error("failed to close collection", zap.Error(err))
		}
	}()

	if err := attachIndexes(coll, cfg, provider); err != nil {
		return fmt.Errorf("failed to attach indexes: %w", err)
	}

	srv := server.New(cfg, store, coll, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// attachIndexes wires up the cosine, IVF and NSW indexes against the
// configured embedding provider. cfg.Validate has already guaranteed
// positive IVF n_clusters and NSW n_neighbors by the time this runs.
func attachIndexes(coll *collection.Collection, cfg *config.Config, provider embedding.Provider) error {
	ctx := context.Background()
	dim := provider.Dimension()

	if err := coll.Attach(ctx, collection.IndexTypeCosine, index.NewBruteForceCosine(provider, dim)); err != nil {
		return fmt.Errorf("attach cosine index: %w", err)
	}

	if err := coll.Attach(ctx, collection.IndexTypeIVF, index.NewIVF(provider, cfg.Index.IVF.NClusters)); err != nil {
		return fmt.Errorf("attach ivf index: %w", err)
	}

	nsw := index.NewNSW(provider, cfg.Index.NSW.NNeighbors, cfg.Index.NSW.EfConstruction)
	if err := coll.Attach(ctx, collection.IndexTypeNSW, nsw); err != nil {
		return fmt.Errorf("attach nsw index: %w", err)
	}

	return nil
}

func embeddingConfigFrom(cfg config.EmbeddingConfig) embedding.Config {
	return embedding.Config{
		Provider:  cfg.Provider,
		Dimension: cfg.Dimension,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
	}
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Log.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Log.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
