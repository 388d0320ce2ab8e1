package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hydro-assess-service/internal/adapter/groundwater"
	httpadapter "github.com/couchcryptid/hydro-assess-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hydro-assess-service/internal/adapter/kafka"
	"github.com/couchcryptid/hydro-assess-service/internal/assessor"
	"github.com/couchcryptid/hydro-assess-service/internal/config"
	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
	"github.com/couchcryptid/hydro-assess-service/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	rates, err := config.LoadRates(cfg.RatesFile)
	if err != nil {
		logger.Error("failed to load rates", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readiness := observability.NewReadiness()

	// Station lookups are feature-flagged via GROUNDWATER_DSN; without it
	// every missing depth is resolved from the location estimate.
	var provider domain.GroundwaterProvider
	var store *groundwater.Store
	if cfg.GroundwaterDSN != "" {
		store, err = groundwater.Open(ctx, cfg.GroundwaterDSN, cfg.GroundwaterTimeout, metrics, logger)
		if err != nil {
			logger.Error("failed to open groundwater store", "error", err)
			os.Exit(1)
		}
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate groundwater store", "error", err)
			os.Exit(1)
		}
		provider = groundwater.NewCachedProvider(store, cfg.GroundwaterCacheSize, cfg.GroundwaterCacheTTL, clockwork.NewRealClock(), metrics)
		readiness.Add("groundwater", store)
		logger.Info("groundwater station lookups enabled",
			"cache_size", cfg.GroundwaterCacheSize, "cache_ttl", cfg.GroundwaterCacheTTL, "timeout", cfg.GroundwaterTimeout)
	} else {
		logger.Info("groundwater station lookups disabled, using location estimates")
	}

	svc := assessor.New(rates, provider, metrics, logger)

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(svc), writer, logger, metrics, cfg.BatchSize)
		readiness.Add("pipeline", p)

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg, svc, readiness, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	closeAll(logger, reader, writer, store)

	logger.Info("shutdown complete")
}

func closeAll(logger *slog.Logger, reader *kafkaadapter.Reader, writer *kafkaadapter.Writer, store *groundwater.Store) {
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("groundwater store close error", "error", err)
		}
	}
}
