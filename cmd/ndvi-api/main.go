package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/ndvi-forecast/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ndvi-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/ndvi-forecast/internal/adapter/model"
	"github.com/couchcryptid/ndvi-forecast/internal/config"
	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/forecast"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := domain.OpenRegistry(cfg.RegistryFile)
	if err != nil {
		logger.Error("failed to load location registry", "error", err)
		os.Exit(1)
	}
	logger.Info("location registry loaded", "locations", registry.Len())

	// A model that cannot be loaded is fatal; the service never starts degraded.
	m, err := model.Open(ctx, model.Options{
		Source:    cfg.ModelSource,
		Path:      cfg.ModelPath,
		URL:       cfg.ModelURL,
		Timeout:   cfg.ModelTimeout,
		CacheSize: cfg.ModelCacheSize,
	}, metrics, logger)
	if err != nil {
		logger.Error("failed to load model", "error", err)
		os.Exit(1)
	}

	var closers []func() error

	if cfg.RedisEnabled() {
		client, err := model.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		closers = append(closers, client.Close)
		m = model.NewRedisCachedModel(m, client, cfg.RedisTTL, metrics, logger)
		logger.Info("redis prediction cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
	}

	// Initialize anomaly notifier (feature-flagged via KAFKA_BROKERS).
	var notifier forecast.AnomalyNotifier
	if cfg.KafkaEnabled() {
		n := kafkaadapter.NewNotifier(cfg, logger)
		closers = append(closers, n.Close)
		notifier = n
		logger.Info("kafka anomaly notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAnomalyTopic)
	} else {
		logger.Info("kafka anomaly notifications disabled")
	}

	svc := forecast.New(
		registry,
		domain.NewDateEncoder(cfg.ModelTimezone),
		m,
		domain.NewAnomalyDetector(cfg.AnomalyThreshold),
		notifier,
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

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
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
