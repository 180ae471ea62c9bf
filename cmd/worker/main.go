package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medboard/bedside-api/internal/config"
	"github.com/medboard/bedside-api/internal/repository/postgres"
	"github.com/medboard/bedside-api/internal/worker"
	pkglogger "github.com/medboard/bedside-api/pkg/logger"
	"github.com/medboard/bedside-api/pkg/messaging/redis"
	pkgworker "github.com/medboard/bedside-api/pkg/worker"
)

// workerConfig holds the daemon's own knobs; database and broker
// settings come from the shared config file.
type workerConfig struct {
	BatchSize          int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval       time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	AuditRetentionDays int           `envconfig:"AUDIT_RETENTION_DAYS" default:"365"`
	AuditCleanupEvery  time.Duration `envconfig:"AUDIT_CLEANUP_INTERVAL" default:"24h"`
	MetricsAddr        string        `envconfig:"METRICS_ADDR" default:":9102"`
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var wcfg workerConfig
	if err := envconfig.Process("BEDSIDE", &wcfg); err != nil {
		logger.Fatal("failed to process worker env", zap.Error(err))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	brokerLogger := pkglogger.NewLogger(nil)
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, brokerLogger.Zerolog())
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	processor := pkgworker.NewOutboxProcessor(outboxRepo, broker, logger, wcfg.BatchSize, wcfg.PollInterval)
	cleanup := worker.NewAuditCleanupWorker(auditRepo, wcfg.AuditRetentionDays, wcfg.AuditCleanupEvery, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(wcfg.MetricsAddr, nil); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("bedside worker started",
		zap.Int("batch_size", wcfg.BatchSize),
		zap.Duration("poll_interval", wcfg.PollInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	cancel()
	wg.Wait()
}
