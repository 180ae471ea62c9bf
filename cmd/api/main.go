package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medboard/bedside-api/internal/config"
	healthHandler "github.com/medboard/bedside-api/internal/handler/health"
	sessionHandler "github.com/medboard/bedside-api/internal/handler/session"
	"github.com/medboard/bedside-api/internal/middleware"
	"github.com/medboard/bedside-api/internal/repository/postgres"
	"github.com/medboard/bedside-api/internal/router"
	auditService "github.com/medboard/bedside-api/internal/service/audit"
	eventService "github.com/medboard/bedside-api/internal/service/event"
	"github.com/medboard/bedside-api/internal/service/notification"
	"github.com/medboard/bedside-api/internal/service/record"
	sessionService "github.com/medboard/bedside-api/internal/service/session"
	"github.com/medboard/bedside-api/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	bedRepo := postgres.NewBedRepository(base)
	catalogRepo := postgres.NewCatalogRepository(base)
	protocolRepo := postgres.NewProtocolRepository(base)
	staffRepo := postgres.NewStaffRepository(base)
	auditRepo := postgres.NewAuditRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	auditSvc := auditService.NewService(auditRepo, cfg.Audit.LocalCap, appLogger)
	eventSvc := eventService.NewService(outboxRepo)
	saver := record.NewSaver(bedRepo, eventSvc)
	transferrer := record.NewTransferrer(bedRepo, eventSvc)
	notifier := notification.NewEscalationNotifier(cfg.SMTP, staffRepo, appLogger)

	manager := sessionService.NewManager(
		sessionService.ManagerConfig{
			TTL:              cfg.Session.TTL(),
			RemindersEnabled: cfg.Session.RemindersEnabled,
			ReminderOffset:   cfg.Session.ReminderOffset(),
		},
		bedRepo, catalogRepo, protocolRepo, staffRepo,
		auditSvc, saver, transferrer, notifier,
		appLogger,
	)

	sessionHandler.RegisterValidations()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	r := router.NewRouter(authMiddleware, router.Config{
		RateLimit: rate.Limit(100),
		RateBurst: 200,
		CORS:      middleware.DefaultCORSConfig(),
		Logger:    appLogger,
	})
	r.Setup(
		[]router.Handler{healthHandler.NewHandler(db)},
		[]router.Handler{sessionHandler.NewHandler(manager, auditSvc)},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("starting bedside API", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "forced shutdown")
	}
	auditSvc.Flush()
}
