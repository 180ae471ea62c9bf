package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medboard/bedside-api/internal/repository"
)

// AuditCleanupWorker trims the remote audit mirror. The in-memory log
// is bounded by count; the mirror is bounded by retention time.
type AuditCleanupWorker struct {
	repo            repository.AuditRepository
	retentionDays   int
	cleanupInterval time.Duration
	logger          *zap.Logger
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, cleanupInterval time.Duration, logger *zap.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:            repo,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          logger,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error("audit cleanup failed", zap.Error(err))
			}
		}
	}
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return err
	}

	w.logger.Info("cleaned up audit entries",
		zap.Int64("rows", rows),
		zap.Time("cutoff", cutoff))
	return nil
}
