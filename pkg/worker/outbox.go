package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
	"github.com/medboard/bedside-api/pkg/messaging"
)

var (
	processedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bedside_outbox_events_processed_total",
		Help: "The total number of relayed outbox events",
	})
	failedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bedside_outbox_events_failed_total",
		Help: "The total number of outbox events that failed to relay",
	})
)

// OutboxProcessor relays pending outbox rows to the broker. It is the
// half of the save broadcast that is allowed to be slow or retried;
// the API process only ever writes the row.
type OutboxProcessor struct {
	repo      repository.OutboxRepository
	broker    messaging.Broker
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
}

func NewOutboxProcessor(repo repository.OutboxRepository, broker messaging.Broker, logger *zap.Logger, batchSize int, interval time.Duration) *OutboxProcessor {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxProcessor{
		repo:      repo,
		broker:    broker,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	events, err := p.repo.FetchPending(ctx, p.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := p.relay(ctx, event); err != nil {
			failedEvents.Inc()
			p.logger.Warn("failed to relay event",
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				p.logger.Error("failed to mark event failed", zap.Error(markErr))
			}
			continue
		}
		processedEvents.Inc()
		if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark event processed", zap.Error(err))
		}
	}
	return nil
}

func (p *OutboxProcessor) relay(ctx context.Context, event *model.OutboxEvent) error {
	channel := messaging.ChannelBedUpdated
	if event.EventType == "bed.cleared" {
		channel = messaging.ChannelBedCleared
	}

	var payload interface{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	return p.broker.Publish(ctx, channel, messaging.Message{
		Type:    event.EventType,
		Payload: payload,
	})
}
