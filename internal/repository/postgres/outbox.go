package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	query := `
        INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.GetDB().ExecContext(ctx, query,
		event.ID, event.EventType, event.Payload, event.Status,
		event.RetryCount, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// FetchPending claims up to limit pending events with SKIP LOCKED so
// multiple relay workers never publish the same event twice.
func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	query := `
        SELECT id, event_type, payload, status, error_message, retry_count, created_at, processed_at, updated_at
        FROM outbox_events
        WHERE status = $1
        ORDER BY created_at
        LIMIT $2
        FOR UPDATE SKIP LOCKED
    `
	if err := r.GetDB().SelectContext(ctx, &events, query, model.OutboxStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE outbox_events
        SET status = $2, processed_at = NOW(), updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.GetDB().ExecContext(ctx, query, id, model.OutboxStatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
        UPDATE outbox_events
        SET status = $2, error_message = $3, retry_count = retry_count + 1, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.GetDB().ExecContext(ctx, query, id, model.OutboxStatusFailed, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}
