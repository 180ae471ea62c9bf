// Package event writes broadcast events to the transactional outbox.
// The relay worker picks them up and publishes to the broker, so a
// save is never blocked on messaging.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

const (
	EventBedUpdated = "bed.updated"
	EventBedCleared = "bed.cleared"
)

type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    string(model.OutboxStatusPending),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
