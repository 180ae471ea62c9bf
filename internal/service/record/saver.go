// Package record implements the save and transfer collaborators the
// edit session hands its finalized records to.
package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
	"github.com/medboard/bedside-api/internal/service/event"
)

// Saver persists the finalized bed and queues the broadcast. The event
// write is best-effort: a record that saved but failed to broadcast is
// still saved.
type Saver struct {
	beds   repository.BedRepository
	events *event.Service
}

func NewSaver(beds repository.BedRepository, events *event.Service) *Saver {
	return &Saver{beds: beds, events: events}
}

func (s *Saver) Save(ctx context.Context, bed *model.Bed) error {
	if err := s.beds.Update(ctx, bed); err != nil {
		return fmt.Errorf("failed to persist bed record: %w", err)
	}

	eventType := event.EventBedUpdated
	if bed.Patient == nil {
		eventType = event.EventBedCleared
	}
	if err := s.events.Emit(ctx, eventType, bed); err != nil {
		return fmt.Errorf("record saved but broadcast not queued: %w", err)
	}
	return nil
}

// Transferrer moves a patient between beds through the repository.
type Transferrer struct {
	beds   repository.BedRepository
	events *event.Service
}

func NewTransferrer(beds repository.BedRepository, events *event.Service) *Transferrer {
	return &Transferrer{beds: beds, events: events}
}

func (t *Transferrer) Transfer(ctx context.Context, sourceID, targetID uuid.UUID) error {
	if err := t.beds.Transfer(ctx, sourceID, targetID); err != nil {
		return err
	}

	payload := map[string]uuid.UUID{"source_bed_id": sourceID, "target_bed_id": targetID}
	if err := t.events.Emit(ctx, event.EventBedUpdated, payload); err != nil {
		return fmt.Errorf("transfer done but broadcast not queued: %w", err)
	}
	return nil
}
