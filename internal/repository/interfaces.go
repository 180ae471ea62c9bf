package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
)

// BedRepository persists bed records. Save is last-write-wins: the
// whole record, patient included, is replaced by the finalized draft.
type BedRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Bed, error)
	List(ctx context.Context) ([]*model.Bed, error)
	ListTransferTargets(ctx context.Context) ([]*model.Bed, error)
	Update(ctx context.Context, bed *model.Bed) error
	Transfer(ctx context.Context, sourceID, targetID uuid.UUID) error
}

type ProtocolRepository interface {
	List(ctx context.Context) ([]*model.MedicationProtocol, error)
	Create(ctx context.Context, protocol *model.MedicationProtocol) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CatalogRepository interface {
	List(ctx context.Context) ([]model.CatalogEntry, error)
	// ListTopMedications returns the user's personalized most-ordered
	// medication names, most frequent first.
	ListTopMedications(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
}

type StaffRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	List(ctx context.Context) ([]model.Staff, error)
}

// AuditRepository is the remote mirror of the in-memory audit log.
// Writes are best-effort; callers never treat a failure as fatal.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, limit int) ([]*model.AuditEntry, error)
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}
