package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medboard/bedside-api/internal/repository"
	"github.com/medboard/bedside-api/internal/service/audit"
	"github.com/medboard/bedside-api/internal/service/medication"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
	"github.com/medboard/bedside-api/pkg/logger"
)

const topMedicationsLimit = 20

// Manager opens edit sessions and keeps them in an expiring in-memory
// store: an abandoned draft simply ages out, which is the discard
// semantics of a closed browser tab.
type Manager struct {
	store *cache.Cache

	beds      repository.BedRepository
	catalog   repository.CatalogRepository
	protocols repository.ProtocolRepository
	staff     repository.StaffRepository

	auditSvc    *audit.Service
	saver       Saver
	transferrer Transferrer
	notifier    Notifier
	medCfg      medication.Config
	logger      *logger.Logger
}

type ManagerConfig struct {
	TTL              time.Duration
	RemindersEnabled bool
	ReminderOffset   time.Duration
}

func NewManager(
	cfg ManagerConfig,
	beds repository.BedRepository,
	catalog repository.CatalogRepository,
	protocols repository.ProtocolRepository,
	staff repository.StaffRepository,
	auditSvc *audit.Service,
	saver Saver,
	transferrer Transferrer,
	notifier Notifier,
	log *logger.Logger,
) *Manager {
	return &Manager{
		store:       cache.New(cfg.TTL, cfg.TTL/2),
		beds:        beds,
		catalog:     catalog,
		protocols:   protocols,
		staff:       staff,
		auditSvc:    auditSvc,
		saver:       saver,
		transferrer: transferrer,
		notifier:    notifier,
		medCfg: medication.Config{
			RemindersEnabled: cfg.RemindersEnabled,
			ReminderOffset:   cfg.ReminderOffset,
		},
		logger: log,
	}
}

// Open loads the bed and all read-only session inputs fresh, then
// begins a new edit session for the actor.
func (m *Manager) Open(ctx context.Context, bedID uuid.UUID, actor audit.Actor) (*Session, error) {
	bed, err := m.beds.Get(ctx, bedID)
	if err != nil {
		return nil, apperrors.NewNotFound("bed", err)
	}

	catalogEntries, err := m.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	protocols, err := m.protocols.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocols: %w", err)
	}
	topMeds, err := m.catalog.ListTopMedications(ctx, actor.ID, topMedicationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top medications: %w", err)
	}
	staff, err := m.staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff directory: %w", err)
	}
	targets, err := m.beds.ListTransferTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer candidates: %w", err)
	}

	sess := Begin(bed, Inputs{
		Catalog:         catalogEntries,
		Protocols:       protocols,
		TopMedications:  topMeds,
		Staff:           staff,
		TransferTargets: targets,
	}, Deps{
		Actor:         actor,
		Recorder:      m.auditSvc.For(actor),
		ProtocolStore: m.protocols,
		Saver:         m.saver,
		Transferrer:   m.transferrer,
		Notifier:      m.notifier,
		Medication:    m.medCfg,
		Logger:        m.logger,
	})

	m.store.SetDefault(sess.ID.String(), sess)
	return sess, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	if v, ok := m.store.Get(id.String()); ok {
		return v.(*Session), nil
	}
	return nil, apperrors.NewNotFound("session", nil)
}

// Close discards the session from the store. The draft is gone; the
// stored record was last touched by the most recent save.
func (m *Manager) Close(id uuid.UUID) {
	m.store.Delete(id.String())
}
