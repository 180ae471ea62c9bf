package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
	"github.com/medboard/bedside-api/pkg/circuitbreaker"
	"github.com/medboard/bedside-api/pkg/logger"
)

// Actor identifies who performs the audited operations of one edit
// session.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

// Recorder is what the mutation engines see: one call per
// state-changing operation, never failing.
type Recorder interface {
	Record(action model.AuditAction, details string, meta model.AuditMetadata)
}

const defaultLocalCap = 1000

// Service keeps a bounded in-memory audit log, newest first, and
// mirrors every entry to the remote store on a best-effort basis. A
// remote failure never blocks or reverts the local append.
type Service struct {
	mu      sync.Mutex
	entries []*model.AuditEntry

	cap    int
	repo   repository.AuditRepository
	cb     *circuitbreaker.CircuitBreaker
	logger *logger.Logger
	clock  func() time.Time

	mirrorTimeout time.Duration
	wg            sync.WaitGroup
}

func NewService(repo repository.AuditRepository, localCap int, log *logger.Logger) *Service {
	if localCap <= 0 {
		localCap = defaultLocalCap
	}
	return &Service{
		cap:  localCap,
		repo: repo,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "audit-mirror",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger:        log,
		clock:         time.Now,
		mirrorTimeout: 5 * time.Second,
	}
}

// WithClock overrides the timestamp source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// For binds an actor and returns the recorder handed to that actor's
// edit session.
func (s *Service) For(actor Actor) Recorder {
	return &actorRecorder{svc: s, actor: actor}
}

type actorRecorder struct {
	svc   *Service
	actor Actor
}

func (r *actorRecorder) Record(action model.AuditAction, details string, meta model.AuditMetadata) {
	r.svc.append(&model.AuditEntry{
		ID:        uuid.New(),
		UserID:    r.actor.ID,
		UserName:  r.actor.Name,
		UserRole:  r.actor.Role,
		Action:    action,
		Details:   details,
		Metadata:  meta,
		Timestamp: r.svc.clock(),
	})
}

func (s *Service) append(entry *model.AuditEntry) {
	s.mu.Lock()
	s.entries = append([]*model.AuditEntry{entry}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
	s.mu.Unlock()

	s.mirror(entry)
}

func (s *Service) mirror(entry *model.AuditEntry) {
	if s.repo == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
		defer cancel()

		err := s.cb.Execute(func() error {
			return s.repo.Create(ctx, entry)
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("audit mirror write failed", "entry_id", entry.ID.String(), "error", err.Error())
		}
	}()
}

// Entries returns a copy of the local log, newest first.
func (s *Service) Entries() []*model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Flush waits for in-flight mirror writes. Tests and shutdown only.
func (s *Service) Flush() {
	s.wg.Wait()
}
