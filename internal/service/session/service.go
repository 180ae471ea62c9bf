// Package session implements the bedside edit session: one draft bed
// record per session, mutated synchronously through the medication,
// protocol and action engines, finalized or discarded explicitly.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/action"
	"github.com/medboard/bedside-api/internal/service/audit"
	"github.com/medboard/bedside-api/internal/service/catalog"
	"github.com/medboard/bedside-api/internal/service/ews"
	"github.com/medboard/bedside-api/internal/service/medication"
	"github.com/medboard/bedside-api/internal/service/protocol"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
	"github.com/medboard/bedside-api/pkg/logger"
)

// Inputs are the read-only collaborator-supplied data for one session,
// loaded fresh when the session opens.
type Inputs struct {
	Catalog         []model.CatalogEntry
	Protocols       []*model.MedicationProtocol
	TopMedications  []string
	Staff           []model.Staff
	TransferTargets []*model.Bed
}

// Saver receives the finalized bed record on explicit save. It owns
// persistence and broadcast; the session never waits on it.
type Saver interface {
	Save(ctx context.Context, bed *model.Bed) error
}

// Transferrer moves the patient record between beds.
type Transferrer interface {
	Transfer(ctx context.Context, sourceID, targetID uuid.UUID) error
}

// Notifier is told, best-effort, when a record is saved with a high
// early-warning level.
type Notifier interface {
	NotifyDeterioration(ctx context.Context, bed *model.Bed, result ews.Result) error
}

type Deps struct {
	Actor         audit.Actor
	Recorder      audit.Recorder
	ProtocolStore protocol.Store
	Saver         Saver
	Transferrer   Transferrer
	Notifier      Notifier
	Medication    medication.Config
	Clock         func() time.Time
	Logger        *logger.Logger
}

// Session owns one draft record. All mutation is synchronous and
// single-threaded: the HTTP layer serializes access per session.
type Session struct {
	ID        uuid.UUID
	OpenedAt  time.Time
	original  *model.Bed
	draft     *model.Bed
	dirty     bool
	inputs    Inputs
	matcher   *catalog.Matcher
	meds      *medication.Engine
	protocols *protocol.Applier
	actions   *action.Tracker
	deps      Deps
}

// Begin opens an edit session over a snapshot of the given bed. The
// draft is produced deterministically from the snapshot alone; the
// snapshot itself is kept pristine for Discard.
func Begin(bed *model.Bed, inputs Inputs, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Session{
		ID:        uuid.New(),
		OpenedAt:  deps.Clock(),
		original:  bed.Clone(),
		draft:     bed.Clone(),
		inputs:    inputs,
		matcher:   catalog.NewMatcher(inputs.Catalog),
		meds:      medication.NewEngine(deps.Medication, deps.Actor, deps.Recorder, deps.Clock),
		protocols: protocol.NewApplier(deps.Medication, deps.Actor, deps.Recorder, deps.ProtocolStore, deps.Clock),
		actions:   action.NewTracker(deps.Recorder, deps.Clock),
		deps:      deps,
	}
}

func (s *Session) Draft() *model.Bed         { return s.draft }
func (s *Session) Inputs() Inputs            { return s.inputs }
func (s *Session) Matcher() *catalog.Matcher { return s.matcher }
func (s *Session) HasUnsavedChanges() bool   { return s.dirty }

type AdmitRequest struct {
	Name           string
	Symptoms       string
	Allergies      string
	TriageCategory int
}

// Admit creates the patient record on an unoccupied bed. A blank name
// aborts with a validation error and an untouched draft.
func (s *Session) Admit(req AdmitRequest) (*model.Patient, error) {
	if req.Name == "" {
		return nil, apperrors.NewValidation("patient name is required")
	}
	if req.TriageCategory < 0 || req.TriageCategory > 5 {
		return nil, apperrors.NewValidation("triage category must be between 0 and 5")
	}
	if s.draft.Patient != nil {
		return nil, apperrors.NewConflict("bed is already occupied")
	}

	s.draft.Patient = &model.Patient{
		ID:             uuid.New(),
		Name:           req.Name,
		Symptoms:       req.Symptoms,
		Allergies:      req.Allergies,
		TriageCategory: req.TriageCategory,
		ArrivalTime:    s.deps.Clock(),
	}
	s.draft.Status = model.BedStatusOccupied
	s.dirty = true

	s.deps.Recorder.Record(model.AuditAdmitPatient, req.Name, s.bedMeta())
	return s.draft.Patient, nil
}

// ClearBed destroys the patient record and sends the bed to cleaning.
func (s *Session) ClearBed() error {
	if s.draft.Patient == nil {
		return apperrors.NewValidation("bed has no patient to clear")
	}
	name := s.draft.Patient.Name
	s.draft.Patient = nil
	s.draft.Status = model.BedStatusCleaning
	s.dirty = true

	s.deps.Recorder.Record(model.AuditClearBed, name, s.bedMeta())
	return nil
}

func (s *Session) AddMedication(req medication.AddRequest) (*medication.AddResult, error) {
	patient, err := s.patient()
	if err != nil {
		return nil, err
	}
	result, err := s.meds.AddOrder(patient, req)
	if err == nil && result.Order != nil {
		s.dirty = true
	}
	return result, err
}

func (s *Session) UpdateMedicationStatus(orderID uuid.UUID, status model.MedicationStatus) bool {
	if s.draft.Patient == nil {
		return false
	}
	changed := s.meds.UpdateStatus(s.draft.Patient, orderID, status)
	if changed {
		s.dirty = true
	}
	return changed
}

func (s *Session) RepeatMedication(orderID uuid.UUID, force bool) (*medication.AddResult, error) {
	patient, err := s.patient()
	if err != nil {
		return nil, err
	}
	for i := range patient.Medications {
		if patient.Medications[i].ID == orderID {
			result, err := s.meds.RepeatOrder(patient, patient.Medications[i], force)
			if err == nil && result.Order != nil {
				s.dirty = true
			}
			return result, err
		}
	}
	return nil, apperrors.NewNotFound("medication order", nil)
}

func (s *Session) ApplyProtocol(protocolID uuid.UUID, force bool) (*protocol.ApplyResult, error) {
	patient, err := s.patient()
	if err != nil {
		return nil, err
	}
	for _, proto := range s.inputs.Protocols {
		if proto.ID == protocolID {
			result := s.protocols.Apply(patient, *proto, force)
			if result.Conflict == nil {
				s.dirty = true
			}
			return result, nil
		}
	}
	return nil, apperrors.NewNotFound("protocol", nil)
}

func (s *Session) SaveCurrentAsProtocol(ctx context.Context, name string) (*model.MedicationProtocol, error) {
	patient, err := s.patient()
	if err != nil {
		return nil, err
	}
	return s.protocols.SaveCurrentAsProtocol(ctx, patient, name)
}

// DeleteProtocol removes a stored protocol through the persistence
// collaborator. Only protocols offered to this session can be deleted.
func (s *Session) DeleteProtocol(ctx context.Context, protocolID uuid.UUID) error {
	for _, proto := range s.inputs.Protocols {
		if proto.ID == protocolID {
			if err := s.deps.ProtocolStore.Delete(ctx, protocolID); err != nil {
				return apperrors.NewInternal(err)
			}
			return nil
		}
	}
	return apperrors.NewNotFound("protocol", nil)
}

func (s *Session) AddAction(actionType model.ActionType, name, atTime string) (*model.ClinicalAction, error) {
	patient, err := s.patient()
	if err != nil {
		return nil, err
	}
	added, err := s.actions.Add(patient, actionType, name, atTime)
	if err == nil {
		s.dirty = true
	}
	return added, err
}

func (s *Session) ToggleAction(actionID uuid.UUID) bool {
	if s.draft.Patient == nil {
		return false
	}
	changed := s.actions.Toggle(s.draft.Patient, actionID)
	if changed {
		s.dirty = true
	}
	return changed
}

func (s *Session) RemoveAction(actionID uuid.UUID) bool {
	if s.draft.Patient == nil {
		return false
	}
	changed := s.actions.Remove(s.draft.Patient, actionID)
	if changed {
		s.dirty = true
	}
	return changed
}

// UpdateVitals replaces the draft vitals. Vitals are saved with the
// record; there is no audit code for them.
func (s *Session) UpdateVitals(v model.Vitals) error {
	patient, err := s.patient()
	if err != nil {
		return err
	}
	now := s.deps.Clock()
	v.LastUpdated = &now
	patient.Vitals = v
	s.dirty = true
	return nil
}

// EarlyWarning scores the draft vitals. A bed without a patient scores
// zero.
func (s *Session) EarlyWarning() ews.Result {
	if s.draft.Patient == nil {
		return ews.Score(model.Vitals{})
	}
	return ews.Score(s.draft.Patient.Vitals)
}

// TransferTargets returns the candidate beds that can actually receive
// the patient: only EMPTY and CLEANING beds qualify.
func (s *Session) TransferTargets() []*model.Bed {
	var targets []*model.Bed
	for _, bed := range s.inputs.TransferTargets {
		if bed.ID != s.draft.ID && bed.IsTransferTarget() {
			targets = append(targets, bed)
		}
	}
	return targets
}

// Transfer requests the move through the external callback. The target
// must be one of the offered candidates.
func (s *Session) Transfer(ctx context.Context, targetID uuid.UUID) error {
	if s.draft.Patient == nil {
		return apperrors.NewValidation("bed has no patient to transfer")
	}
	for _, bed := range s.TransferTargets() {
		if bed.ID == targetID {
			if err := s.deps.Transferrer.Transfer(ctx, s.draft.ID, targetID); err != nil {
				return apperrors.NewInternal(err)
			}
			return nil
		}
	}
	return apperrors.NewValidation("target bed is not available for transfer")
}

// Save hands the finalized record to the save collaborator and marks
// the session clean immediately. Persistence and broadcast failures
// belong to the collaborator; they never surface mid-session and never
// roll the draft back.
func (s *Session) Save() *model.Bed {
	finalized := s.draft.Clone()
	s.original = s.draft.Clone()
	s.dirty = false

	score := s.EarlyWarning()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.deps.Saver.Save(ctx, finalized); err != nil && s.deps.Logger != nil {
			s.deps.Logger.Error(err, "bed save failed", "bed_id", finalized.ID.String())
		}
		if score.Level == ews.LevelHigh && s.deps.Notifier != nil {
			if err := s.deps.Notifier.NotifyDeterioration(ctx, finalized, score); err != nil && s.deps.Logger != nil {
				s.deps.Logger.Warn("deterioration notification failed", "bed_id", finalized.ID.String(), "error", err.Error())
			}
		}
	}()

	return finalized
}

// Discard restores the draft to the record as originally opened.
func (s *Session) Discard() {
	s.draft = s.original.Clone()
	s.dirty = false
}

func (s *Session) patient() (*model.Patient, error) {
	if s.draft.Patient == nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("bed %s has no patient", s.draft.Label))
	}
	return s.draft.Patient, nil
}

func (s *Session) bedMeta() model.AuditMetadata {
	id := s.draft.ID
	return model.AuditMetadata{
		Kind:     model.AuditMetaBed,
		BedID:    &id,
		BedLabel: s.draft.Label,
	}
}
