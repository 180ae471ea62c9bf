// Package protocol expands reusable medication/action bundles onto a
// patient draft and snapshots drafts back into new bundles.
package protocol

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/audit"
	"github.com/medboard/bedside-api/internal/service/medication"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
)

// Store is the external persistence collaborator for protocols. The
// applier only constructs and requests; it never stores.
type Store interface {
	Create(ctx context.Context, protocol *model.MedicationProtocol) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Applier struct {
	cfg      medication.Config
	actor    audit.Actor
	recorder audit.Recorder
	store    Store
	clock    func() time.Time
}

func NewApplier(cfg medication.Config, actor audit.Actor, recorder audit.Recorder, store Store, clock func() time.Time) *Applier {
	if clock == nil {
		clock = time.Now
	}
	return &Applier{cfg: cfg, actor: actor, recorder: recorder, store: store, clock: clock}
}

// Conflict lists protocol medication names already pending on the
// patient. Returned as data; the draft is untouched.
type Conflict struct {
	ProtocolName     string   `json:"protocol_name"`
	OverlappingNames []string `json:"overlapping_names"`
}

type ApplyResult struct {
	Conflict    *Conflict               `json:"conflict,omitempty"`
	Medications []model.MedicationOrder `json:"medications,omitempty"`
	Actions     []model.ClinicalAction  `json:"actions,omitempty"`
}

// Apply expands the protocol onto the patient in one atomic batch: one
// PENDING order per protocol medication, all sharing a single reminder
// timestamp, and one open action per protocol action. When any
// protocol medication name is already pending and force is unset the
// overlap comes back as a conflict and nothing is appended. Exactly
// one APPLY_PROTOCOL entry is emitted for the whole batch.
func (a *Applier) Apply(p *model.Patient, protocol model.MedicationProtocol, force bool) *ApplyResult {
	if !force {
		pending := medication.PendingNames(p)
		var overlap []string
		for _, med := range protocol.Medications {
			if _, ok := pending[strings.ToLower(strings.TrimSpace(med.Name))]; ok {
				overlap = append(overlap, med.Name)
			}
		}
		if len(overlap) > 0 {
			return &ApplyResult{Conflict: &Conflict{
				ProtocolName:     protocol.Name,
				OverlappingNames: overlap,
			}}
		}
	}

	now := a.clock()
	var reminder *time.Time
	if a.cfg.RemindersEnabled {
		at := now.Add(a.cfg.ReminderOffset)
		reminder = &at
	}

	result := &ApplyResult{}
	for _, med := range protocol.Medications {
		order := model.MedicationOrder{
			ID:        uuid.New(),
			Name:      med.Name,
			Dose:      med.Dose,
			Route:     med.Route,
			OrderedBy: a.actor.Name,
			OrderedAt: now,
			Status:    model.MedicationStatusPending,
		}
		if reminder != nil {
			at := *reminder
			order.ReminderAt = &at
		}
		p.Medications = append(p.Medications, order)
		result.Medications = append(result.Medications, order)
	}

	for _, tmpl := range protocol.Actions {
		action := model.ClinicalAction{
			ID:          uuid.New(),
			Type:        tmpl.Type,
			Name:        tmpl.Name,
			RequestedAt: now,
		}
		p.Actions = append(p.Actions, action)
		result.Actions = append(result.Actions, action)
	}

	a.recorder.Record(model.AuditApplyProtocol,
		fmt.Sprintf("%s (%d medications, %d actions)", protocol.Name, len(protocol.Medications), len(protocol.Actions)),
		model.AuditMetadata{
			Kind:         model.AuditMetaProtocol,
			ProtocolName: protocol.Name,
		})

	return result
}

// SaveCurrentAsProtocol snapshots the patient's PENDING and GIVEN
// medications (never CANCELLED) into a new named protocol and hands it
// to the persistence collaborator. Order metadata is dropped: only the
// name/dose/route triples survive. Emits CREATE_PROTOCOL.
func (a *Applier) SaveCurrentAsProtocol(ctx context.Context, p *model.Patient, name string) (*model.MedicationProtocol, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("protocol name is required")
	}

	var meds []model.ProtocolMedication
	if p != nil {
		for i := range p.Medications {
			order := &p.Medications[i]
			if order.Status == model.MedicationStatusCancelled {
				continue
			}
			meds = append(meds, model.ProtocolMedication{
				Name:  order.Name,
				Dose:  order.Dose,
				Route: order.Route,
			})
		}
	}
	if len(meds) == 0 {
		return nil, apperrors.NewValidation("no active medications to save as protocol")
	}

	protocol := &model.MedicationProtocol{
		ID:          uuid.New(),
		Name:        name,
		Medications: meds,
	}

	if err := a.store.Create(ctx, protocol); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	a.recorder.Record(model.AuditCreateProtocol,
		fmt.Sprintf("%s (%d medications)", protocol.Name, len(meds)),
		model.AuditMetadata{
			Kind:         model.AuditMetaProtocol,
			ProtocolName: protocol.Name,
		})

	return protocol, nil
}
