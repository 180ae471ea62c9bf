// Package medication implements the medication-order lifecycle for one
// patient draft: add with duplicate detection, status transitions and
// repeat ordering.
package medication

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/audit"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
)

// Config is the reminder policy applied to new orders.
type Config struct {
	RemindersEnabled bool
	ReminderOffset   time.Duration
}

// Engine mutates the medication list of the session draft. It holds no
// draft state itself; the session passes its patient in.
type Engine struct {
	cfg      Config
	actor    audit.Actor
	recorder audit.Recorder
	clock    func() time.Time
}

func NewEngine(cfg Config, actor audit.Actor, recorder audit.Recorder, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{cfg: cfg, actor: actor, recorder: recorder, clock: clock}
}

type AddRequest struct {
	Name  string
	Dose  string
	Route string
	Force bool
}

// Conflict reports a duplicate-name collision. It carries the
// requested order data so the caller can re-invoke with Force after
// the clinician confirms; nothing has been applied to the draft.
type Conflict struct {
	Name          string   `json:"name"`
	Dose          string   `json:"dose"`
	Route         string   `json:"route"`
	ExistingNames []string `json:"existing_names"`
}

// AddResult is a discriminated outcome: exactly one of Order and
// Conflict is set.
type AddResult struct {
	Order    *model.MedicationOrder `json:"order,omitempty"`
	Conflict *Conflict              `json:"conflict,omitempty"`
}

// AddOrder appends a new PENDING order unless an order with the same
// name (case-insensitive) is already pending and Force is unset, in
// which case the conflict is returned as data and the draft stays
// untouched. Emits ADD_MED on success.
func (e *Engine) AddOrder(p *model.Patient, req AddRequest) (*AddResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidation("medication name is required")
	}

	if !req.Force {
		if existing := pendingNameMatches(p, name); len(existing) > 0 {
			return &AddResult{Conflict: &Conflict{
				Name:          name,
				Dose:          req.Dose,
				Route:         req.Route,
				ExistingNames: existing,
			}}, nil
		}
	}

	now := e.clock()
	order := model.MedicationOrder{
		ID:        uuid.New(),
		Name:      name,
		Dose:      req.Dose,
		Route:     req.Route,
		OrderedBy: e.actor.Name,
		OrderedAt: now,
		Status:    model.MedicationStatusPending,
	}
	if e.cfg.RemindersEnabled {
		reminder := now.Add(e.cfg.ReminderOffset)
		order.ReminderAt = &reminder
	}

	p.Medications = append(p.Medications, order)
	appended := &p.Medications[len(p.Medications)-1]

	e.recorder.Record(model.AuditAddMed,
		fmt.Sprintf("%s %s %s", order.Name, order.Dose, order.Route),
		model.AuditMetadata{
			Kind:           model.AuditMetaMedication,
			MedicationID:   &appended.ID,
			MedicationName: order.Name,
		})

	return &AddResult{Order: appended}, nil
}

// UpdateStatus transitions a PENDING order to GIVEN or CANCELLED.
// Anything else, including an unknown id or an order already in a
// terminal state, is a silent no-op; the caller learns via the false
// return only. GIVEN stamps the administering clinician and time.
func (e *Engine) UpdateStatus(p *model.Patient, orderID uuid.UUID, status model.MedicationStatus) bool {
	if status != model.MedicationStatusGiven && status != model.MedicationStatusCancelled {
		return false
	}

	order := findOrder(p, orderID)
	if order == nil || order.Status != model.MedicationStatusPending {
		return false
	}

	order.Status = status
	if status == model.MedicationStatusGiven {
		name := e.actor.Name
		at := e.clock()
		order.AdministeredBy = &name
		order.AdministeredAt = &at
	}

	e.recorder.Record(model.AuditUpdateMedStatus,
		fmt.Sprintf("%s -> %s", order.Name, status),
		model.AuditMetadata{
			Kind:           model.AuditMetaMedication,
			MedicationID:   &order.ID,
			MedicationName: order.Name,
		})

	return true
}

// RepeatOrder re-orders an existing entry with its name, dose and
// route. The duplicate check still applies: a pending order of the
// same name surfaces as a conflict unless forced.
func (e *Engine) RepeatOrder(p *model.Patient, order model.MedicationOrder, force bool) (*AddResult, error) {
	return e.AddOrder(p, AddRequest{
		Name:  order.Name,
		Dose:  order.Dose,
		Route: order.Route,
		Force: force,
	})
}

// PendingNames returns the lowercased names of all PENDING orders.
func PendingNames(p *model.Patient) map[string]struct{} {
	names := make(map[string]struct{})
	if p == nil {
		return names
	}
	for i := range p.Medications {
		if p.Medications[i].Status == model.MedicationStatusPending {
			names[strings.ToLower(strings.TrimSpace(p.Medications[i].Name))] = struct{}{}
		}
	}
	return names
}

func pendingNameMatches(p *model.Patient, name string) []string {
	var matches []string
	for i := range p.Medications {
		order := &p.Medications[i]
		if order.Status == model.MedicationStatusPending && order.NameMatches(name) {
			matches = append(matches, order.Name)
		}
	}
	return matches
}

func findOrder(p *model.Patient, id uuid.UUID) *model.MedicationOrder {
	for i := range p.Medications {
		if p.Medications[i].ID == id {
			return &p.Medications[i]
		}
	}
	return nil
}
