// Package action tracks clinical actions (labs, imaging, consults) on
// the patient draft.
package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/audit"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
)

type Tracker struct {
	recorder audit.Recorder
	clock    func() time.Time
}

func NewTracker(recorder audit.Recorder, clock func() time.Time) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{recorder: recorder, clock: clock}
}

// Add appends a new open action. An explicit "HH:MM" is merged onto
// today's date; an empty atTime means now. Emits ADD_ACTION.
func (t *Tracker) Add(p *model.Patient, actionType model.ActionType, name, atTime string) (*model.ClinicalAction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("action name is required")
	}

	requestedAt := t.clock()
	if atTime != "" {
		parsed, err := mergeClockTime(requestedAt, atTime)
		if err != nil {
			return nil, apperrors.NewValidation(fmt.Sprintf("invalid time %q, expected HH:MM", atTime))
		}
		requestedAt = parsed
	}

	action := model.ClinicalAction{
		ID:          uuid.New(),
		Type:        actionType,
		Name:        name,
		RequestedAt: requestedAt,
	}
	p.Actions = append(p.Actions, action)
	appended := &p.Actions[len(p.Actions)-1]

	t.recorder.Record(model.AuditAddAction,
		fmt.Sprintf("%s: %s", actionType, name),
		model.AuditMetadata{
			Kind:       model.AuditMetaAction,
			ActionID:   &appended.ID,
			ActionName: name,
		})

	return appended, nil
}

// Toggle flips completion. Becoming complete stamps completedAt,
// reopening clears it; the emitted code follows the resulting state.
// Unknown ids are silent no-ops.
func (t *Tracker) Toggle(p *model.Patient, actionID uuid.UUID) bool {
	action := find(p, actionID)
	if action == nil {
		return false
	}

	action.IsCompleted = !action.IsCompleted
	code := model.AuditUndoAction
	if action.IsCompleted {
		at := t.clock()
		action.CompletedAt = &at
		code = model.AuditCompleteAction
	} else {
		action.CompletedAt = nil
	}

	t.recorder.Record(code, action.Name, model.AuditMetadata{
		Kind:       model.AuditMetaAction,
		ActionID:   &action.ID,
		ActionName: action.Name,
	})

	return true
}

// Remove deletes the action regardless of completion state, emitting
// REMOVE_ACTION with the name captured before deletion. Unknown ids
// are silent no-ops.
func (t *Tracker) Remove(p *model.Patient, actionID uuid.UUID) bool {
	for i := range p.Actions {
		if p.Actions[i].ID != actionID {
			continue
		}
		removed := p.Actions[i]
		p.Actions = append(p.Actions[:i], p.Actions[i+1:]...)

		t.recorder.Record(model.AuditRemoveAction, removed.Name, model.AuditMetadata{
			Kind:       model.AuditMetaAction,
			ActionID:   &removed.ID,
			ActionName: removed.Name,
		})
		return true
	}
	return false
}

// mergeClockTime composes a timestamp from today's date and an
// explicit "HH:MM" wall-clock value.
func mergeClockTime(today time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(
		today.Year(), today.Month(), today.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0,
		today.Location(),
	), nil
}

func find(p *model.Patient, id uuid.UUID) *model.ClinicalAction {
	for i := range p.Actions {
		if p.Actions[i].ID == id {
			return &p.Actions[i]
		}
	}
	return nil
}
