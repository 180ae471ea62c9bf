package action

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medboard/bedside-api/internal/model"
	apperrors "github.com/medboard/bedside-api/pkg/errors"
)

type recorded struct {
	action  model.AuditAction
	details string
	meta    model.AuditMetadata
}

type recorderStub struct {
	entries []recorded
}

func (r *recorderStub) Record(action model.AuditAction, details string, meta model.AuditMetadata) {
	r.entries = append(r.entries, recorded{action, details, meta})
}

var testNow = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

func newTestTracker() (*Tracker, *recorderStub) {
	rec := &recorderStub{}
	return NewTracker(rec, func() time.Time { return testNow }), rec
}

func TestAdd_DefaultsToNow(t *testing.T) {
	tracker, rec := newTestTracker()
	p := &model.Patient{}

	action, err := tracker.Add(p, model.ActionTypeLabs, " Troponin ", "")
	require.NoError(t, err)
	assert.Equal(t, "Troponin", action.Name)
	assert.Equal(t, model.ActionTypeLabs, action.Type)
	assert.Equal(t, testNow, action.RequestedAt)
	assert.False(t, action.IsCompleted)
	assert.Nil(t, action.CompletedAt)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditAddAction, rec.entries[0].action)
	assert.Equal(t, "Troponin", rec.entries[0].meta.ActionName)
}

func TestAdd_ExplicitTimeMergedOntoToday(t *testing.T) {
	tracker, _ := newTestTracker()
	p := &model.Patient{}

	action, err := tracker.Add(p, model.ActionTypeXRay, "Chest X-ray", "08:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 8, 15, 0, 0, time.UTC), action.RequestedAt)
}

func TestAdd_Validation(t *testing.T) {
	tracker, rec := newTestTracker()
	p := &model.Patient{}

	_, err := tracker.Add(p, model.ActionTypeLabs, "   ", "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = tracker.Add(p, model.ActionTypeLabs, "Troponin", "25:99")
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, p.Actions)
	assert.Empty(t, rec.entries)
}

func TestToggle_CompleteThenReopen(t *testing.T) {
	tracker, rec := newTestTracker()
	p := &model.Patient{}
	action, err := tracker.Add(p, model.ActionTypeEKG, "12-lead EKG", "")
	require.NoError(t, err)
	rec.entries = nil

	require.True(t, tracker.Toggle(p, action.ID))
	assert.True(t, p.Actions[0].IsCompleted)
	require.NotNil(t, p.Actions[0].CompletedAt)
	assert.Equal(t, testNow, *p.Actions[0].CompletedAt)

	require.True(t, tracker.Toggle(p, action.ID))
	assert.False(t, p.Actions[0].IsCompleted)
	assert.Nil(t, p.Actions[0].CompletedAt)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, model.AuditCompleteAction, rec.entries[0].action)
	assert.Equal(t, model.AuditUndoAction, rec.entries[1].action)
}

func TestToggle_UnknownIDNoOps(t *testing.T) {
	tracker, rec := newTestTracker()
	p := &model.Patient{}

	assert.False(t, tracker.Toggle(p, uuid.New()))
	assert.Empty(t, rec.entries)
}

func TestRemove(t *testing.T) {
	tracker, rec := newTestTracker()
	p := &model.Patient{}
	first, err := tracker.Add(p, model.ActionTypeLabs, "Troponin", "")
	require.NoError(t, err)
	second, err := tracker.Add(p, model.ActionTypeConsult, "Cardiology consult", "")
	require.NoError(t, err)
	// Removal works on completed actions too.
	require.True(t, tracker.Toggle(p, second.ID))
	rec.entries = nil

	require.True(t, tracker.Remove(p, second.ID))
	require.Len(t, p.Actions, 1)
	assert.Equal(t, first.ID, p.Actions[0].ID)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditRemoveAction, rec.entries[0].action)
	assert.Equal(t, "Cardiology consult", rec.entries[0].details)

	assert.False(t, tracker.Remove(p, second.ID))
	assert.Len(t, rec.entries, 1)
}
