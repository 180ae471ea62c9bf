package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/audit"
	"github.com/medboard/bedside-api/internal/service/medication"
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

type storeStub struct {
	created []*model.MedicationProtocol
	err     error
}

func (s *storeStub) Create(_ context.Context, p *model.MedicationProtocol) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, p)
	return nil
}

func (s *storeStub) Delete(_ context.Context, _ uuid.UUID) error { return nil }

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func newTestApplier(store *storeStub) (*Applier, *recorderStub) {
	rec := &recorderStub{}
	cfg := medication.Config{RemindersEnabled: true, ReminderOffset: 4 * time.Hour}
	actor := audit.Actor{ID: uuid.New(), Name: "Dr. Nowak", Role: "doctor"}
	return NewApplier(cfg, actor, rec, store, func() time.Time { return testNow }), rec
}

func sepsisProtocol() model.MedicationProtocol {
	return model.MedicationProtocol{
		ID:   uuid.New(),
		Name: "Sepsis bundle",
		Medications: []model.ProtocolMedication{
			{Name: "Natrium chloratum 0.9%", Dose: "1000ml", Route: "IV"},
			{Name: "Paracetamolum", Dose: "1g", Route: "IV"},
		},
		Actions: []model.ProtocolAction{
			{Type: model.ActionTypeLabs, Name: "Blood cultures x2"},
			{Type: model.ActionTypeLabs, Name: "Lactate"},
		},
	}
}

func TestApply_ExpandsBatchAtomically(t *testing.T) {
	applier, rec := newTestApplier(&storeStub{})
	p := &model.Patient{}

	result := applier.Apply(p, sepsisProtocol(), false)
	require.Nil(t, result.Conflict)
	require.Len(t, p.Medications, 2)
	require.Len(t, p.Actions, 2)

	for _, order := range p.Medications {
		assert.Equal(t, model.MedicationStatusPending, order.Status)
		assert.Equal(t, "Dr. Nowak", order.OrderedBy)
		assert.Equal(t, testNow, order.OrderedAt)
		require.NotNil(t, order.ReminderAt)
	}
	// One shared reminder timestamp across the batch.
	assert.Equal(t, *p.Medications[0].ReminderAt, *p.Medications[1].ReminderAt)
	assert.Equal(t, testNow.Add(4*time.Hour), *p.Medications[0].ReminderAt)

	for _, act := range p.Actions {
		assert.False(t, act.IsCompleted)
		assert.Equal(t, testNow, act.RequestedAt)
	}

	// Exactly one audit entry for the whole batch.
	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditApplyProtocol, rec.entries[0].action)
	assert.Equal(t, "Sepsis bundle", rec.entries[0].meta.ProtocolName)
}

func TestApply_OverlapConflictLeavesDraftUntouched(t *testing.T) {
	applier, rec := newTestApplier(&storeStub{})
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "paracetamolum", Status: model.MedicationStatusPending},
	}}

	result := applier.Apply(p, sepsisProtocol(), false)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "Sepsis bundle", result.Conflict.ProtocolName)
	assert.Equal(t, []string{"Paracetamolum"}, result.Conflict.OverlappingNames)

	assert.Len(t, p.Medications, 1)
	assert.Empty(t, p.Actions)
	assert.Empty(t, rec.entries)
}

func TestApply_ForceBypassesOverlap(t *testing.T) {
	applier, _ := newTestApplier(&storeStub{})
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Paracetamolum", Status: model.MedicationStatusPending},
	}}

	result := applier.Apply(p, sepsisProtocol(), true)
	require.Nil(t, result.Conflict)
	assert.Len(t, p.Medications, 3)
	assert.Len(t, p.Actions, 2)
}

func TestApply_GivenOrdersDoNotOverlap(t *testing.T) {
	applier, _ := newTestApplier(&storeStub{})
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Paracetamolum", Status: model.MedicationStatusGiven},
	}}

	result := applier.Apply(p, sepsisProtocol(), false)
	assert.Nil(t, result.Conflict)
	assert.Len(t, p.Medications, 3)
}

func TestSaveCurrentAsProtocol(t *testing.T) {
	store := &storeStub{}
	applier, rec := newTestApplier(store)
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Paracetamolum", Dose: "1g", Route: "IV", Status: model.MedicationStatusPending},
		{ID: uuid.New(), Name: "Morphini sulfas", Dose: "5mg", Route: "IV", Status: model.MedicationStatusGiven},
		{ID: uuid.New(), Name: "Diazepamum", Dose: "10mg", Route: "IV", Status: model.MedicationStatusCancelled},
	}}

	protocol, err := applier.SaveCurrentAsProtocol(context.Background(), p, " Pain bundle ")
	require.NoError(t, err)
	assert.Equal(t, "Pain bundle", protocol.Name)

	// PENDING and GIVEN survive, CANCELLED is dropped.
	require.Len(t, protocol.Medications, 2)
	assert.Equal(t, model.ProtocolMedication{Name: "Paracetamolum", Dose: "1g", Route: "IV"}, protocol.Medications[0])
	assert.Equal(t, model.ProtocolMedication{Name: "Morphini sulfas", Dose: "5mg", Route: "IV"}, protocol.Medications[1])

	require.Len(t, store.created, 1)
	assert.Same(t, protocol, store.created[0])

	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditCreateProtocol, rec.entries[0].action)
}

func TestSaveCurrentAsProtocol_Validation(t *testing.T) {
	store := &storeStub{}
	applier, rec := newTestApplier(store)

	_, err := applier.SaveCurrentAsProtocol(context.Background(), &model.Patient{}, "  ")
	assert.True(t, apperrors.IsValidation(err))

	// Only cancelled medications counts as nothing to save.
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Diazepamum", Status: model.MedicationStatusCancelled},
	}}
	_, err = applier.SaveCurrentAsProtocol(context.Background(), p, "Empty")
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, store.created)
	assert.Empty(t, rec.entries)
}

func TestSaveCurrentAsProtocol_StoreFailure(t *testing.T) {
	store := &storeStub{err: errors.New("connection refused")}
	applier, rec := newTestApplier(store)
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Paracetamolum", Status: model.MedicationStatusPending},
	}}

	_, err := applier.SaveCurrentAsProtocol(context.Background(), p, "Pain bundle")
	require.Error(t, err)
	assert.False(t, apperrors.IsValidation(err))
	assert.Empty(t, rec.entries)
}
