package medication

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/service/audit"
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

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func newTestEngine(remindersEnabled bool) (*Engine, *recorderStub) {
	rec := &recorderStub{}
	cfg := Config{RemindersEnabled: remindersEnabled, ReminderOffset: 4 * time.Hour}
	actor := audit.Actor{ID: uuid.New(), Name: "Dr. Kowalska", Role: "doctor"}
	return NewEngine(cfg, actor, rec, func() time.Time { return testNow }), rec
}

func TestAddOrder_AppendsPendingOrder(t *testing.T) {
	engine, rec := newTestEngine(true)
	p := &model.Patient{}

	result, err := engine.AddOrder(p, AddRequest{Name: " Paracetamolum ", Dose: "1g", Route: "IV"})
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.Nil(t, result.Conflict)

	require.Len(t, p.Medications, 1)
	order := p.Medications[0]
	assert.Equal(t, "Paracetamolum", order.Name)
	assert.Equal(t, "1g", order.Dose)
	assert.Equal(t, "IV", order.Route)
	assert.Equal(t, model.MedicationStatusPending, order.Status)
	assert.Equal(t, "Dr. Kowalska", order.OrderedBy)
	assert.Equal(t, testNow, order.OrderedAt)
	require.NotNil(t, order.ReminderAt)
	assert.Equal(t, testNow.Add(4*time.Hour), *order.ReminderAt)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditAddMed, rec.entries[0].action)
	assert.Equal(t, "Paracetamolum", rec.entries[0].meta.MedicationName)
}

func TestAddOrder_NoReminderWhenDisabled(t *testing.T) {
	engine, _ := newTestEngine(false)
	p := &model.Patient{}

	result, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum"})
	require.NoError(t, err)
	assert.Nil(t, result.Order.ReminderAt)
}

func TestAddOrder_BlankNameRejected(t *testing.T) {
	engine, rec := newTestEngine(true)
	p := &model.Patient{}

	_, err := engine.AddOrder(p, AddRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, p.Medications)
	assert.Empty(t, rec.entries)
}

func TestAddOrder_DuplicatePendingConflicts(t *testing.T) {
	engine, rec := newTestEngine(true)
	p := &model.Patient{}

	_, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum", Dose: "1g"})
	require.NoError(t, err)
	rec.entries = nil

	result, err := engine.AddOrder(p, AddRequest{Name: "paracetamolum", Dose: "500mg", Route: "PO"})
	require.NoError(t, err)
	assert.Nil(t, result.Order)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "paracetamolum", result.Conflict.Name)
	assert.Equal(t, "500mg", result.Conflict.Dose)
	assert.Equal(t, []string{"Paracetamolum"}, result.Conflict.ExistingNames)

	// Conflict leaves the draft and the audit log untouched.
	assert.Len(t, p.Medications, 1)
	assert.Empty(t, rec.entries)
}

func TestAddOrder_ForceBypassesDuplicateCheck(t *testing.T) {
	engine, _ := newTestEngine(true)
	p := &model.Patient{}

	_, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum"})
	require.NoError(t, err)

	result, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum", Force: true})
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.Len(t, p.Medications, 2)
}

func TestAddOrder_TerminalOrdersDoNotConflict(t *testing.T) {
	engine, _ := newTestEngine(true)
	p := &model.Patient{Medications: []model.MedicationOrder{
		{ID: uuid.New(), Name: "Paracetamolum", Status: model.MedicationStatusGiven},
		{ID: uuid.New(), Name: "Paracetamolum", Status: model.MedicationStatusCancelled},
	}}

	result, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum"})
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.Len(t, p.Medications, 3)
}

func TestUpdateStatus_PendingToGiven(t *testing.T) {
	engine, rec := newTestEngine(true)
	p := &model.Patient{}
	result, err := engine.AddOrder(p, AddRequest{Name: "Morphini sulfas"})
	require.NoError(t, err)
	rec.entries = nil

	changed := engine.UpdateStatus(p, result.Order.ID, model.MedicationStatusGiven)
	assert.True(t, changed)

	order := p.Medications[0]
	assert.Equal(t, model.MedicationStatusGiven, order.Status)
	require.NotNil(t, order.AdministeredBy)
	assert.Equal(t, "Dr. Kowalska", *order.AdministeredBy)
	require.NotNil(t, order.AdministeredAt)
	assert.False(t, order.AdministeredAt.Before(order.OrderedAt))

	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.AuditUpdateMedStatus, rec.entries[0].action)
}

func TestUpdateStatus_PendingToCancelled(t *testing.T) {
	engine, _ := newTestEngine(true)
	p := &model.Patient{}
	result, err := engine.AddOrder(p, AddRequest{Name: "Morphini sulfas"})
	require.NoError(t, err)

	changed := engine.UpdateStatus(p, result.Order.ID, model.MedicationStatusCancelled)
	assert.True(t, changed)
	assert.Equal(t, model.MedicationStatusCancelled, p.Medications[0].Status)
	assert.Nil(t, p.Medications[0].AdministeredBy)
}

func TestUpdateStatus_NoOps(t *testing.T) {
	engine, rec := newTestEngine(true)
	p := &model.Patient{}
	result, err := engine.AddOrder(p, AddRequest{Name: "Morphini sulfas"})
	require.NoError(t, err)
	require.True(t, engine.UpdateStatus(p, result.Order.ID, model.MedicationStatusGiven))
	rec.entries = nil

	// Terminal order cannot move again.
	assert.False(t, engine.UpdateStatus(p, result.Order.ID, model.MedicationStatusCancelled))
	// Unknown id.
	assert.False(t, engine.UpdateStatus(p, uuid.New(), model.MedicationStatusGiven))
	// PENDING is not a valid transition target.
	assert.False(t, engine.UpdateStatus(p, result.Order.ID, model.MedicationStatusPending))

	assert.Equal(t, model.MedicationStatusGiven, p.Medications[0].Status)
	assert.Empty(t, rec.entries)
}

func TestRepeatOrder(t *testing.T) {
	engine, _ := newTestEngine(true)
	p := &model.Patient{}
	result, err := engine.AddOrder(p, AddRequest{Name: "Paracetamolum", Dose: "1g", Route: "IV"})
	require.NoError(t, err)
	original := *result.Order

	// Still pending: repeating conflicts unless forced.
	repeat, err := engine.RepeatOrder(p, original, false)
	require.NoError(t, err)
	require.NotNil(t, repeat.Conflict)

	repeat, err = engine.RepeatOrder(p, original, true)
	require.NoError(t, err)
	require.NotNil(t, repeat.Order)
	assert.Equal(t, "Paracetamolum", repeat.Order.Name)
	assert.Equal(t, "1g", repeat.Order.Dose)
	assert.NotEqual(t, original.ID, repeat.Order.ID)
	assert.Len(t, p.Medications, 2)
}

func TestPendingNames(t *testing.T) {
	p := &model.Patient{Medications: []model.MedicationOrder{
		{Name: " Paracetamolum ", Status: model.MedicationStatusPending},
		{Name: "Morphini sulfas", Status: model.MedicationStatusGiven},
	}}

	names := PendingNames(p)
	assert.Equal(t, map[string]struct{}{"paracetamolum": {}}, names)
	assert.Empty(t, PendingNames(nil))
}
