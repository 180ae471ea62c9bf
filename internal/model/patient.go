package model

import (
	"time"

	"github.com/google/uuid"
)

// Consciousness follows the ACVPU split used by NEWS2: a patient is
// either alert or anything worse (confusion/voice/pain/unresponsive),
// which the legacy record collapses into a single CVPU value.
type Consciousness string

const (
	ConsciousnessAlert Consciousness = "ALERT"
	ConsciousnessCVPU  Consciousness = "CVPU"
)

type Vitals struct {
	RespRate      *int           `db:"resp_rate" json:"resp_rate,omitempty"`
	SpO2          *int           `db:"spo2" json:"spo2,omitempty"`
	OnOxygen      *bool          `db:"on_oxygen" json:"on_oxygen,omitempty"`
	BPSystolic    *int           `db:"bp_systolic" json:"bp_systolic,omitempty"`
	HeartRate     *int           `db:"heart_rate" json:"heart_rate,omitempty"`
	Consciousness *Consciousness `db:"consciousness" json:"consciousness,omitempty"`
	Temperature   *float64       `db:"temperature" json:"temperature,omitempty"`
	LastUpdated   *time.Time     `db:"last_updated" json:"last_updated,omitempty"`
}

func (v *Vitals) Clone() Vitals {
	out := Vitals{}
	if v == nil {
		return out
	}
	out.RespRate = cloneInt(v.RespRate)
	out.SpO2 = cloneInt(v.SpO2)
	if v.OnOxygen != nil {
		b := *v.OnOxygen
		out.OnOxygen = &b
	}
	out.BPSystolic = cloneInt(v.BPSystolic)
	out.HeartRate = cloneInt(v.HeartRate)
	if v.Consciousness != nil {
		c := *v.Consciousness
		out.Consciousness = &c
	}
	if v.Temperature != nil {
		t := *v.Temperature
		out.Temperature = &t
	}
	out.LastUpdated = cloneTime(v.LastUpdated)
	return out
}

// Patient is the active clinical record attached to an occupied bed.
// It exists only while the bed is occupied: admit creates it, clearing
// the bed destroys it.
type Patient struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	Name           string            `db:"name" json:"name"`
	Symptoms       string            `db:"symptoms" json:"symptoms"`
	Allergies      string            `db:"allergies" json:"allergies"`
	TriageCategory int               `db:"triage_category" json:"triage_category"`
	ArrivalTime    time.Time         `db:"arrival_time" json:"arrival_time"`
	Vitals         Vitals            `db:"-" json:"vitals"`
	Medications    []MedicationOrder `db:"-" json:"medications"`
	Actions        []ClinicalAction  `db:"-" json:"actions"`
}

func (p *Patient) Clone() *Patient {
	if p == nil {
		return nil
	}
	out := *p
	out.Vitals = p.Vitals.Clone()
	out.Medications = make([]MedicationOrder, len(p.Medications))
	for i := range p.Medications {
		out.Medications[i] = p.Medications[i].Clone()
	}
	out.Actions = make([]ClinicalAction, len(p.Actions))
	for i := range p.Actions {
		out.Actions[i] = p.Actions[i].Clone()
	}
	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
