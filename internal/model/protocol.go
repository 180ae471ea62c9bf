package model

import (
	"github.com/google/uuid"
)

// ProtocolMedication is a medication template inside a protocol. Only
// the ordering triple survives snapshotting; status and timestamps of
// the orders a protocol was built from are deliberately dropped.
type ProtocolMedication struct {
	Name  string `db:"name" json:"name"`
	Dose  string `db:"dose" json:"dose"`
	Route string `db:"route" json:"route"`
}

type ProtocolAction struct {
	Type ActionType `db:"type" json:"type"`
	Name string     `db:"name" json:"name"`
}

// MedicationProtocol is a named, reusable bundle of medication and
// action templates applied to a patient in one step.
type MedicationProtocol struct {
	ID          uuid.UUID            `db:"id" json:"id"`
	Name        string               `db:"name" json:"name"`
	Medications []ProtocolMedication `db:"-" json:"medications"`
	Actions     []ProtocolAction     `db:"-" json:"actions"`
}
