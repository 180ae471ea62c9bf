package model

import (
	"github.com/google/uuid"
)

type BedStatus string

const (
	BedStatusEmpty          BedStatus = "EMPTY"
	BedStatusCleaning       BedStatus = "CLEANING"
	BedStatusWaitingExam    BedStatus = "WAITING_EXAM"
	BedStatusOccupied       BedStatus = "OCCUPIED"
	BedStatusWaitingResults BedStatus = "WAITING_RESULTS"
	BedStatusObservation    BedStatus = "OBSERVATION"
)

type Bed struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Label            string     `db:"label" json:"label"`
	Section          string     `db:"section" json:"section"`
	Status           BedStatus  `db:"status" json:"status"`
	Comment          string     `db:"comment" json:"comment"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	Patient          *Patient   `db:"-" json:"patient,omitempty"`
}

// IsTransferTarget reports whether the bed can receive a patient moved
// from another bed.
func (b *Bed) IsTransferTarget() bool {
	return b.Status == BedStatusEmpty || b.Status == BedStatusCleaning
}

// Clone returns a deep copy. The edit session keeps one clone as the
// pristine snapshot for discard, so the copy must share no slices or
// pointers with the original.
func (b *Bed) Clone() *Bed {
	if b == nil {
		return nil
	}
	out := *b
	if b.AssignedDoctorID != nil {
		id := *b.AssignedDoctorID
		out.AssignedDoctorID = &id
	}
	out.Patient = b.Patient.Clone()
	return &out
}
