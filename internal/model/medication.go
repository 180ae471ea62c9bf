package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MedicationStatus string

const (
	MedicationStatusPending   MedicationStatus = "PENDING"
	MedicationStatusGiven     MedicationStatus = "GIVEN"
	MedicationStatusCancelled MedicationStatus = "CANCELLED"
)

// IsTerminal reports whether the status permits no further transition.
// Only PENDING orders may move; GIVEN and CANCELLED are final.
func (s MedicationStatus) IsTerminal() bool {
	return s == MedicationStatusGiven || s == MedicationStatusCancelled
}

type MedicationOrder struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	Name           string           `db:"name" json:"name"`
	Dose           string           `db:"dose" json:"dose"`
	Route          string           `db:"route" json:"route"`
	OrderedBy      string           `db:"ordered_by" json:"ordered_by"`
	OrderedAt      time.Time        `db:"ordered_at" json:"ordered_at"`
	Status         MedicationStatus `db:"status" json:"status"`
	AdministeredBy *string          `db:"administered_by" json:"administered_by,omitempty"`
	AdministeredAt *time.Time       `db:"administered_at" json:"administered_at,omitempty"`
	ReminderAt     *time.Time       `db:"reminder_at" json:"reminder_at,omitempty"`
}

// NameMatches compares order names the way duplicate detection does:
// case-insensitively, ignoring surrounding whitespace.
func (o *MedicationOrder) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(o.Name), strings.TrimSpace(name))
}

func (o *MedicationOrder) Clone() MedicationOrder {
	out := *o
	if o.AdministeredBy != nil {
		s := *o.AdministeredBy
		out.AdministeredBy = &s
	}
	out.AdministeredAt = cloneTime(o.AdministeredAt)
	out.ReminderAt = cloneTime(o.ReminderAt)
	return out
}
