package model

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTypeLabs       ActionType = "LABS"
	ActionTypeXRay       ActionType = "XRAY"
	ActionTypeCT         ActionType = "CT"
	ActionTypeEKG        ActionType = "EKG"
	ActionTypeUltrasound ActionType = "ULTRASOUND"
	ActionTypeConsult    ActionType = "CONSULT"
	ActionTypeOther      ActionType = "OTHER"
)

// ClinicalAction tracks a lab, imaging order, consult or similar task
// requested for the patient. Unlike medication orders, actions may be
// removed outright regardless of completion state.
type ClinicalAction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Type        ActionType `db:"type" json:"type"`
	Name        string     `db:"name" json:"name"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	RequestedAt time.Time  `db:"requested_at" json:"requested_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

func (a *ClinicalAction) Clone() ClinicalAction {
	out := *a
	out.CompletedAt = cloneTime(a.CompletedAt)
	return out
}
