package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

// Closed action vocabulary. The audit sink rejects nothing, but every
// state-changing operation in the engine maps to exactly one of these.
const (
	AuditAdmitPatient    AuditAction = "ADMIT_PATIENT"
	AuditClearBed        AuditAction = "CLEAR_BED"
	AuditAddAction       AuditAction = "ADD_ACTION"
	AuditCompleteAction  AuditAction = "COMPLETE_ACTION"
	AuditUndoAction      AuditAction = "UNDO_ACTION"
	AuditRemoveAction    AuditAction = "REMOVE_ACTION"
	AuditAddMed          AuditAction = "ADD_MED"
	AuditApplyProtocol   AuditAction = "APPLY_PROTOCOL"
	AuditUpdateMedStatus AuditAction = "UPDATE_MED_STATUS"
	AuditCreateProtocol  AuditAction = "CREATE_PROTOCOL"
)

type AuditMetadataKind string

const (
	AuditMetaBed        AuditMetadataKind = "bed"
	AuditMetaMedication AuditMetadataKind = "medication"
	AuditMetaAction     AuditMetadataKind = "action"
	AuditMetaProtocol   AuditMetadataKind = "protocol"
)

// AuditMetadata is a closed tagged variant: Kind selects which of the
// optional field groups is meaningful. Kept flat rather than as an open
// map so the mirror table has stable columns.
type AuditMetadata struct {
	Kind           AuditMetadataKind `db:"kind" json:"kind"`
	BedID          *uuid.UUID        `db:"bed_id" json:"bed_id,omitempty"`
	BedLabel       string            `db:"bed_label" json:"bed_label,omitempty"`
	MedicationID   *uuid.UUID        `db:"medication_id" json:"medication_id,omitempty"`
	MedicationName string            `db:"medication_name" json:"medication_name,omitempty"`
	ActionID       *uuid.UUID        `db:"action_id" json:"action_id,omitempty"`
	ActionName     string            `db:"action_name" json:"action_name,omitempty"`
	ProtocolName   string            `db:"protocol_name" json:"protocol_name,omitempty"`
}

type AuditEntry struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	UserID    uuid.UUID     `db:"user_id" json:"user_id"`
	UserName  string        `db:"user_name" json:"user_name"`
	UserRole  string        `db:"user_role" json:"user_role"`
	Action    AuditAction   `db:"action" json:"action"`
	Details   string        `db:"details" json:"details"`
	Metadata  AuditMetadata `db:"-" json:"metadata"`
	Timestamp time.Time     `db:"timestamp" json:"timestamp"`
}
