package model

import (
	"github.com/google/uuid"
)

// Staff is a read-only directory row: doctors and nurses selectable as
// the ordering or administering clinician during an edit session.
type Staff struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Role   string    `db:"role" json:"role"`
	Email  string    `db:"email" json:"email"`
	Active bool      `db:"active" json:"active"`
}
