package model

import (
	"github.com/google/uuid"
)

// CatalogEntry is one row of the read-only drug catalog supplied to an
// edit session. Dose and Route are the registry defaults and may be
// blank; selection only overwrites the order fields when they are set.
type CatalogEntry struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Dose   string    `db:"dose" json:"dose"`
	Route  string    `db:"route" json:"route"`
	Active bool      `db:"active" json:"active"`
}
