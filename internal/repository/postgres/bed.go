package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type bedRepository struct {
	BaseRepository
}

func NewBedRepository(base BaseRepository) repository.BedRepository {
	return &bedRepository{base}
}

// bedRow maps the beds table. The patient record, orders and actions
// included, lives in one jsonb column: the record is read and replaced
// as a unit, which is exactly the last-write-wins save model.
type bedRow struct {
	ID               uuid.UUID       `db:"id"`
	Label            string          `db:"label"`
	Section          string          `db:"section"`
	Status           string          `db:"status"`
	Comment          string          `db:"comment"`
	AssignedDoctorID *uuid.UUID      `db:"assigned_doctor_id"`
	Patient          json.RawMessage `db:"patient"`
}

func (row *bedRow) toModel() (*model.Bed, error) {
	bed := &model.Bed{
		ID:               row.ID,
		Label:            row.Label,
		Section:          row.Section,
		Status:           model.BedStatus(row.Status),
		Comment:          row.Comment,
		AssignedDoctorID: row.AssignedDoctorID,
	}
	if len(row.Patient) > 0 && string(row.Patient) != "null" {
		var patient model.Patient
		if err := json.Unmarshal(row.Patient, &patient); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patient for bed %s: %w", row.ID, err)
		}
		bed.Patient = &patient
	}
	return bed, nil
}

func (r *bedRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	var row bedRow
	query := `SELECT id, label, section, status, comment, assigned_doctor_id, patient FROM beds WHERE id = $1`
	if err := r.GetDB().GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("bed %s not found", id)
		}
		return nil, fmt.Errorf("failed to get bed: %w", err)
	}
	return row.toModel()
}

func (r *bedRepository) List(ctx context.Context) ([]*model.Bed, error) {
	return r.list(ctx, `SELECT id, label, section, status, comment, assigned_doctor_id, patient FROM beds ORDER BY section, label`)
}

func (r *bedRepository) ListTransferTargets(ctx context.Context) ([]*model.Bed, error) {
	return r.list(ctx, `SELECT id, label, section, status, comment, assigned_doctor_id, patient FROM beds WHERE status IN ('EMPTY', 'CLEANING') ORDER BY section, label`)
}

func (r *bedRepository) list(ctx context.Context, query string) ([]*model.Bed, error) {
	var rows []bedRow
	if err := r.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}

	beds := make([]*model.Bed, 0, len(rows))
	for i := range rows {
		bed, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		beds = append(beds, bed)
	}
	return beds, nil
}

func (r *bedRepository) Update(ctx context.Context, bed *model.Bed) error {
	patient, err := json.Marshal(bed.Patient)
	if err != nil {
		return fmt.Errorf("failed to marshal patient: %w", err)
	}

	query := `
        UPDATE beds
        SET label = $2, section = $3, status = $4, comment = $5,
            assigned_doctor_id = $6, patient = $7, updated_at = NOW()
        WHERE id = $1
    `
	_, err = r.GetDB().ExecContext(ctx, query,
		bed.ID, bed.Label, bed.Section, bed.Status, bed.Comment,
		bed.AssignedDoctorID, patient,
	)
	if err != nil {
		return fmt.Errorf("failed to update bed: %w", err)
	}
	return nil
}

// Transfer moves the patient record from source to target in one
// transaction; the source bed goes to CLEANING.
func (r *bedRepository) Transfer(ctx context.Context, sourceID, targetID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var patient json.RawMessage
		if err := tx.GetContext(ctx, &patient, `SELECT patient FROM beds WHERE id = $1 FOR UPDATE`, sourceID); err != nil {
			return fmt.Errorf("failed to lock source bed: %w", err)
		}

		var targetStatus string
		if err := tx.GetContext(ctx, &targetStatus, `SELECT status FROM beds WHERE id = $1 FOR UPDATE`, targetID); err != nil {
			return fmt.Errorf("failed to lock target bed: %w", err)
		}
		if targetStatus != string(model.BedStatusEmpty) && targetStatus != string(model.BedStatusCleaning) {
			return fmt.Errorf("target bed %s is not available", targetID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE beds SET patient = $2, status = $3, updated_at = NOW() WHERE id = $1`,
			targetID, patient, model.BedStatusOccupied,
		); err != nil {
			return fmt.Errorf("failed to update target bed: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE beds SET patient = NULL, status = $2, updated_at = NOW() WHERE id = $1`,
			sourceID, model.BedStatusCleaning,
		); err != nil {
			return fmt.Errorf("failed to update source bed: %w", err)
		}
		return nil
	})
}
