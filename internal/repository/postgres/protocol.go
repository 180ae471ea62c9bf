package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type protocolRepository struct {
	BaseRepository
}

func NewProtocolRepository(base BaseRepository) repository.ProtocolRepository {
	return &protocolRepository{base}
}

type protocolRow struct {
	ID          uuid.UUID       `db:"id"`
	Name        string          `db:"name"`
	Medications json.RawMessage `db:"medications"`
	Actions     json.RawMessage `db:"actions"`
}

// toModel tolerates NULL jsonb columns: a protocol with no actions is
// a valid row, not a decode failure.
func (row *protocolRow) toModel() (*model.MedicationProtocol, error) {
	protocol := &model.MedicationProtocol{ID: row.ID, Name: row.Name}
	if len(row.Medications) > 0 && string(row.Medications) != "null" {
		if err := json.Unmarshal(row.Medications, &protocol.Medications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal protocol %s medications: %w", row.ID, err)
		}
	}
	if len(row.Actions) > 0 && string(row.Actions) != "null" {
		if err := json.Unmarshal(row.Actions, &protocol.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal protocol %s actions: %w", row.ID, err)
		}
	}
	return protocol, nil
}

func (r *protocolRepository) List(ctx context.Context) ([]*model.MedicationProtocol, error) {
	var rows []protocolRow
	query := `SELECT id, name, medications, actions FROM medication_protocols ORDER BY name`
	if err := r.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}

	protocols := make([]*model.MedicationProtocol, 0, len(rows))
	for i := range rows {
		protocol, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		protocols = append(protocols, protocol)
	}
	return protocols, nil
}

func (r *protocolRepository) Create(ctx context.Context, protocol *model.MedicationProtocol) error {
	medications, err := json.Marshal(protocol.Medications)
	if err != nil {
		return fmt.Errorf("failed to marshal medications: %w", err)
	}
	actions, err := json.Marshal(protocol.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
        INSERT INTO medication_protocols (id, name, medications, actions, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, protocol.ID, protocol.Name, medications, actions)
		return err
	})
}

func (r *protocolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM medication_protocols WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete protocol: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("protocol %s not found", id)
	}
	return nil
}
