package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
        INSERT INTO audit_entries (
            id, user_id, user_name, user_role, action, details, metadata, timestamp
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			entry.ID,
			entry.UserID,
			entry.UserName,
			entry.UserRole,
			entry.Action,
			entry.Details,
			metadata,
			entry.Timestamp,
		)
		return err
	})
}

func (r *auditRepository) List(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	type auditRow struct {
		model.AuditEntry
		RawMetadata json.RawMessage `db:"metadata"`
	}

	var rows []auditRow
	query := `
        SELECT id, user_id, user_name, user_role, action, details, metadata, timestamp
        FROM audit_entries
        ORDER BY timestamp DESC
        LIMIT $1
    `
	if err := r.GetDB().SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*model.AuditEntry, 0, len(rows))
	for i := range rows {
		entry := rows[i].AuditEntry
		if len(rows[i].RawMetadata) > 0 {
			if err := json.Unmarshal(rows[i].RawMetadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM audit_entries WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit entries: %w", err)
	}
	return result.RowsAffected()
}
