package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	query := `SELECT id, name, role, email, active FROM staff WHERE id = $1`
	if err := r.GetDB().GetContext(ctx, &staff, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("staff %s not found", id)
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	query := `SELECT id, name, role, email, active FROM staff WHERE active = TRUE ORDER BY name`
	if err := r.GetDB().SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}
