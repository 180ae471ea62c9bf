package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

func (r *catalogRepository) List(ctx context.Context) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	// Registry order is the display order the matcher preserves.
	query := `SELECT id, name, dose, route, active FROM medication_catalog ORDER BY position`
	if err := r.GetDB().SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return entries, nil
}

func (r *catalogRepository) ListTopMedications(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	var names []string
	query := `
        SELECT medication_name
        FROM user_medication_stats
        WHERE user_id = $1
        ORDER BY order_count DESC, medication_name
        LIMIT $2
    `
	if err := r.GetDB().SelectContext(ctx, &names, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list top medications: %w", err)
	}
	return names, nil
}
