package repository

import (
	"context"
	"time"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/mirror/entity"

	"github.com/google/uuid"
)

type MirrorRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.MirrorMapping, error)
	Create(ctx context.Context, mapping *entity.MirrorMapping) (*entity.MirrorMapping, error)
	UpdateObservedRange(ctx context.Context, id uuid.UUID, start, end time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type mirrorRepository struct {
	db database.IDatabase
}

func NewMirrorRepository(db database.IDatabase) MirrorRepository {
	return &mirrorRepository{db: db}
}

const mappingColumns = `id, owner_id, source_account_id, source_external_id, target_account_id,
	mirror_event_id, mirror_external_id, last_observed_start, last_observed_end, created_at, updated_at`

func (r *mirrorRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.MirrorMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM mirror_mappings WHERE owner_id = $1`
	var mappings []entity.MirrorMapping
	err := r.db.SelectContext(ctx, &mappings, query, ownerID)
	if err != nil {
		logger.Error("MirrorRepository:ListByOwner", "error", err)
		return nil, err
	}
	return mappings, nil
}

func (r *mirrorRepository) Create(ctx context.Context, mapping *entity.MirrorMapping) (*entity.MirrorMapping, error) {
	query := `
		INSERT INTO mirror_mappings (owner_id, source_account_id, source_external_id, target_account_id,
			mirror_event_id, mirror_external_id, last_observed_start, last_observed_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_account_id, source_external_id, target_account_id) DO UPDATE
		SET mirror_event_id = EXCLUDED.mirror_event_id,
		    mirror_external_id = EXCLUDED.mirror_external_id,
		    last_observed_start = EXCLUDED.last_observed_start,
		    last_observed_end = EXCLUDED.last_observed_end,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		mapping.OwnerID, mapping.SourceAccountID, mapping.SourceExternalID, mapping.TargetAccountID,
		mapping.MirrorEventID, mapping.MirrorExternalID, mapping.LastObservedStart, mapping.LastObservedEnd,
	).Scan(&mapping.ID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		logger.Error("MirrorRepository:Create", "error", err)
		return nil, err
	}
	return mapping, nil
}

func (r *mirrorRepository) UpdateObservedRange(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	query := `
		UPDATE mirror_mappings
		SET last_observed_start = $2, last_observed_end = $3, updated_at = NOW()
		WHERE id = $1
	`
	err := r.db.ExecContext(ctx, query, id, start, end)
	if err != nil {
		logger.Error("MirrorRepository:UpdateObservedRange", "mapping_id", id, "error", err)
	}
	return err
}

func (r *mirrorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM mirror_mappings WHERE id = $1`
	err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("MirrorRepository:Delete", "mapping_id", id, "error", err)
	}
	return err
}
