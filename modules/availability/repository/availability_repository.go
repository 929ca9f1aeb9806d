package repository

import (
	"context"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/availability/entity"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.AvailabilityRule, error)
	ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rules []entity.AvailabilityRule) ([]entity.AvailabilityRule, error)
}

type availabilityRepository struct {
	db database.IDatabase
}

func NewAvailabilityRepository(db database.IDatabase) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.AvailabilityRule, error) {
	query := `
		SELECT id, owner_id, day_of_week, start_time, end_time, timezone, slot_duration_minutes, created_at, updated_at
		FROM availability_rules
		WHERE owner_id = $1
		ORDER BY day_of_week ASC
	`
	var rules []entity.AvailabilityRule
	err := r.db.SelectContext(ctx, &rules, query, ownerID)
	if err != nil {
		logger.Error("AvailabilityRepository:GetByOwner", "error", err)
		return nil, err
	}
	return rules, nil
}

// ReplaceForOwner swaps the owner's entire rule set in one transaction.
// Saving is replace, not merge, so a removed weekday actually closes.
func (r *availabilityRepository) ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rules []entity.AvailabilityRule) ([]entity.AvailabilityRule, error) {
	tx, err := r.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_rules WHERE owner_id = $1`, ownerID); err != nil {
		logger.Error("AvailabilityRepository:ReplaceForOwner:Delete", "error", err)
		return nil, err
	}

	insert := `
		INSERT INTO availability_rules (owner_id, day_of_week, start_time, end_time, timezone, slot_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	for i := range rules {
		rules[i].OwnerID = ownerID
		err := tx.QueryRowContext(ctx, insert,
			ownerID, rules[i].DayOfWeek, rules[i].StartTime, rules[i].EndTime,
			rules[i].Timezone, rules[i].SlotDurationMinutes,
		).Scan(&rules[i].ID, &rules[i].CreatedAt, &rules[i].UpdatedAt)
		if err != nil {
			logger.Error("AvailabilityRepository:ReplaceForOwner:Insert", "day", rules[i].DayOfWeek, "error", err)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rules, nil
}
