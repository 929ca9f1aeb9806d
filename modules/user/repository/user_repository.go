package repository

import (
	"context"
	"database/sql"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/user/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByPublicUsername(ctx context.Context, username string) (*entity.User, error)
	SetPublicUsername(ctx context.Context, id uuid.UUID, username string) error
	UpdateSchedulingDefaults(ctx context.Context, id uuid.UUID, timezone string, slotDuration int) error
}

type userRepository struct {
	db database.IDatabase
}

func NewUserRepository(db database.IDatabase) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, email, name, public_username, timezone, default_slot_duration_minutes, created_at, updated_at
		FROM users WHERE id = $1
	`
	var user entity.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetByID", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByPublicUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, email, name, public_username, timezone, default_slot_duration_minutes, created_at, updated_at
		FROM users WHERE public_username = $1
	`
	var user entity.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetByPublicUsername", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetPublicUsername(ctx context.Context, id uuid.UUID, username string) error {
	query := `UPDATE users SET public_username = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, username); err != nil {
		logger.Error("UserRepository:SetPublicUsername", "error", err)
		return err
	}
	return nil
}

func (r *userRepository) UpdateSchedulingDefaults(ctx context.Context, id uuid.UUID, timezone string, slotDuration int) error {
	query := `
		UPDATE users
		SET timezone = $2, default_slot_duration_minutes = $3, updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id, timezone, slotDuration); err != nil {
		logger.Error("UserRepository:UpdateSchedulingDefaults", "error", err)
		return err
	}
	return nil
}
