package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/core/logger"
	"unified-calendar/core/utils"
	"unified-calendar/modules/user/entity"
	"unified-calendar/modules/user/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, *errors.AppError)
	GetByPublicUsername(ctx context.Context, username string) (*entity.User, *errors.AppError)
	EnsurePublicUsername(ctx context.Context, id uuid.UUID) (string, *errors.AppError)
	UpdateSchedulingDefaults(ctx context.Context, id uuid.UUID, timezone string, slotDuration int) (*entity.User, *errors.AppError)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, *errors.AppError) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}
	return user, nil
}

func (s *userService) GetByPublicUsername(ctx context.Context, username string) (*entity.User, *errors.AppError) {
	user, err := s.repo.GetByPublicUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Owner not found", nil)
	}
	return user, nil
}

// EnsurePublicUsername assigns a stable public booking-page username if
// the user does not have one yet.
func (s *userService) EnsurePublicUsername(ctx context.Context, id uuid.UUID) (string, *errors.AppError) {
	user, appErr := s.GetByID(ctx, id)
	if appErr != nil {
		return "", appErr
	}
	if user.PublicUsername != nil && *user.PublicUsername != "" {
		return *user.PublicUsername, nil
	}

	base := slug.Make(user.Name)
	if base == "" {
		base = slug.Make(strings.SplitN(user.Email, "@", 2)[0])
	}
	username := base + "-" + utils.GenerateShortSuffix()

	if err := s.repo.SetPublicUsername(ctx, id, username); err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to save public username", err)
	}

	logger.Info("UserService:EnsurePublicUsername:Assigned", "user_id", id, "username", username)
	return username, nil
}

func (s *userService) UpdateSchedulingDefaults(ctx context.Context, id uuid.UUID, timezone string, slotDuration int) (*entity.User, *errors.AppError) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown timezone", err)
	}
	allowed := false
	for _, d := range constants.AllowedSlotDurations {
		if slotDuration == d {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.NewAppError(errors.ErrInvalidInput,
			fmt.Sprintf("default_slot_duration_minutes must be one of %v", constants.AllowedSlotDurations), nil)
	}

	if err := s.repo.UpdateSchedulingDefaults(ctx, id, timezone, slotDuration); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update scheduling defaults", err)
	}
	return s.GetByID(ctx, id)
}
