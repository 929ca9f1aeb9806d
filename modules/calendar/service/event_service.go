package service

import (
	"context"
	"fmt"
	"time"

	"unified-calendar/core/errors"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/repository"

	"github.com/google/uuid"
)

// EventService reads the unified timeline. Queries take an explicit
// account filter; an empty filter means every account the user owns.
type EventService interface {
	ListEvents(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]entity.Event, *errors.AppError)
}

type eventService struct {
	eventRepo   repository.EventRepository
	accountRepo repository.AccountRepository
}

func NewEventService(eventRepo repository.EventRepository, accountRepo repository.AccountRepository) EventService {
	return &eventService{eventRepo: eventRepo, accountRepo: accountRepo}
}

func (s *eventService) ListEvents(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]entity.Event, *errors.AppError) {
	// Reject account ids that do not belong to the caller before they
	// reach the query.
	if len(accountIDs) > 0 {
		owned, err := s.accountRepo.GetActiveByOwner(ctx, ownerID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to verify account ownership", err)
		}
		ownedSet := make(map[uuid.UUID]struct{}, len(owned))
		for i := range owned {
			ownedSet[owned[i].ID] = struct{}{}
		}
		for _, id := range accountIDs {
			if _, ok := ownedSet[id]; !ok {
				return nil, errors.NewAppError(errors.ErrNotFound, fmt.Sprintf("Account %s not found", id), nil)
			}
		}
	}

	events, err := s.eventRepo.ListByOwner(ctx, ownerID, accountIDs, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}
	return events, nil
}
