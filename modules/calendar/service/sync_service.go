package service

import (
	"context"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/core/logger"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/repository"

	"github.com/google/uuid"
)

// SyncService pulls provider events into the local store. One account
// failing never blocks the rest; each account's outcome is reported
// independently.
type SyncService interface {
	SyncOwner(ctx context.Context, ownerID uuid.UUID) (*SyncSummary, *errors.AppError)
	SyncAccount(ctx context.Context, account *entity.Account) error
}

// SyncSummary reports per-account outcomes of one sync pass.
type SyncSummary struct {
	Synced []uuid.UUID `json:"synced"`
	Failed []uuid.UUID `json:"failed"`
}

type syncService struct {
	accountSvc  AccountService
	eventRepo   repository.EventRepository
	accountRepo repository.AccountRepository
	conflictSvc ConflictService
}

func NewSyncService(
	accountSvc AccountService,
	eventRepo repository.EventRepository,
	accountRepo repository.AccountRepository,
	conflictSvc ConflictService,
) SyncService {
	return &syncService{
		accountSvc:  accountSvc,
		eventRepo:   eventRepo,
		accountRepo: accountRepo,
		conflictSvc: conflictSvc,
	}
}

// SyncWindow returns the rolling window fetched from providers.
func SyncWindow(now time.Time) (time.Time, time.Time) {
	from := now.AddDate(0, 0, -constants.SyncWindowDaysBack)
	to := now.AddDate(0, 0, constants.SyncWindowDaysForward)
	return from, to
}

func (s *syncService) SyncOwner(ctx context.Context, ownerID uuid.UUID) (*SyncSummary, *errors.AppError) {
	accounts, appErr := s.accountSvc.GetActiveAccounts(ctx, ownerID)
	if appErr != nil {
		return nil, appErr
	}

	summary := &SyncSummary{}
	for i := range accounts {
		if err := s.SyncAccount(ctx, &accounts[i]); err != nil {
			logger.Error("SyncService:SyncOwner:AccountFailed",
				"account_id", accounts[i].ID, "provider", accounts[i].Provider, "error", err)
			summary.Failed = append(summary.Failed, accounts[i].ID)
			continue
		}
		summary.Synced = append(summary.Synced, accounts[i].ID)
	}

	from, to := SyncWindow(time.Now())
	if appErr := s.conflictSvc.Recompute(ctx, ownerID, from, to); appErr != nil {
		return nil, appErr
	}

	logger.Info("SyncService:SyncOwner:Done",
		"owner_id", ownerID, "synced", len(summary.Synced), "failed", len(summary.Failed))
	return summary, nil
}

func (s *syncService) SyncAccount(ctx context.Context, account *entity.Account) error {
	now := time.Now()
	from, to := SyncWindow(now)

	remote, err := s.accountSvc.FetchRemoteEvents(ctx, account, from, to)
	if err != nil {
		return err
	}

	seen := make([]string, 0, len(remote))
	for _, rev := range remote {
		if rev.Cancelled {
			// A cancelled occurrence is removed rather than stored.
			_ = s.eventRepo.DeleteByAccountAndExternalID(ctx, account.ID, rev.ExternalID)
			continue
		}

		event := &entity.Event{
			OwnerID:      account.OwnerID,
			AccountID:    account.ID,
			Provider:     string(account.Provider),
			ExternalID:   rev.ExternalID,
			Title:        rev.Title,
			StartTime:    rev.Start,
			EndTime:      rev.End,
			AllDay:       rev.AllDay,
			LastSyncedAt: now,
		}
		if rev.Location != "" {
			loc := rev.Location
			event.Location = &loc
		}
		if _, err := s.eventRepo.Upsert(ctx, event); err != nil {
			logger.Error("SyncService:SyncAccount:UpsertFailed",
				"account_id", account.ID, "external_id", rev.ExternalID, "error", err)
			continue
		}
		seen = append(seen, rev.ExternalID)
	}

	if err := s.eventRepo.DeleteVanished(ctx, account.ID, from, to, seen); err != nil {
		return err
	}
	return s.accountRepo.TouchLastSynced(ctx, account.ID, now)
}
