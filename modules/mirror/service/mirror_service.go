package service

import (
	"context"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/core/logger"
	calendarEntity "unified-calendar/modules/calendar/entity"
	calendarRepository "unified-calendar/modules/calendar/repository"
	calendarService "unified-calendar/modules/calendar/service"
	"unified-calendar/modules/mirror/entity"
	"unified-calendar/modules/mirror/repository"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
)

// MirrorService keeps every real event blocked out on the owner's other
// accounts. Blockers are privacy-stripped: fixed title, no attendees,
// no reminders, private visibility. Mirrors never cascade; only
// non-mirror events are sources.
type MirrorService interface {
	SyncMirrors(ctx context.Context, ownerID uuid.UUID) (*SyncReport, *errors.AppError)
}

// SyncReport counts the outcome of one mirror pass.
type SyncReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

type mirrorService struct {
	accountSvc calendarService.AccountService
	eventRepo  calendarRepository.EventRepository
	mapRepo    repository.MirrorRepository
}

func NewMirrorService(
	accountSvc calendarService.AccountService,
	eventRepo calendarRepository.EventRepository,
	mapRepo repository.MirrorRepository,
) MirrorService {
	return &mirrorService{
		accountSvc: accountSvc,
		eventRepo:  eventRepo,
		mapRepo:    mapRepo,
	}
}

func (s *mirrorService) SyncMirrors(ctx context.Context, ownerID uuid.UUID) (*SyncReport, *errors.AppError) {
	report := &SyncReport{}

	accounts, appErr := s.accountSvc.GetActiveAccounts(ctx, ownerID)
	if appErr != nil {
		return nil, appErr
	}
	if len(accounts) < 2 {
		return report, nil
	}
	accountByID := make(map[uuid.UUID]*calendarEntity.Account, len(accounts))
	for i := range accounts {
		accountByID[accounts[i].ID] = &accounts[i]
	}

	from, to := calendarService.SyncWindow(time.Now())
	events, err := s.eventRepo.ListNonMirrorByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load source events", err)
	}

	mappings, err := s.mapRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load mirror mappings", err)
	}
	mappingByKey := make(map[entity.Key]*entity.MirrorMapping, len(mappings))
	for i := range mappings {
		mappingByKey[mappings[i].Key()] = &mappings[i]
	}

	sourceKeys := make(map[entity.Key]struct{})
	for i := range events {
		event := &events[i]
		if event.Malformed() {
			logger.Warn("MirrorService:SyncMirrors:SkipMalformed", "event_id", event.ID)
			continue
		}
		source, ok := accountByID[event.AccountID]
		if !ok {
			continue
		}
		for j := range accounts {
			target := &accounts[j]
			if target.ID == source.ID {
				continue
			}
			key := entity.Key{
				SourceAccountID:  source.ID,
				SourceExternalID: event.ExternalID,
				TargetAccountID:  target.ID,
			}
			sourceKeys[key] = struct{}{}

			// Each pair fails alone; one broken target never blocks the
			// rest of the pass.
			if mapping, exists := mappingByKey[key]; exists {
				if err := s.refreshMirror(ctx, target, mapping, event, report); err != nil {
					logger.Error("MirrorService:SyncMirrors:RefreshFailed",
						"source_event", event.ExternalID, "target_account", target.ID, "error", err)
					report.Failed++
				}
			} else {
				if err := s.createMirror(ctx, ownerID, target, event, report); err != nil {
					logger.Error("MirrorService:SyncMirrors:CreateFailed",
						"source_event", event.ExternalID, "target_account", target.ID, "error", err)
					report.Failed++
				}
			}
		}
	}

	s.cleanupOrphans(ctx, accountByID, mappings, sourceKeys, from, to, report)

	logger.Info("MirrorService:SyncMirrors:Done",
		"owner_id", ownerID,
		"created", report.Created, "updated", report.Updated,
		"removed", report.Removed, "failed", report.Failed)
	return report, nil
}

func (s *mirrorService) createMirror(ctx context.Context, ownerID uuid.UUID, target *calendarEntity.Account, source *calendarEntity.Event, report *SyncReport) error {
	draft := provider.BlockerDraft(constants.MirrorBlockerTitle, source.StartTime, source.EndTime)
	ref, err := s.accountSvc.CreateRemoteEvent(ctx, target, draft)
	if err != nil {
		return err
	}

	sourceAccountID := source.AccountID
	sourceExternalID := source.ExternalID
	mirrorEvent := &calendarEntity.Event{
		OwnerID:                ownerID,
		AccountID:              target.ID,
		Provider:               string(target.Provider),
		ExternalID:             ref.EventID,
		Title:                  constants.MirrorBlockerTitle,
		StartTime:              source.StartTime,
		EndTime:                source.EndTime,
		IsMirror:               true,
		MirrorSourceAccountID:  &sourceAccountID,
		MirrorSourceExternalID: &sourceExternalID,
		LastSyncedAt:           time.Now(),
	}
	stored, err := s.eventRepo.Upsert(ctx, mirrorEvent)
	if err != nil {
		return err
	}

	mapping := &entity.MirrorMapping{
		OwnerID:           ownerID,
		SourceAccountID:   source.AccountID,
		SourceExternalID:  source.ExternalID,
		TargetAccountID:   target.ID,
		MirrorEventID:     &stored.ID,
		MirrorExternalID:  ref.EventID,
		LastObservedStart: source.StartTime,
		LastObservedEnd:   source.EndTime,
	}
	if _, err := s.mapRepo.Create(ctx, mapping); err != nil {
		return err
	}
	report.Created++
	return nil
}

func (s *mirrorService) refreshMirror(ctx context.Context, target *calendarEntity.Account, mapping *entity.MirrorMapping, source *calendarEntity.Event, report *SyncReport) error {
	if mapping.LastObservedStart.Equal(source.StartTime) && mapping.LastObservedEnd.Equal(source.EndTime) {
		return nil
	}

	draft := provider.BlockerDraft(constants.MirrorBlockerTitle, source.StartTime, source.EndTime)
	if err := s.accountSvc.UpdateRemoteEvent(ctx, target, mapping.MirrorExternalID, draft); err != nil {
		return err
	}

	sourceAccountID := source.AccountID
	sourceExternalID := source.ExternalID
	mirrorEvent := &calendarEntity.Event{
		OwnerID:                mapping.OwnerID,
		AccountID:              target.ID,
		Provider:               string(target.Provider),
		ExternalID:             mapping.MirrorExternalID,
		Title:                  constants.MirrorBlockerTitle,
		StartTime:              source.StartTime,
		EndTime:                source.EndTime,
		IsMirror:               true,
		MirrorSourceAccountID:  &sourceAccountID,
		MirrorSourceExternalID: &sourceExternalID,
		LastSyncedAt:           time.Now(),
	}
	if _, err := s.eventRepo.Upsert(ctx, mirrorEvent); err != nil {
		return err
	}

	if err := s.mapRepo.UpdateObservedRange(ctx, mapping.ID, source.StartTime, source.EndTime); err != nil {
		return err
	}
	report.Updated++
	return nil
}

// cleanupOrphans removes blockers whose source event vanished. Only
// mappings whose last observed range overlaps the sync window are
// judged; anything outside it simply was not fetched this pass.
func (s *mirrorService) cleanupOrphans(ctx context.Context, accountByID map[uuid.UUID]*calendarEntity.Account, mappings []entity.MirrorMapping, sourceKeys map[entity.Key]struct{}, from, to time.Time, report *SyncReport) {
	for i := range mappings {
		mapping := &mappings[i]
		if _, alive := sourceKeys[mapping.Key()]; alive {
			continue
		}
		if !mapping.LastObservedStart.Before(to) || !mapping.LastObservedEnd.After(from) {
			continue
		}
		target, ok := accountByID[mapping.TargetAccountID]
		if !ok {
			continue
		}

		if err := s.accountSvc.DeleteRemoteEvent(ctx, target, mapping.MirrorExternalID); err != nil {
			logger.Error("MirrorService:CleanupOrphans:RemoteDeleteFailed",
				"mapping_id", mapping.ID, "error", err)
			report.Failed++
			continue
		}
		if err := s.eventRepo.DeleteByAccountAndExternalID(ctx, mapping.TargetAccountID, mapping.MirrorExternalID); err != nil {
			report.Failed++
			continue
		}
		if err := s.mapRepo.Delete(ctx, mapping.ID); err != nil {
			report.Failed++
			continue
		}
		report.Removed++
	}
}
