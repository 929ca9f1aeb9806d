package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	calendarEntity "unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/mirror/entity"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
)

// fakeEventRepo is an in-memory event store keyed the way the table is.
type fakeEventRepo struct {
	events map[string]*calendarEntity.Event // accountID/externalID
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*calendarEntity.Event)}
}

func eventKey(accountID uuid.UUID, externalID string) string {
	return accountID.String() + "/" + externalID
}

func (r *fakeEventRepo) Upsert(ctx context.Context, event *calendarEntity.Event) (*calendarEntity.Event, error) {
	key := eventKey(event.AccountID, event.ExternalID)
	if existing, ok := r.events[key]; ok {
		existing.Title = event.Title
		existing.StartTime = event.StartTime
		existing.EndTime = event.EndTime
		existing.LastSyncedAt = event.LastSyncedAt
		*event = *existing
		return event, nil
	}
	event.ID = uuid.New()
	clone := *event
	r.events[key] = &clone
	return event, nil
}

func (r *fakeEventRepo) GetByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*calendarEntity.Event, error) {
	if e, ok := r.events[eventKey(accountID, externalID)]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeEventRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	var out []calendarEntity.Event
	for _, e := range r.events {
		if e.OwnerID == ownerID && e.StartTime.Before(to) && e.EndTime.After(from) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListNonMirrorByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	var out []calendarEntity.Event
	for _, e := range r.events {
		if e.OwnerID == ownerID && !e.IsMirror && e.StartTime.Before(to) && e.EndTime.After(from) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListConflicted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) UpdateConflictFlags(ctx context.Context, events []calendarEntity.Event) error {
	return nil
}

func (r *fakeEventRepo) DeleteByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error {
	delete(r.events, eventKey(accountID, externalID))
	return nil
}

func (r *fakeEventRepo) DeleteVanished(ctx context.Context, accountID uuid.UUID, from, to time.Time, seen []string) error {
	return nil
}

func (r *fakeEventRepo) countMirrors() int {
	n := 0
	for _, e := range r.events {
		if e.IsMirror {
			n++
		}
	}
	return n
}

// fakeMirrorRepo is an in-memory mapping store.
type fakeMirrorRepo struct {
	mappings map[entity.Key]*entity.MirrorMapping
}

func newFakeMirrorRepo() *fakeMirrorRepo {
	return &fakeMirrorRepo{mappings: make(map[entity.Key]*entity.MirrorMapping)}
}

func (r *fakeMirrorRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.MirrorMapping, error) {
	var out []entity.MirrorMapping
	for _, m := range r.mappings {
		if m.OwnerID == ownerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMirrorRepo) Create(ctx context.Context, mapping *entity.MirrorMapping) (*entity.MirrorMapping, error) {
	mapping.ID = uuid.New()
	clone := *mapping
	r.mappings[mapping.Key()] = &clone
	return mapping, nil
}

func (r *fakeMirrorRepo) UpdateObservedRange(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	for _, m := range r.mappings {
		if m.ID == id {
			m.LastObservedStart = start
			m.LastObservedEnd = end
		}
	}
	return nil
}

func (r *fakeMirrorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for key, m := range r.mappings {
		if m.ID == id {
			delete(r.mappings, key)
		}
	}
	return nil
}

// fakeRemote implements the account service surface and records every
// remote write per target account.
type fakeRemote struct {
	accounts []calendarEntity.Account
	creates  map[uuid.UUID]int
	updates  map[uuid.UUID]int
	deletes  map[uuid.UUID]int
	failFor  map[uuid.UUID]error
	nextID   int
}

func newFakeRemote(accounts []calendarEntity.Account) *fakeRemote {
	return &fakeRemote{
		accounts: accounts,
		creates:  make(map[uuid.UUID]int),
		updates:  make(map[uuid.UUID]int),
		deletes:  make(map[uuid.UUID]int),
		failFor:  make(map[uuid.UUID]error),
	}
}

func (s *fakeRemote) GetActiveAccounts(ctx context.Context, ownerID uuid.UUID) ([]calendarEntity.Account, *errors.AppError) {
	return s.accounts, nil
}

func (s *fakeRemote) GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*calendarEntity.Account, *errors.AppError) {
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			return &s.accounts[i], nil
		}
	}
	return nil, errors.NewAppError(errors.ErrNotFound, "not found", nil)
}

func (s *fakeRemote) ConnectAccount(ctx context.Context, account *calendarEntity.Account) (*calendarEntity.Account, *errors.AppError) {
	return account, nil
}

func (s *fakeRemote) DisconnectAccount(ctx context.Context, ownerID, accountID uuid.UUID) *errors.AppError {
	return nil
}

func (s *fakeRemote) ListOwners(ctx context.Context) ([]uuid.UUID, *errors.AppError) {
	return nil, nil
}

func (s *fakeRemote) FetchRemoteEvents(ctx context.Context, account *calendarEntity.Account, from, to time.Time) ([]provider.Event, error) {
	return nil, nil
}

func (s *fakeRemote) CreateRemoteEvent(ctx context.Context, account *calendarEntity.Account, draft provider.EventDraft) (*provider.ExternalEventRef, error) {
	if err := s.failFor[account.ID]; err != nil {
		return nil, err
	}
	s.creates[account.ID]++
	s.nextID++
	return &provider.ExternalEventRef{EventID: fmt.Sprintf("mirror-%d", s.nextID)}, nil
}

func (s *fakeRemote) UpdateRemoteEvent(ctx context.Context, account *calendarEntity.Account, eventID string, draft provider.EventDraft) error {
	if err := s.failFor[account.ID]; err != nil {
		return err
	}
	s.updates[account.ID]++
	return nil
}

func (s *fakeRemote) DeleteRemoteEvent(ctx context.Context, account *calendarEntity.Account, eventID string) error {
	if err := s.failFor[account.ID]; err != nil {
		return err
	}
	s.deletes[account.ID]++
	return nil
}

func makeAccount(ownerID uuid.UUID, p provider.Provider) calendarEntity.Account {
	a := calendarEntity.Account{OwnerID: ownerID, Provider: p, IsActive: true}
	a.ID = uuid.New()
	return a
}

func addEvent(repo *fakeEventRepo, ownerID uuid.UUID, account *calendarEntity.Account, externalID string, start, end time.Time) *calendarEntity.Event {
	e := &calendarEntity.Event{
		OwnerID:    ownerID,
		AccountID:  account.ID,
		Provider:   string(account.Provider),
		ExternalID: externalID,
		Title:      "Team sync",
		StartTime:  start,
		EndTime:    end,
	}
	stored, _ := repo.Upsert(context.Background(), e)
	return stored
}

var mirrorDay = time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

func TestSyncMirrorsCreatesBlockersBothWays(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})

	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))
	addEvent(eventRepo, ownerID, &microsoft, "m-1", mirrorDay.Add(2*time.Hour), mirrorDay.Add(3*time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	if report.Created != 2 {
		t.Fatalf("expected 2 blockers created, got %d", report.Created)
	}
	if remote.creates[google.ID] != 1 || remote.creates[microsoft.ID] != 1 {
		t.Errorf("each account should receive one blocker, got google=%d microsoft=%d",
			remote.creates[google.ID], remote.creates[microsoft.ID])
	}
	if eventRepo.countMirrors() != 2 {
		t.Errorf("expected 2 local mirror events, got %d", eventRepo.countMirrors())
	}
	for _, e := range eventRepo.events {
		if e.IsMirror && e.Title != constants.MirrorBlockerTitle {
			t.Errorf("mirror title must be %q, got %q", constants.MirrorBlockerTitle, e.Title)
		}
	}
}

func TestSyncMirrorsIdempotent(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})
	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	if _, appErr := svc.SyncMirrors(context.Background(), ownerID); appErr != nil {
		t.Fatalf("first pass: %v", appErr)
	}

	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("second pass: %v", appErr)
	}
	if report.Created != 0 || report.Updated != 0 || report.Removed != 0 {
		t.Fatalf("second pass must write nothing, got %+v", report)
	}
	if remote.creates[microsoft.ID] != 1 {
		t.Errorf("remote create must not repeat, got %d", remote.creates[microsoft.ID])
	}
}

func TestSyncMirrorsNeverMirrorsAMirror(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})
	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	for i := 0; i < 3; i++ {
		if _, appErr := svc.SyncMirrors(context.Background(), ownerID); appErr != nil {
			t.Fatalf("pass %d: %v", i, appErr)
		}
	}

	if got := eventRepo.countMirrors(); got != 1 {
		t.Fatalf("one source event across two accounts yields exactly one blocker, got %d", got)
	}
	if remote.creates[google.ID] != 0 {
		t.Errorf("no blocker may land on the source account, got %d", remote.creates[google.ID])
	}
}

func TestSyncMirrorsUpdatesOnRangeChange(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})
	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	if _, appErr := svc.SyncMirrors(context.Background(), ownerID); appErr != nil {
		t.Fatalf("first pass: %v", appErr)
	}

	// The source event moves an hour later.
	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay.Add(time.Hour), mirrorDay.Add(2*time.Hour))

	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("second pass: %v", appErr)
	}
	if report.Updated != 1 {
		t.Fatalf("expected 1 update, got %+v", report)
	}
	if remote.updates[microsoft.ID] != 1 {
		t.Errorf("remote blocker must be moved, got %d updates", remote.updates[microsoft.ID])
	}
}

func TestSyncMirrorsPairFailureIsolation(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})
	remote.failFor[microsoft.ID] = fmt.Errorf("graph API error: 503")

	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))
	addEvent(eventRepo, ownerID, &microsoft, "m-1", mirrorDay.Add(2*time.Hour), mirrorDay.Add(3*time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("pass must not abort on a pair failure: %v", appErr)
	}

	if report.Created != 1 || report.Failed != 1 {
		t.Fatalf("expected 1 created and 1 failed, got %+v", report)
	}
	if remote.creates[google.ID] != 1 {
		t.Errorf("healthy pair must still be mirrored, got %d creates", remote.creates[google.ID])
	}
}

func TestSyncMirrorsRemovesOrphanedBlockers(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)
	microsoft := makeAccount(ownerID, provider.Microsoft)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google, microsoft})
	source := addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	if _, appErr := svc.SyncMirrors(context.Background(), ownerID); appErr != nil {
		t.Fatalf("first pass: %v", appErr)
	}

	// The source event disappears upstream.
	_ = eventRepo.DeleteByAccountAndExternalID(context.Background(), source.AccountID, source.ExternalID)

	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("cleanup pass: %v", appErr)
	}
	if report.Removed != 1 {
		t.Fatalf("expected 1 blocker removed, got %+v", report)
	}
	if remote.deletes[microsoft.ID] != 1 {
		t.Errorf("remote blocker must be deleted, got %d", remote.deletes[microsoft.ID])
	}
	if eventRepo.countMirrors() != 0 {
		t.Errorf("local mirror event must be gone, got %d", eventRepo.countMirrors())
	}
}

func TestSyncMirrorsSingleAccountNoOp(t *testing.T) {
	ownerID := uuid.New()
	google := makeAccount(ownerID, provider.Google)

	eventRepo := newFakeEventRepo()
	mapRepo := newFakeMirrorRepo()
	remote := newFakeRemote([]calendarEntity.Account{google})
	addEvent(eventRepo, ownerID, &google, "g-1", mirrorDay, mirrorDay.Add(time.Hour))

	svc := NewMirrorService(remote, eventRepo, mapRepo)
	report, appErr := svc.SyncMirrors(context.Background(), ownerID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if report.Created != 0 {
		t.Fatalf("a single account has nowhere to mirror, got %+v", report)
	}
}
