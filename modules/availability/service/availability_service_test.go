package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"unified-calendar/core/interval"
	"unified-calendar/modules/availability/entity"
	bookingEntity "unified-calendar/modules/booking/entity"
	calendarEntity "unified-calendar/modules/calendar/entity"

	"github.com/google/uuid"
)

// Monday 2025-03-03 in UTC.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func mondayAt(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func weekdayRule(day int, start, end string) entity.AvailabilityRule {
	return entity.AvailabilityRule{
		DayOfWeek:           day,
		StartTime:           start,
		EndTime:             end,
		Timezone:            "UTC",
		SlotDurationMinutes: 30,
	}
}

func TestComputeFreeSlotsSplitsAroundBusy(t *testing.T) {
	rules := []entity.AvailabilityRule{weekdayRule(1, "10:00", "18:00")}
	busy := []interval.Interval{{Start: mondayAt(14, 0), End: mondayAt(15, 0)}}

	slots := computeFreeSlots(rules, busy, monday, monday.AddDate(0, 0, 1), 30, monday)

	// 10:00-14:00 yields 8 slots, 15:00-18:00 yields 6.
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	if !slots[7].End.Equal(mondayAt(14, 0)) {
		t.Errorf("slots must run up to the busy start, last morning slot ends %v", slots[7].End)
	}
	if !slots[8].Start.Equal(mondayAt(15, 0)) {
		t.Errorf("slots must resume at the busy end, got %v", slots[8].Start)
	}
}

func TestComputeFreeSlotsTouchingBusyDoesNotShrink(t *testing.T) {
	// Busy block ends exactly when the window opens.
	rules := []entity.AvailabilityRule{weekdayRule(1, "10:00", "12:00")}
	busy := []interval.Interval{{Start: mondayAt(9, 0), End: mondayAt(10, 0)}}

	slots := computeFreeSlots(rules, busy, monday, monday.AddDate(0, 0, 1), 30, monday)

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(mondayAt(10, 0)) {
		t.Errorf("first slot should start at window open, got %v", slots[0].Start)
	}
}

func TestComputeFreeSlotsDiscardsShortRemainder(t *testing.T) {
	// 10:00-10:45 with 30-minute slots fits exactly one slot.
	rules := []entity.AvailabilityRule{weekdayRule(1, "10:00", "10:45")}

	slots := computeFreeSlots(rules, nil, monday, monday.AddDate(0, 0, 1), 30, monday)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].End.Equal(mondayAt(10, 30)) {
		t.Errorf("remainder shorter than the duration must be dropped, got end %v", slots[0].End)
	}
}

func TestComputeFreeSlotsWithholdsPastStarts(t *testing.T) {
	rules := []entity.AvailabilityRule{weekdayRule(1, "10:00", "12:00")}
	now := mondayAt(10, 45)

	slots := computeFreeSlots(rules, nil, monday, monday.AddDate(0, 0, 1), 30, now)

	for _, s := range slots {
		if s.Start.Before(now) {
			t.Fatalf("slot starting %v is in the past relative to %v", s.Start, now)
		}
	}
	if len(slots) != 2 {
		t.Fatalf("expected 11:00 and 11:30 slots only, got %d", len(slots))
	}
}

func TestComputeFreeSlotsHourlyDuration(t *testing.T) {
	rules := []entity.AvailabilityRule{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", SlotDurationMinutes: 60},
	}

	slots := computeFreeSlots(rules, nil, monday, monday.AddDate(0, 0, 1), 60, monday)

	if len(slots) != 3 {
		t.Fatalf("expected 3 hourly slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.End.Sub(s.Start) != time.Hour {
			t.Errorf("slot %d is not exactly one hour: %v", i, s.End.Sub(s.Start))
		}
	}
}

func TestComputeFreeSlotsRespectsRuleTimezone(t *testing.T) {
	// 10:00-12:00 in New York on a Monday is 15:00-17:00 UTC (EST, early
	// March is still standard time).
	rules := []entity.AvailabilityRule{
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00", Timezone: "America/New_York", SlotDurationMinutes: 30},
	}

	slots := computeFreeSlots(rules, nil, monday, monday.AddDate(0, 0, 1), 30, monday)

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(mondayAt(15, 0)) {
		t.Errorf("expected first slot at 15:00 UTC, got %v", slots[0].Start.UTC())
	}
}

func TestComputeFreeSlotsNoRulesMeansNoSlots(t *testing.T) {
	slots := computeFreeSlots(nil, nil, monday, monday.AddDate(0, 0, 7), 30, monday)
	if len(slots) != 0 {
		t.Fatalf("no rules must yield no slots, got %d", len(slots))
	}
}

func TestValidateRulesRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		rule entity.AvailabilityRule
	}{
		{"bad weekday", entity.AvailabilityRule{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00", Timezone: "UTC", SlotDurationMinutes: 30}},
		{"inverted range", entity.AvailabilityRule{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00", Timezone: "UTC", SlotDurationMinutes: 30}},
		{"bad clock", entity.AvailabilityRule{DayOfWeek: 1, StartTime: "25:00", EndTime: "26:00", Timezone: "UTC", SlotDurationMinutes: 30}},
		{"bad timezone", entity.AvailabilityRule{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", Timezone: "Mars/Olympus", SlotDurationMinutes: 30}},
		{"bad duration", entity.AvailabilityRule{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", Timezone: "UTC", SlotDurationMinutes: 45}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if appErr := validateRules([]entity.AvailabilityRule{tc.rule}); appErr == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateRulesRejectsDuplicateWeekday(t *testing.T) {
	rules := []entity.AvailabilityRule{
		weekdayRule(1, "09:00", "12:00"),
		weekdayRule(1, "13:00", "17:00"),
	}
	if appErr := validateRules(rules); appErr == nil {
		t.Fatalf("expected duplicate weekday to be rejected")
	}
}

// ---- service-level fakes ----

type fakeRuleRepo struct {
	rules []entity.AvailabilityRule
	gets  int
}

func (r *fakeRuleRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.AvailabilityRule, error) {
	r.gets++
	return r.rules, nil
}

func (r *fakeRuleRepo) ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rules []entity.AvailabilityRule) ([]entity.AvailabilityRule, error) {
	r.rules = rules
	return rules, nil
}

type stubEventRepo struct {
	events []calendarEntity.Event
}

func (r *stubEventRepo) Upsert(ctx context.Context, event *calendarEntity.Event) (*calendarEntity.Event, error) {
	return event, nil
}

func (r *stubEventRepo) GetByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*calendarEntity.Event, error) {
	return nil, nil
}

func (r *stubEventRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	return r.events, nil
}

func (r *stubEventRepo) ListNonMirrorByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	return nil, nil
}

func (r *stubEventRepo) ListConflicted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]calendarEntity.Event, error) {
	return nil, nil
}

func (r *stubEventRepo) UpdateConflictFlags(ctx context.Context, events []calendarEntity.Event) error {
	return nil
}

func (r *stubEventRepo) DeleteByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error {
	return nil
}

func (r *stubEventRepo) DeleteVanished(ctx context.Context, accountID uuid.UUID, from, to time.Time, seenExternalIDs []string) error {
	return nil
}

type stubBookingRepo struct {
	held []bookingEntity.Booking
}

func (r *stubBookingRepo) TryReserve(ctx context.Context, booking *bookingEntity.Booking) (*bookingEntity.Booking, error) {
	return booking, nil
}

func (r *stubBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookingEntity.Booking, error) {
	return nil, nil
}

func (r *stubBookingRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]bookingEntity.Booking, error) {
	return nil, nil
}

func (r *stubBookingRepo) ListHolding(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]bookingEntity.Booking, error) {
	var out []bookingEntity.Booking
	for _, b := range r.held {
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubBookingRepo) Confirm(ctx context.Context, id uuid.UUID, provider, calendarEventID, meetingLink string) error {
	return nil
}

func (r *stubBookingRepo) MarkFailed(ctx context.Context, id uuid.UUID) error { return nil }

func (r *stubBookingRepo) Cancel(ctx context.Context, ownerID, id uuid.UUID) error { return nil }

// mapCache is an in-memory stand-in for the Redis cache.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *mapCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func newCachingTestService(rules []entity.AvailabilityRule) (*availabilityService, *fakeRuleRepo, *stubBookingRepo) {
	ruleRepo := &fakeRuleRepo{rules: rules}
	bookings := &stubBookingRepo{}
	return &availabilityService{
		ruleRepo:    ruleRepo,
		eventRepo:   &stubEventRepo{},
		bookingRepo: bookings,
		cache:       newMapCache(),
		now:         func() time.Time { return monday },
	}, ruleRepo, bookings
}

func hasSlotStarting(slots []interval.Interval, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}

func TestFreeSlotsLiveBypassesCachedSlots(t *testing.T) {
	svc, _, bookings := newCachingTestService([]entity.AvailabilityRule{weekdayRule(1, "10:00", "18:00")})
	ownerID := uuid.New()
	ctx := context.Background()
	from, to := monday, monday.AddDate(0, 0, 1)

	first, appErr := svc.FreeSlots(ctx, ownerID, from, to, 30)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if !hasSlotStarting(first, mondayAt(10, 30)) {
		t.Fatalf("expected the 10:30 slot before any booking")
	}

	// A 60-minute booking lands on 10:00-11:00 after the list was cached.
	bookings.held = append(bookings.held, bookingEntity.Booking{
		OwnerID:   ownerID,
		StartTime: mondayAt(10, 0),
		EndTime:   mondayAt(11, 0),
		Status:    bookingEntity.StatusConfirmed,
	})

	stale, appErr := svc.FreeSlots(ctx, ownerID, from, to, 30)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if !hasSlotStarting(stale, mondayAt(10, 30)) {
		t.Fatalf("browsing view is expected to serve the cached list inside the TTL")
	}

	live, appErr := svc.FreeSlotsLive(ctx, ownerID, from, to, 30)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if hasSlotStarting(live, mondayAt(10, 0)) || hasSlotStarting(live, mondayAt(10, 30)) {
		t.Fatalf("live recomputation must exclude slots overlapping the held booking")
	}
	if !hasSlotStarting(live, mondayAt(11, 0)) {
		t.Errorf("the 11:00 slot right after the booking must stay offered")
	}
}

func TestComputeFreeSlotsMidnightCrossingRoundTrip(t *testing.T) {
	// Monday 15:30-17:30 in Los Angeles is 23:30-01:30 UTC, crossing
	// midnight into Tuesday.
	rules := []entity.AvailabilityRule{
		{DayOfWeek: 1, StartTime: "15:30", EndTime: "17:30", Timezone: "America/Los_Angeles", SlotDurationMinutes: 60},
	}

	offered := computeFreeSlots(rules, nil, monday, monday.AddDate(0, 0, 7), 60, monday)
	if len(offered) != 2 {
		t.Fatalf("expected the 23:30 and 00:30 UTC slots, got %d", len(offered))
	}
	if !hasSlotStarting(offered, mondayAt(23, 30)) {
		t.Fatalf("expected a slot starting 23:30 UTC, got %v", offered)
	}

	// Recomputing over a window padded a day either side of the slot,
	// the way the booking recheck does, must offer the same slot again.
	slot := offered[0]
	recheck := computeFreeSlots(rules, nil, slot.Start.AddDate(0, 0, -1), slot.End.AddDate(0, 0, 1), 60, monday)
	if !hasSlotStarting(recheck, slot.Start) {
		t.Fatalf("offered slot %v-%v missing from the booking-path recomputation %v", slot.Start, slot.End, recheck)
	}
}

func TestSetRulesInvalidatesCachedRules(t *testing.T) {
	svc, ruleRepo, _ := newCachingTestService([]entity.AvailabilityRule{weekdayRule(1, "10:00", "18:00")})
	ownerID := uuid.New()
	ctx := context.Background()

	if _, appErr := svc.GetRules(ctx, ownerID); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if _, appErr := svc.GetRules(ctx, ownerID); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if ruleRepo.gets != 1 {
		t.Fatalf("second read must be served from cache, repo hit %d times", ruleRepo.gets)
	}

	if _, appErr := svc.SetRules(ctx, ownerID, []entity.AvailabilityRule{weekdayRule(2, "09:00", "17:00")}); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	rules, appErr := svc.GetRules(ctx, ownerID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if ruleRepo.gets != 2 {
		t.Fatalf("saving rules must invalidate the cached list, repo hit %d times", ruleRepo.gets)
	}
	if len(rules) != 1 || rules[0].DayOfWeek != 2 {
		t.Fatalf("expected the replaced rules, got %+v", rules)
	}
}
