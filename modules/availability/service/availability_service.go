package service

import (
	"context"
	"fmt"
	"time"

	"unified-calendar/core/cache"
	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/core/interval"
	"unified-calendar/core/logger"
	"unified-calendar/modules/availability/entity"
	"unified-calendar/modules/availability/repository"
	bookingRepository "unified-calendar/modules/booking/repository"
	calendarRepository "unified-calendar/modules/calendar/repository"

	"github.com/google/uuid"
)

// AvailabilityService manages weekly rules and derives bookable free
// slots. Free slots are always computed from availability windows minus
// every busy interval across all of the owner's accounts plus held
// bookings.
type AvailabilityService interface {
	GetRules(ctx context.Context, ownerID uuid.UUID) ([]entity.AvailabilityRule, *errors.AppError)
	SetRules(ctx context.Context, ownerID uuid.UUID, rules []entity.AvailabilityRule) ([]entity.AvailabilityRule, *errors.AppError)
	FreeSlots(ctx context.Context, ownerID uuid.UUID, from, to time.Time, durationMinutes int) ([]interval.Interval, *errors.AppError)
	FreeSlotsLive(ctx context.Context, ownerID uuid.UUID, from, to time.Time, durationMinutes int) ([]interval.Interval, *errors.AppError)
}

type availabilityService struct {
	ruleRepo    repository.AvailabilityRepository
	eventRepo   calendarRepository.EventRepository
	bookingRepo bookingRepository.BookingRepository
	cache       cache.Cache
	now         func() time.Time
}

func NewAvailabilityService(
	ruleRepo repository.AvailabilityRepository,
	eventRepo calendarRepository.EventRepository,
	bookingRepo bookingRepository.BookingRepository,
	c cache.Cache,
) AvailabilityService {
	return &availabilityService{
		ruleRepo:    ruleRepo,
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		cache:       c,
		now:         time.Now,
	}
}

func ruleCacheKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("availability_rules:%s", ownerID)
}

func (s *availabilityService) GetRules(ctx context.Context, ownerID uuid.UUID) ([]entity.AvailabilityRule, *errors.AppError) {
	var cached []entity.AvailabilityRule
	if hit, err := s.cache.GetJSON(ctx, ruleCacheKey(ownerID), &cached); err == nil && hit {
		return cached, nil
	}

	rules, err := s.ruleRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load availability rules", err)
	}

	if err := s.cache.SetJSON(ctx, ruleCacheKey(ownerID), rules, constants.AvailabilityCacheTTL); err != nil {
		logger.Warn("AvailabilityService:GetRules:CacheSetFailed", "error", err)
	}
	return rules, nil
}

func (s *availabilityService) SetRules(ctx context.Context, ownerID uuid.UUID, rules []entity.AvailabilityRule) ([]entity.AvailabilityRule, *errors.AppError) {
	if appErr := validateRules(rules); appErr != nil {
		return nil, appErr
	}

	saved, err := s.ruleRepo.ReplaceForOwner(ctx, ownerID, rules)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save availability rules", err)
	}

	if err := s.cache.Delete(ctx, ruleCacheKey(ownerID)); err != nil {
		logger.Warn("AvailabilityService:SetRules:CacheInvalidateFailed", "error", err)
	}

	logger.Info("AvailabilityService:SetRules:Success", "owner_id", ownerID, "rules", len(saved))
	return saved, nil
}

func validateRules(rules []entity.AvailabilityRule) *errors.AppError {
	seen := make(map[int]struct{}, len(rules))
	for i := range rules {
		r := &rules[i]
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("day_of_week must be 0-6, got %d", r.DayOfWeek), nil)
		}
		if _, dup := seen[r.DayOfWeek]; dup {
			return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("duplicate rule for weekday %d", r.DayOfWeek), nil)
		}
		seen[r.DayOfWeek] = struct{}{}

		start, err := parseWallClock(r.StartTime)
		if err != nil {
			return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("invalid start_time %q", r.StartTime), err)
		}
		end, err := parseWallClock(r.EndTime)
		if err != nil {
			return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("invalid end_time %q", r.EndTime), err)
		}
		if start >= end {
			return errors.NewAppError(errors.ErrInvalidInput, "start_time must precede end_time", nil)
		}

		if r.Timezone == "" {
			r.Timezone = "UTC"
		}
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("unknown timezone %q", r.Timezone), err)
		}

		if !allowedDuration(r.SlotDurationMinutes) {
			return errors.NewAppError(errors.ErrInvalidInput,
				fmt.Sprintf("slot_duration_minutes must be one of %v", constants.AllowedSlotDurations), nil)
		}
	}
	return nil
}

func allowedDuration(minutes int) bool {
	for _, d := range constants.AllowedSlotDurations {
		if minutes == d {
			return true
		}
	}
	return false
}

// parseWallClock converts "HH:MM" to minutes since midnight.
func parseWallClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %s", s)
	}
	return h*60 + m, nil
}

// FreeSlots serves browsing queries; results may be up to
// PublicSlotsCacheTTL stale. Anything that must not act on an earlier
// slot list (the booking recheck) goes through FreeSlotsLive.
func (s *availabilityService) FreeSlots(ctx context.Context, ownerID uuid.UUID, from, to time.Time, durationMinutes int) ([]interval.Interval, *errors.AppError) {
	if appErr := validateSlotQuery(from, to, durationMinutes); appErr != nil {
		return nil, appErr
	}

	cacheKey := fmt.Sprintf("free_slots:%s:%d:%d:%d", ownerID, from.Unix(), to.Unix(), durationMinutes)
	var cached []interval.Interval
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	slots, appErr := s.FreeSlotsLive(ctx, ownerID, from, to, durationMinutes)
	if appErr != nil {
		return nil, appErr
	}

	if err := s.cache.SetJSON(ctx, cacheKey, slots, constants.PublicSlotsCacheTTL); err != nil {
		logger.Warn("AvailabilityService:FreeSlots:CacheSetFailed", "error", err)
	}
	return slots, nil
}

// FreeSlotsLive recomputes free slots from the current rules, events
// and held bookings, bypassing the cache entirely.
func (s *availabilityService) FreeSlotsLive(ctx context.Context, ownerID uuid.UUID, from, to time.Time, durationMinutes int) ([]interval.Interval, *errors.AppError) {
	if appErr := validateSlotQuery(from, to, durationMinutes); appErr != nil {
		return nil, appErr
	}

	rules, err := s.ruleRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load availability rules", err)
	}

	events, err := s.eventRepo.ListByOwner(ctx, ownerID, nil, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load events", err)
	}
	held, err := s.bookingRepo.ListHolding(ctx, ownerID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load bookings", err)
	}

	busy := make([]interval.Interval, 0, len(events)+len(held))
	for i := range events {
		if events[i].Malformed() {
			logger.Warn("AvailabilityService:FreeSlots:SkipMalformedEvent", "event_id", events[i].ID)
			continue
		}
		busy = append(busy, interval.Interval{Start: events[i].StartTime, End: events[i].EndTime})
	}
	for i := range held {
		busy = append(busy, interval.Interval{Start: held[i].StartTime, End: held[i].EndTime})
	}

	return computeFreeSlots(rules, busy, from, to, durationMinutes, s.now()), nil
}

func validateSlotQuery(from, to time.Time, durationMinutes int) *errors.AppError {
	if !allowedDuration(durationMinutes) {
		return errors.NewAppError(errors.ErrInvalidInput,
			fmt.Sprintf("duration must be one of %v", constants.AllowedSlotDurations), nil)
	}
	if !from.Before(to) {
		return errors.NewAppError(errors.ErrInvalidInput, "from must precede to", nil)
	}
	return nil
}

// computeFreeSlots expands weekly rules into concrete windows inside
// [from, to), subtracts merged busy time and emits exact-duration slots.
// Slots that have already begun are withheld.
func computeFreeSlots(rules []entity.AvailabilityRule, busy []interval.Interval, from, to time.Time, durationMinutes int, now time.Time) []interval.Interval {
	windows := expandRules(rules, from, to)
	free := interval.Subtract(windows, interval.Merge(busy))

	step := time.Duration(durationMinutes) * time.Minute
	grid := time.Duration(constants.SlotGridMinutes) * time.Minute

	slots := make([]interval.Interval, 0)
	for _, f := range free {
		start := f.Start.Truncate(grid)
		if start.Before(f.Start) {
			start = start.Add(grid)
		}
		for !start.Add(step).After(f.End) {
			if !start.Before(now) {
				slots = append(slots, interval.Interval{Start: start, End: start.Add(step)})
			}
			start = start.Add(step)
		}
	}
	return slots
}

// expandRules materializes each weekly rule for every matching day in
// the query range, interpreted in the rule's own timezone.
func expandRules(rules []entity.AvailabilityRule, from, to time.Time) []interval.Interval {
	windows := make([]interval.Interval, 0)
	for i := range rules {
		r := &rules[i]
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			loc = time.UTC
		}
		startMin, err := parseWallClock(r.StartTime)
		if err != nil {
			continue
		}
		endMin, err := parseWallClock(r.EndTime)
		if err != nil {
			continue
		}

		// Walk one day before the range start so a window that began the
		// previous local day still clips in.
		day := from.In(loc).AddDate(0, 0, -1)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		for ; day.Before(to.In(loc)); day = day.AddDate(0, 0, 1) {
			if int(day.Weekday()) != r.DayOfWeek {
				continue
			}
			w := interval.Interval{
				Start: day.Add(time.Duration(startMin) * time.Minute),
				End:   day.Add(time.Duration(endMin) * time.Minute),
			}
			if w.Start.Before(from) {
				w.Start = from
			}
			if w.End.After(to) {
				w.End = to
			}
			if w.Start.Before(w.End) {
				windows = append(windows, w)
			}
		}
	}
	return interval.Merge(windows)
}
