package service

import (
	"container/heap"
	"context"
	"sort"
	"time"

	"unified-calendar/core/errors"
	"unified-calendar/core/logger"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/repository"

	"github.com/google/uuid"
)

// ConflictService recomputes pairwise overlap flags across all of a
// user's accounts. Flags are derived state; every recompute replaces
// them wholesale for the scanned window.
type ConflictService interface {
	Recompute(ctx context.Context, ownerID uuid.UUID, from, to time.Time) *errors.AppError
	ListConflicts(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, *errors.AppError)
}

type conflictService struct {
	eventRepo repository.EventRepository
}

func NewConflictService(eventRepo repository.EventRepository) ConflictService {
	return &conflictService{eventRepo: eventRepo}
}

func (s *conflictService) Recompute(ctx context.Context, ownerID uuid.UUID, from, to time.Time) *errors.AppError {
	events, err := s.eventRepo.ListByOwner(ctx, ownerID, nil, from, to)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load events for conflict scan", err)
	}

	detectConflicts(events)

	if err := s.eventRepo.UpdateConflictFlags(ctx, events); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to persist conflict flags", err)
	}
	logger.Info("ConflictService:Recompute:Done", "owner_id", ownerID, "events", len(events))
	return nil
}

func (s *conflictService) ListConflicts(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, *errors.AppError) {
	events, err := s.eventRepo.ListConflicted(ctx, ownerID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list conflicts", err)
	}
	return events, nil
}

// activeHeap is a min-heap of still-open events ordered by end time.
type activeEvent struct {
	index int
	end   time.Time
}

type activeHeap []activeEvent

func (h activeHeap) Len() int           { return len(h) }
func (h activeHeap) Less(i, j int) bool { return h[i].end.Before(h[j].end) }
func (h activeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *activeHeap) Push(x any)        { *h = append(*h, x.(activeEvent)) }
func (h *activeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// detectConflicts flags every pair of overlapping events in place. The
// sweep sorts by start and keeps a heap of open intervals keyed by end
// time; an event whose end is at or before the next start has closed
// (touching endpoints do not overlap). Malformed timed events are
// excluded from the sweep but still get their stale flags cleared.
func detectConflicts(events []entity.Event) {
	conflictSets := make(map[int]map[uuid.UUID]struct{}, len(events))

	order := make([]int, 0, len(events))
	for i := range events {
		if events[i].Malformed() {
			logger.Warn("ConflictService:DetectConflicts:MalformedEvent",
				"event_id", events[i].ID, "external_id", events[i].ExternalID,
				"start", events[i].StartTime, "end", events[i].EndTime)
			continue
		}
		order = append(order, i)
	}
	sort.Slice(order, func(a, b int) bool {
		return events[order[a]].StartTime.Before(events[order[b]].StartTime)
	})

	active := &activeHeap{}
	for _, idx := range order {
		curr := &events[idx]
		for active.Len() > 0 && !(*active)[0].end.After(curr.StartTime) {
			heap.Pop(active)
		}
		for _, open := range *active {
			other := &events[open.index]
			mark(conflictSets, idx, other.ID)
			mark(conflictSets, open.index, curr.ID)
		}
		heap.Push(active, activeEvent{index: idx, end: curr.EndTime})
	}

	for i := range events {
		set := conflictSets[i]
		if len(set) == 0 {
			events[i].SetConflictWith(nil)
			continue
		}
		ids := make([]uuid.UUID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
		events[i].SetConflictWith(ids)
	}
}

func mark(sets map[int]map[uuid.UUID]struct{}, idx int, other uuid.UUID) {
	if sets[idx] == nil {
		sets[idx] = make(map[uuid.UUID]struct{})
	}
	sets[idx][other] = struct{}{}
}
