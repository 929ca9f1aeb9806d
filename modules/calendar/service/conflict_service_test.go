package service

import (
	"testing"
	"time"

	"unified-calendar/modules/calendar/entity"

	"github.com/google/uuid"
)

func mkEvent(t *testing.T, start, end time.Time) entity.Event {
	t.Helper()
	var e entity.Event
	e.ID = uuid.New()
	e.StartTime = start
	e.EndTime = end
	return e
}

func at(h, m int) time.Time {
	return time.Date(2025, time.March, 3, h, m, 0, 0, time.UTC)
}

func conflictIDs(t *testing.T, e *entity.Event) map[uuid.UUID]bool {
	t.Helper()
	out := make(map[uuid.UUID]bool)
	for _, id := range e.GetConflictWith() {
		out[id] = true
	}
	return out
}

func TestDetectConflictsPairwise(t *testing.T) {
	// [9,10) and [9:30,10:30) overlap; [10:30,11:30) touches the second
	// and overlaps nothing.
	a := mkEvent(t, at(9, 0), at(10, 0))
	b := mkEvent(t, at(9, 30), at(10, 30))
	c := mkEvent(t, at(10, 30), at(11, 30))

	events := []entity.Event{a, b, c}
	detectConflicts(events)

	if !events[0].HasConflict || !events[1].HasConflict {
		t.Fatalf("expected first two events flagged, got %v %v", events[0].HasConflict, events[1].HasConflict)
	}
	if events[2].HasConflict {
		t.Fatalf("touching event should not be flagged")
	}
	if !conflictIDs(t, &events[0])[b.ID] {
		t.Errorf("event a should list b as conflict")
	}
	if !conflictIDs(t, &events[1])[a.ID] {
		t.Errorf("event b should list a as conflict")
	}
}

func TestDetectConflictsTouchingNotFlagged(t *testing.T) {
	a := mkEvent(t, at(9, 0), at(10, 0))
	b := mkEvent(t, at(10, 0), at(11, 0))

	events := []entity.Event{a, b}
	detectConflicts(events)

	for i := range events {
		if events[i].HasConflict {
			t.Fatalf("back-to-back events must not conflict, event %d flagged", i)
		}
	}
}

func TestDetectConflictsTriple(t *testing.T) {
	a := mkEvent(t, at(9, 0), at(12, 0))
	b := mkEvent(t, at(9, 30), at(10, 0))
	c := mkEvent(t, at(10, 30), at(11, 0))

	events := []entity.Event{a, b, c}
	detectConflicts(events)

	got := conflictIDs(t, &events[0])
	if !got[b.ID] || !got[c.ID] {
		t.Fatalf("long event should conflict with both short ones, got %v", events[0].GetConflictWith())
	}
	// b and c do not overlap each other.
	if conflictIDs(t, &events[1])[c.ID] || conflictIDs(t, &events[2])[b.ID] {
		t.Fatalf("disjoint short events must not conflict with each other")
	}
}

func TestDetectConflictsClearsStaleFlags(t *testing.T) {
	a := mkEvent(t, at(9, 0), at(10, 0))
	b := mkEvent(t, at(14, 0), at(15, 0))
	a.SetConflictWith([]uuid.UUID{b.ID})
	b.SetConflictWith([]uuid.UUID{a.ID})

	events := []entity.Event{a, b}
	detectConflicts(events)

	for i := range events {
		if events[i].HasConflict || events[i].ConflictWith != nil {
			t.Fatalf("stale flags must be cleared on recompute, event %d still flagged", i)
		}
	}
}

func TestDetectConflictsSkipsMalformed(t *testing.T) {
	bad := mkEvent(t, at(10, 0), at(9, 0)) // end before start
	ok := mkEvent(t, at(9, 30), at(10, 30))
	bad.SetConflictWith([]uuid.UUID{ok.ID})

	events := []entity.Event{bad, ok}
	detectConflicts(events)

	if events[0].HasConflict {
		t.Fatalf("malformed event must be excluded from the sweep")
	}
	if events[1].HasConflict {
		t.Fatalf("nothing valid overlaps the healthy event")
	}
}

func TestDetectConflictsMirrorsParticipate(t *testing.T) {
	real := mkEvent(t, at(9, 0), at(10, 0))
	mirror := mkEvent(t, at(9, 30), at(10, 30))
	mirror.IsMirror = true

	events := []entity.Event{real, mirror}
	detectConflicts(events)

	if !events[0].HasConflict || !events[1].HasConflict {
		t.Fatalf("mirror blockers occupy time and must be flagged like any event")
	}
}
