package provider

import (
	"testing"
	"time"
)

func TestNormalizeGoogleEventTimed(t *testing.T) {
	item := googleEventPayload{
		ID:      "evt-1",
		Summary: "Design review",
		Status:  "confirmed",
	}
	item.Start.DateTime = "2025-03-03T10:00:00+01:00"
	item.End.DateTime = "2025-03-03T11:00:00+01:00"

	ev, err := normalizeGoogleEvent(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.AllDay {
		t.Errorf("timed event must not be all-day")
	}
	want := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	if !ev.Start.Equal(want) {
		t.Errorf("start = %v, want %v", ev.Start, want)
	}
	if ev.Cancelled {
		t.Errorf("confirmed event flagged cancelled")
	}
}

func TestNormalizeGoogleEventAllDay(t *testing.T) {
	item := googleEventPayload{ID: "evt-2", Summary: "Offsite"}
	item.Start.Date = "2025-03-03"
	item.End.Date = "2025-03-04"

	ev, err := normalizeGoogleEvent(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.AllDay {
		t.Fatalf("date-only event must be all-day")
	}
	if ev.Start.Hour() != 0 || ev.Start.Day() != 3 {
		t.Errorf("all-day start = %v, want midnight March 3", ev.Start)
	}
}

func TestNormalizeGoogleEventCancelled(t *testing.T) {
	item := googleEventPayload{ID: "evt-3", Status: "cancelled"}
	item.Start.DateTime = "2025-03-03T10:00:00Z"
	item.End.DateTime = "2025-03-03T11:00:00Z"

	ev, err := normalizeGoogleEvent(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Cancelled {
		t.Errorf("cancelled status must be carried through")
	}
}

func TestNormalizeGoogleEventBadTime(t *testing.T) {
	item := googleEventPayload{ID: "evt-4"}
	item.Start.DateTime = "not-a-time"
	item.End.DateTime = "2025-03-03T11:00:00Z"

	if _, err := normalizeGoogleEvent(item); err == nil {
		t.Fatalf("unparseable time must be an error")
	}
}

func TestBlockerDraftIsPrivacySafe(t *testing.T) {
	start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	draft := BlockerDraft("[Mirror] Busy", start, start.Add(time.Hour))

	if len(draft.Attendees) != 0 {
		t.Errorf("blocker must carry no attendees")
	}
	if draft.RemindersEnabled {
		t.Errorf("blocker must not ring reminders")
	}
	if draft.Visibility != "private" {
		t.Errorf("blocker visibility = %q, want private", draft.Visibility)
	}
	if draft.SendUpdates || draft.OnlineMeeting || draft.GuestsCanModify {
		t.Errorf("blocker must disable updates, meetings and guest rights")
	}
}
