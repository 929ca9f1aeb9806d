package provider

import (
	"testing"
	"time"
)

func TestParseGraphTimeFractionalSeconds(t *testing.T) {
	// Graph serializes seven fractional digits and no zone designator.
	got, err := parseGraphTime(graphEventTime{DateTime: "2025-03-03T10:00:00.0000000", TimeZone: "UTC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed = %v, want %v", got, want)
	}
}

func TestParseGraphTimePlainSeconds(t *testing.T) {
	got, err := parseGraphTime(graphEventTime{DateTime: "2025-03-03T10:30:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Minute() != 30 {
		t.Errorf("parsed = %v, want minute 30", got)
	}
}

func TestNormalizeMicrosoftEvent(t *testing.T) {
	item := graphEventPayload{
		ID:          "AAMk-1",
		Subject:     "1:1",
		IsCancelled: true,
	}
	item.Start.DateTime = "2025-03-03T10:00:00.0000000"
	item.End.DateTime = "2025-03-03T10:30:00.0000000"
	item.Location.DisplayName = "Room 4"

	ev, err := normalizeMicrosoftEvent(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ExternalID != "AAMk-1" || ev.Title != "1:1" || ev.Location != "Room 4" {
		t.Errorf("unexpected normalization: %+v", ev)
	}
	if !ev.Cancelled {
		t.Errorf("cancelled flag must be carried through")
	}
	if ev.End.Sub(ev.Start) != 30*time.Minute {
		t.Errorf("duration = %v, want 30m", ev.End.Sub(ev.Start))
	}
}

func TestMicrosoftEventBodyForBlocker(t *testing.T) {
	c := NewMicrosoftClient()
	start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	body := c.buildEventBody(BlockerDraft("[Mirror] Busy", start, start.Add(30*time.Minute)))

	if body["sensitivity"] != "private" {
		t.Errorf("blocker body must be marked private")
	}
	if body["isReminderOn"] != false {
		t.Errorf("blocker body must switch reminders off")
	}
	if _, ok := body["onlineMeetingProvider"]; ok {
		t.Errorf("blocker body must not request a meeting provider")
	}
	if attendees, ok := body["attendees"].([]map[string]any); !ok || len(attendees) != 0 {
		t.Errorf("blocker body must carry an empty attendee list")
	}
}
