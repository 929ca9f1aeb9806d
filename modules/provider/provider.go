// Package provider holds the integration layer for external calendar
// APIs. Provider payloads are normalized into the single Event shape at
// this boundary; nothing downstream branches on provider except when
// choosing which client to call.
package provider

import (
	"context"
	"fmt"
	"time"
)

type Provider string

const (
	Google    Provider = "google"
	Microsoft Provider = "microsoft"
)

func Parse(s string) (Provider, error) {
	switch Provider(s) {
	case Google, Microsoft:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Event is a provider event normalized into a single shape.
type Event struct {
	ExternalID string
	Title      string
	Location   string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Organizer  string
	Cancelled  bool
}

// EventDraft carries the decisions the translation layer needs when
// creating an event. Mirror blockers always disable every outward
// surface (attendees, reminders, updates, guest rights); genuine
// booking confirmations carry the real intent.
type EventDraft struct {
	Title            string
	Description      string
	Start            time.Time
	End              time.Time
	Timezone         string
	Attendees        []string
	RemindersEnabled bool
	Visibility       string // "private" | "default"
	SendUpdates      bool
	OnlineMeeting    bool
	GuestsCanModify  bool
}

// BlockerDraft builds the privacy-safe draft used for mirror events.
func BlockerDraft(title string, start, end time.Time) EventDraft {
	return EventDraft{
		Title:            title,
		Start:            start,
		End:              end,
		Timezone:         "UTC",
		Attendees:        nil,
		RemindersEnabled: false,
		Visibility:       "private",
		SendUpdates:      false,
		OnlineMeeting:    false,
		GuestsCanModify:  false,
	}
}

// ExternalEventRef identifies a created event in the provider's world.
type ExternalEventRef struct {
	EventID     string
	MeetingLink string
}

// Client is the per-provider API surface consumed by the sync, mirror
// and booking engines. Implementations take a ready access token;
// refresh is handled by the account service.
type Client interface {
	FetchEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, accessToken string, draft EventDraft) (*ExternalEventRef, error)
	UpdateEvent(ctx context.Context, accessToken string, eventID string, draft EventDraft) error
	DeleteEvent(ctx context.Context, accessToken string, eventID string) error
}

// Clients maps each provider tag to its client.
type Clients map[Provider]Client

// NewClients builds the default client set.
func NewClients() Clients {
	return Clients{
		Google:    NewGoogleClient(),
		Microsoft: NewMicrosoftClient(),
	}
}

func (c Clients) For(p Provider) (Client, error) {
	client, ok := c[p]
	if !ok {
		return nil, fmt.Errorf("no client registered for provider %q", p)
	}
	return client, nil
}
