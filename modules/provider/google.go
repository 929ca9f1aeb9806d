package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/logger"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleEventsAPI       = googleCalendarAPIBase + "/calendars/primary/events"
)

type GoogleClient struct {
	http *http.Client
}

func NewGoogleClient() *GoogleClient {
	return &GoogleClient{
		http: &http.Client{Timeout: constants.ProviderCallTimeout},
	}
}

// googleEventPayload mirrors the subset of the Google Calendar event
// resource we read.
type googleEventPayload struct {
	ID       string          `json:"id"`
	Summary  string          `json:"summary"`
	Location string          `json:"location"`
	Status   string          `json:"status"`
	Start    googleEventTime `json:"start"`
	End      googleEventTime `json:"end"`
	Organizer struct {
		Email string `json:"email"`
	} `json:"organizer"`
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

func (c *GoogleClient) FetchEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]Event, error) {
	params := url.Values{}
	params.Add("singleEvents", "true")
	params.Add("orderBy", "startTime")
	params.Add("timeMin", timeMin.Format(time.RFC3339))
	params.Add("timeMax", timeMax.Format(time.RFC3339))
	params.Add("maxResults", "2500")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEventsAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google events fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("GoogleClient:FetchEvents:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}

	var payload struct {
		Items []googleEventPayload `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google events decode: %w", err)
	}

	events := make([]Event, 0, len(payload.Items))
	for _, item := range payload.Items {
		ev, err := normalizeGoogleEvent(item)
		if err != nil {
			logger.Warn("GoogleClient:FetchEvents:SkipEvent", "event_id", item.ID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func normalizeGoogleEvent(item googleEventPayload) (Event, error) {
	ev := Event{
		ExternalID: item.ID,
		Title:      item.Summary,
		Location:   item.Location,
		Organizer:  item.Organizer.Email,
		Cancelled:  item.Status == "cancelled",
	}

	var err error
	ev.Start, ev.AllDay, err = parseGoogleTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	ev.End, _, err = parseGoogleTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("end: %w", err)
	}
	return ev, nil
}

func parseGoogleTime(et googleEventTime) (time.Time, bool, error) {
	if et.DateTime != "" {
		t, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.UTC(), false, nil
	}
	if et.Date != "" {
		t, err := time.Parse("2006-01-02", et.Date)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("event time has neither dateTime nor date")
}

func (c *GoogleClient) CreateEvent(ctx context.Context, accessToken string, draft EventDraft) (*ExternalEventRef, error) {
	params := url.Values{}
	if draft.SendUpdates {
		params.Add("sendUpdates", "all")
	} else {
		params.Add("sendUpdates", "none")
	}
	if draft.OnlineMeeting {
		params.Add("conferenceDataVersion", "1")
	} else {
		params.Add("conferenceDataVersion", "0")
	}

	body := c.buildEventBody(draft)

	raw, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleEventsAPI+"?"+params.Encode(), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google event create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("GoogleClient:CreateEvent:APIError", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}

	var result struct {
		ID             string `json:"id"`
		HangoutLink    string `json:"hangoutLink"`
		ConferenceData struct {
			EntryPoints []struct {
				EntryPointType string `json:"entryPointType"`
				URI            string `json:"uri"`
			} `json:"entryPoints"`
		} `json:"conferenceData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("google event create decode: %w", err)
	}

	ref := &ExternalEventRef{EventID: result.ID, MeetingLink: result.HangoutLink}
	if ref.MeetingLink == "" {
		for _, ep := range result.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.URI != "" {
				ref.MeetingLink = ep.URI
				break
			}
		}
	}
	return ref, nil
}

func (c *GoogleClient) UpdateEvent(ctx context.Context, accessToken string, eventID string, draft EventDraft) error {
	body := c.buildEventBody(draft)
	raw, _ := json.Marshal(body)

	eventURL := fmt.Sprintf("%s/%s?sendUpdates=none", googleEventsAPI, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, eventURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google event update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("GoogleClient:UpdateEvent:APIError", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}
	return nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, accessToken string, eventID string) error {
	eventURL := fmt.Sprintf("%s/%s?sendUpdates=none", googleEventsAPI, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, eventURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google event delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusGone {
		return fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}
	return nil
}

func (c *GoogleClient) buildEventBody(draft EventDraft) map[string]any {
	tz := draft.Timezone
	if tz == "" {
		tz = "UTC"
	}

	body := map[string]any{
		"summary":     draft.Title,
		"description": draft.Description,
		"start": map[string]string{
			"dateTime": draft.Start.Format(time.RFC3339),
			"timeZone": tz,
		},
		"end": map[string]string{
			"dateTime": draft.End.Format(time.RFC3339),
			"timeZone": tz,
		},
		"guestsCanModify":         draft.GuestsCanModify,
		"guestsCanInviteOthers":   draft.GuestsCanModify,
		"guestsCanSeeOtherGuests": draft.GuestsCanModify,
	}

	if draft.Visibility == "private" {
		body["visibility"] = "private"
		body["transparency"] = "opaque"
	}

	if !draft.RemindersEnabled {
		body["reminders"] = map[string]any{"useDefault": false}
	}

	if len(draft.Attendees) > 0 {
		attendees := make([]map[string]string, len(draft.Attendees))
		for i, email := range draft.Attendees {
			attendees[i] = map[string]string{"email": email}
		}
		body["attendees"] = attendees
	}

	if draft.OnlineMeeting {
		body["conferenceData"] = map[string]any{
			"createRequest": map[string]any{
				"requestId":             fmt.Sprintf("booking-%d", time.Now().UnixNano()),
				"conferenceSolutionKey": map[string]string{"type": "hangoutsMeet"},
			},
		}
	}

	return body
}
