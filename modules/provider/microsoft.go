package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/logger"
)

const graphAPIBase = "https://graph.microsoft.com/v1.0"

type MicrosoftClient struct {
	http *http.Client
}

func NewMicrosoftClient() *MicrosoftClient {
	return &MicrosoftClient{
		http: &http.Client{Timeout: constants.ProviderCallTimeout},
	}
}

type graphEventPayload struct {
	ID          string         `json:"id"`
	Subject     string         `json:"subject"`
	IsAllDay    bool           `json:"isAllDay"`
	IsCancelled bool           `json:"isCancelled"`
	Start       graphEventTime `json:"start"`
	End         graphEventTime `json:"end"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Organizer struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
}

type graphEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

func (c *MicrosoftClient) FetchEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]Event, error) {
	params := url.Values{}
	params.Add("startDateTime", timeMin.UTC().Format(time.RFC3339))
	params.Add("endDateTime", timeMax.UTC().Format(time.RFC3339))
	params.Add("$top", "500")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphAPIBase+"/me/calendarview?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("microsoft calendar view fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("MicrosoftClient:FetchEvents:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("microsoft graph API error: %d", resp.StatusCode)
	}

	var payload struct {
		Value []graphEventPayload `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("microsoft calendar view decode: %w", err)
	}

	events := make([]Event, 0, len(payload.Value))
	for _, item := range payload.Value {
		ev, err := normalizeMicrosoftEvent(item)
		if err != nil {
			logger.Warn("MicrosoftClient:FetchEvents:SkipEvent", "event_id", item.ID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func normalizeMicrosoftEvent(item graphEventPayload) (Event, error) {
	start, err := parseGraphTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseGraphTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("end: %w", err)
	}

	return Event{
		ExternalID: item.ID,
		Title:      item.Subject,
		Location:   item.Location.DisplayName,
		Start:      start,
		End:        end,
		AllDay:     item.IsAllDay,
		Organizer:  item.Organizer.EmailAddress.Address,
		Cancelled:  item.IsCancelled,
	}, nil
}

// parseGraphTime handles Graph's zone-less dateTime strings. With the
// Prefer header above they arrive in UTC.
func parseGraphTime(et graphEventTime) (time.Time, error) {
	value := strings.TrimSuffix(et.DateTime, "Z")
	for _, layout := range []string{"2006-01-02T15:04:05.9999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Parse(time.RFC3339, et.DateTime)
}

func (c *MicrosoftClient) CreateEvent(ctx context.Context, accessToken string, draft EventDraft) (*ExternalEventRef, error) {
	body := c.buildEventBody(draft)
	raw, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphAPIBase+"/me/events", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("microsoft event create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("MicrosoftClient:CreateEvent:APIError", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("microsoft graph API error: %d", resp.StatusCode)
	}

	var result struct {
		ID            string `json:"id"`
		OnlineMeeting struct {
			JoinURL string `json:"joinUrl"`
		} `json:"onlineMeeting"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("microsoft event create decode: %w", err)
	}

	return &ExternalEventRef{
		EventID:     result.ID,
		MeetingLink: result.OnlineMeeting.JoinURL,
	}, nil
}

func (c *MicrosoftClient) UpdateEvent(ctx context.Context, accessToken string, eventID string, draft EventDraft) error {
	body := c.buildEventBody(draft)
	raw, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, graphAPIBase+"/me/events/"+url.PathEscape(eventID), bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("microsoft event update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("MicrosoftClient:UpdateEvent:APIError", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("microsoft graph API error: %d", resp.StatusCode)
	}
	return nil
}

func (c *MicrosoftClient) DeleteEvent(ctx context.Context, accessToken string, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, graphAPIBase+"/me/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("microsoft event delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("microsoft graph API error: %d", resp.StatusCode)
	}
	return nil
}

func (c *MicrosoftClient) buildEventBody(draft EventDraft) map[string]any {
	tz := draft.Timezone
	if tz == "" {
		tz = "UTC"
	}

	body := map[string]any{
		"subject": draft.Title,
		"body": map[string]string{
			"contentType": "HTML",
			"content":     strings.ReplaceAll(draft.Description, "\n", "<br/>"),
		},
		"start": map[string]string{
			"dateTime": draft.Start.UTC().Format("2006-01-02T15:04:05"),
			"timeZone": tz,
		},
		"end": map[string]string{
			"dateTime": draft.End.UTC().Format("2006-01-02T15:04:05"),
			"timeZone": tz,
		},
		"showAs":                "busy",
		"isReminderOn":          draft.RemindersEnabled,
		"isOnlineMeeting":       draft.OnlineMeeting,
		"allowNewTimeProposals": draft.GuestsCanModify,
	}

	if draft.Visibility == "private" {
		body["sensitivity"] = "private"
	}

	if draft.OnlineMeeting {
		body["onlineMeetingProvider"] = "teamsForBusiness"
	}

	attendees := make([]map[string]any, 0, len(draft.Attendees))
	for _, email := range draft.Attendees {
		attendees = append(attendees, map[string]any{
			"emailAddress": map[string]string{"address": email},
			"type":         "required",
		})
	}
	body["attendees"] = attendees

	return body
}
