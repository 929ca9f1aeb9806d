package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/repository"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// ICSService renders the unified timeline as an iCalendar feed. Mirror
// blockers are exported as opaque busy blocks so the feed never leaks
// details across accounts.
type ICSService interface {
	Export(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]byte, *errors.AppError)
}

type icsService struct {
	eventRepo repository.EventRepository
}

func NewICSService(eventRepo repository.EventRepository) ICSService {
	return &icsService{eventRepo: eventRepo}
}

func (s *icsService) Export(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]byte, *errors.AppError) {
	events, err := s.eventRepo.ListByOwner(ctx, ownerID, nil, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load events for export", err)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//unified-calendar//EN")

	now := time.Now().UTC()
	for i := range events {
		cal.Children = append(cal.Children, buildVEvent(&events[i], now))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encode calendar feed", err)
	}
	return buf.Bytes(), nil
}

func buildVEvent(event *entity.Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, fmt.Sprintf("%s@unified-calendar", event.ID))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())

	if event.IsMirror {
		ve.Props.SetText(ical.PropSummary, constants.MirrorBlockerTitle)
		ve.Props.SetText(ical.PropClass, "PRIVATE")
		return ve
	}

	ve.Props.SetText(ical.PropSummary, event.Title)
	if event.Location != nil && *event.Location != "" {
		ve.Props.SetText(ical.PropLocation, *event.Location)
	}
	return ve
}
