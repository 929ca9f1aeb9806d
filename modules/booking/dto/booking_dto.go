package dto

import (
	"time"

	"unified-calendar/core/interval"
	"unified-calendar/modules/booking/entity"
)

// ========== Public booking page DTOs ==========

// SlotResponse is one bookable window on the public page.
type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PublicSlotsResponse lists open slots for an owner's booking page.
type PublicSlotsResponse struct {
	OwnerName          string         `json:"owner_name"`
	DurationMinutes    int            `json:"duration_minutes"`
	AvailableProviders []string       `json:"available_providers"`
	Slots              []SlotResponse `json:"slots"`
}

func ToSlotResponses(slots []interval.Interval) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{Start: s.Start, End: s.End})
	}
	return out
}

// ScheduleRequest books one slot on the public page. StartTime is
// RFC3339; the end is derived from the duration.
type ScheduleRequest struct {
	ClientName        string  `json:"client_name" validate:"required"`
	ClientEmail       string  `json:"client_email" validate:"required,email"`
	ClientNote        *string `json:"client_note,omitempty"`
	StartTime         string  `json:"start_time" validate:"required"`
	DurationMinutes   int     `json:"duration_minutes"`
	PreferredProvider string  `json:"preferred_provider,omitempty"`
}

// BookingResponse reports the outcome of a schedule request.
type BookingResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Provider    *string   `json:"provider,omitempty"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
}

func ToBookingResponse(b *entity.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID.String(),
		Status:      b.Status,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Provider:    b.Provider,
		MeetingLink: b.MeetingLink,
	}
}

// ========== Private DTOs ==========

// BookingListResponse lists the owner's bookings in a window.
type BookingListResponse struct {
	Bookings []BookingItemResponse `json:"bookings"`
}

type BookingItemResponse struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientNote  *string   `json:"client_note,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
}

func ToBookingListResponse(bookings []entity.Booking) BookingListResponse {
	resp := BookingListResponse{Bookings: make([]BookingItemResponse, 0, len(bookings))}
	for i := range bookings {
		b := &bookings[i]
		resp.Bookings = append(resp.Bookings, BookingItemResponse{
			ID:          b.ID.String(),
			ClientName:  b.ClientName,
			ClientEmail: b.ClientEmail,
			ClientNote:  b.ClientNote,
			StartTime:   b.StartTime,
			EndTime:     b.EndTime,
			Status:      b.Status,
			MeetingLink: b.MeetingLink,
		})
	}
	return resp
}

// PersonalBookingURLResponse is the owner's shareable booking page URL.
type PersonalBookingURLResponse struct {
	URL string `json:"url"`
}
