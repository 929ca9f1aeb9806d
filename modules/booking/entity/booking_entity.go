package entity

import (
	"time"

	"unified-calendar/core/entity"

	"github.com/google/uuid"
)

// Booking status lifecycle. A pending row holds the slot while the
// provider event is being created; failed and cancelled rows release it.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type Booking struct {
	entity.BaseEntity
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	ClientName      string    `db:"client_name" json:"client_name"`
	ClientEmail     string    `db:"client_email" json:"client_email"`
	ClientNote      *string   `db:"client_note" json:"client_note,omitempty"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" json:"status"`
	Provider        *string   `db:"provider" json:"provider,omitempty"`
	CalendarEventID *string   `db:"calendar_event_id" json:"-"`
	MeetingLink     *string   `db:"meeting_link" json:"meeting_link,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Holds reports whether this booking still occupies its slot.
func (b *Booking) Holds() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
