package entity

import (
	"unified-calendar/core/entity"

	"github.com/google/uuid"
)

// AvailabilityRule is one weekly recurring open window. At most one
// rule exists per (owner, weekday); saving replaces the whole set.
type AvailabilityRule struct {
	entity.BaseEntity
	OwnerID             uuid.UUID `db:"owner_id" json:"owner_id"`
	DayOfWeek           int       `db:"day_of_week" json:"day_of_week"` // 0 = Sunday
	StartTime           string    `db:"start_time" json:"start_time"`   // "HH:MM" wall clock
	EndTime             string    `db:"end_time" json:"end_time"`
	Timezone            string    `db:"timezone" json:"timezone"` // IANA name
	SlotDurationMinutes int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
}

func (AvailabilityRule) TableName() string {
	return "availability_rules"
}
