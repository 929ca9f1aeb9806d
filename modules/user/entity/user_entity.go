package entity

import (
	"unified-calendar/core/entity"
)

// User is the owner of accounts, events, rules and bookings. Identity
// and login live in the external OAuth collaborator; this table only
// carries what scheduling needs.
type User struct {
	entity.BaseEntity
	Email                      string  `db:"email" json:"email"`
	Name                       string  `db:"name" json:"name"`
	PublicUsername             *string `db:"public_username" json:"public_username,omitempty"`
	Timezone                   string  `db:"timezone" json:"timezone"`
	DefaultSlotDurationMinutes int     `db:"default_slot_duration_minutes" json:"default_slot_duration_minutes"`
}

func (User) TableName() string {
	return "users"
}
