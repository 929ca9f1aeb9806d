package entity

import (
	"time"

	"unified-calendar/core/entity"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
)

// Account is one external calendar connection owned by a user. A user
// may connect several accounts per provider; every query takes the
// explicit set of accounts rather than assuming a single one.
type Account struct {
	entity.BaseEntity
	OwnerID        uuid.UUID         `db:"owner_id" json:"owner_id"`
	Provider       provider.Provider `db:"provider" json:"provider"`
	Email          string            `db:"email" json:"email"`
	AccessToken    string            `db:"access_token" json:"-"`
	RefreshToken   string            `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time         `db:"token_expires_at" json:"token_expires_at"`
	IsActive       bool              `db:"is_active" json:"is_active"`
	LastSyncedAt   *time.Time        `db:"last_synced_at" json:"last_synced_at,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}
