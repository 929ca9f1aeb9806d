package entity

import (
	"time"

	"unified-calendar/core/entity"

	"github.com/google/uuid"
)

// MirrorMapping records one blocker placed on a target account for one
// source event. The (source account, source external id, target
// account) triple is unique, which makes mirror passes idempotent: a
// re-run finds the mapping and writes nothing.
type MirrorMapping struct {
	entity.BaseEntity
	OwnerID           uuid.UUID  `db:"owner_id" json:"owner_id"`
	SourceAccountID   uuid.UUID  `db:"source_account_id" json:"source_account_id"`
	SourceExternalID  string     `db:"source_external_id" json:"source_external_id"`
	TargetAccountID   uuid.UUID  `db:"target_account_id" json:"target_account_id"`
	MirrorEventID     *uuid.UUID `db:"mirror_event_id" json:"mirror_event_id,omitempty"`
	MirrorExternalID  string     `db:"mirror_external_id" json:"mirror_external_id"`
	LastObservedStart time.Time  `db:"last_observed_start" json:"last_observed_start"`
	LastObservedEnd   time.Time  `db:"last_observed_end" json:"last_observed_end"`
}

func (MirrorMapping) TableName() string {
	return "mirror_mappings"
}

// Key identifies a mapping inside one owner's mirror state.
type Key struct {
	SourceAccountID  uuid.UUID
	SourceExternalID string
	TargetAccountID  uuid.UUID
}

func (m *MirrorMapping) Key() Key {
	return Key{
		SourceAccountID:  m.SourceAccountID,
		SourceExternalID: m.SourceExternalID,
		TargetAccountID:  m.TargetAccountID,
	}
}
