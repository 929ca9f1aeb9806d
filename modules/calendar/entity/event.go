package entity

import (
	"encoding/json"
	"time"

	"unified-calendar/core/entity"

	"github.com/google/uuid"
)

// Event is one calendar occurrence in the unified timeline. Its
// uniqueness key is (account_id, external_id) since the bare external
// id can repeat across accounts.
type Event struct {
	entity.BaseEntity
	OwnerID    uuid.UUID `db:"owner_id" json:"owner_id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	Provider   string    `db:"provider" json:"provider"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Title      string    `db:"title" json:"title"`
	Location   *string   `db:"location" json:"location,omitempty"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	AllDay     bool      `db:"all_day" json:"all_day"`

	// Mirror bookkeeping. A mirror is a privacy-stripped blocker created
	// by the mirror engine; it is never itself mirrored again.
	IsMirror               bool       `db:"is_mirror" json:"is_mirror"`
	MirrorSourceAccountID  *uuid.UUID `db:"mirror_source_account_id" json:"mirror_source_account_id,omitempty"`
	MirrorSourceExternalID *string    `db:"mirror_source_external_id" json:"mirror_source_external_id,omitempty"`

	// Conflict flags are recomputed by the conflict detector, never
	// hand-set.
	HasConflict  bool    `db:"has_conflict" json:"has_conflict"`
	ConflictWith *string `db:"conflict_with" json:"-"` // JSON array of event ids

	LastSyncedAt time.Time `db:"last_synced_at" json:"last_synced_at"`
}

func (Event) TableName() string {
	return "events"
}

// Malformed reports whether a timed event violates start < end. All-day
// events are exempt (their end may equal start + date arithmetic quirks
// from providers).
func (e *Event) Malformed() bool {
	return !e.AllDay && !e.StartTime.Before(e.EndTime)
}

func (e *Event) SetConflictWith(ids []uuid.UUID) {
	if len(ids) == 0 {
		e.HasConflict = false
		e.ConflictWith = nil
		return
	}
	raw, _ := json.Marshal(ids)
	s := string(raw)
	e.ConflictWith = &s
	e.HasConflict = true
}

func (e *Event) GetConflictWith() []uuid.UUID {
	if e.ConflictWith == nil {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(*e.ConflictWith), &ids); err != nil {
		return nil
	}
	return ids
}
