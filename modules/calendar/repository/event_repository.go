package repository

import (
	"context"
	"database/sql"
	"time"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type EventRepository interface {
	Upsert(ctx context.Context, event *entity.Event) (*entity.Event, error)
	GetByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*entity.Event, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]entity.Event, error)
	ListNonMirrorByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, error)
	ListConflicted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, error)
	UpdateConflictFlags(ctx context.Context, events []entity.Event) error
	DeleteByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error
	DeleteVanished(ctx context.Context, accountID uuid.UUID, from, to time.Time, seenExternalIDs []string) error
}

type eventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, owner_id, account_id, provider, external_id, title, location, start_time, end_time, all_day,
	is_mirror, mirror_source_account_id, mirror_source_external_id, has_conflict, conflict_with, last_synced_at,
	created_at, updated_at`

// Upsert inserts or refreshes an event keyed on (account_id,
// external_id). Mirror bookkeeping columns are only written on insert so
// a provider refresh cannot strip a blocker of its origin.
func (r *eventRepository) Upsert(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (owner_id, account_id, provider, external_id, title, location, start_time, end_time, all_day,
			is_mirror, mirror_source_account_id, mirror_source_external_id, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, external_id) DO UPDATE
		SET title = EXCLUDED.title,
		    location = EXCLUDED.location,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    all_day = EXCLUDED.all_day,
		    last_synced_at = EXCLUDED.last_synced_at,
		    updated_at = NOW()
		RETURNING id, is_mirror, mirror_source_account_id, mirror_source_external_id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		event.OwnerID, event.AccountID, event.Provider, event.ExternalID,
		event.Title, event.Location, event.StartTime, event.EndTime, event.AllDay,
		event.IsMirror, event.MirrorSourceAccountID, event.MirrorSourceExternalID, event.LastSyncedAt,
	).Scan(&event.ID, &event.IsMirror, &event.MirrorSourceAccountID, &event.MirrorSourceExternalID,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:Upsert", "external_id", event.ExternalID, "error", err)
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) GetByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE account_id = $1 AND external_id = $2`
	var event entity.Event
	err := r.db.GetContext(ctx, &event, query, accountID, externalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByAccountAndExternalID", "error", err)
		return nil, err
	}
	return &event, nil
}

// ListByOwner returns events overlapping [from, to). An empty accountIDs
// slice means all of the owner's accounts.
func (r *eventRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, accountIDs []uuid.UUID, from, to time.Time) ([]entity.Event, error) {
	var events []entity.Event
	var err error
	if len(accountIDs) == 0 {
		query := `
			SELECT ` + eventColumns + `
			FROM events
			WHERE owner_id = $1 AND start_time < $3 AND end_time > $2
			ORDER BY start_time ASC
		`
		err = r.db.SelectContext(ctx, &events, query, ownerID, from, to)
	} else {
		query := `
			SELECT ` + eventColumns + `
			FROM events
			WHERE owner_id = $1 AND account_id = ANY($4) AND start_time < $3 AND end_time > $2
			ORDER BY start_time ASC
		`
		ids := make([]string, len(accountIDs))
		for i, id := range accountIDs {
			ids[i] = id.String()
		}
		err = r.db.SelectContext(ctx, &events, query, ownerID, from, to, pq.Array(ids))
	}
	if err != nil {
		logger.Error("EventRepository:ListByOwner", "error", err)
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ListNonMirrorByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1 AND is_mirror = false AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`
	var events []entity.Event
	err := r.db.SelectContext(ctx, &events, query, ownerID, from, to)
	if err != nil {
		logger.Error("EventRepository:ListNonMirrorByOwner", "error", err)
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ListConflicted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1 AND has_conflict = true AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`
	var events []entity.Event
	err := r.db.SelectContext(ctx, &events, query, ownerID, from, to)
	if err != nil {
		logger.Error("EventRepository:ListConflicted", "error", err)
		return nil, err
	}
	return events, nil
}

// UpdateConflictFlags persists recomputed flags in one transaction so a
// partial write never leaves the timeline half-flagged.
func (r *eventRepository) UpdateConflictFlags(ctx context.Context, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE events SET has_conflict = $2, conflict_with = $3, updated_at = NOW() WHERE id = $1`
	for i := range events {
		if _, err := tx.ExecContext(ctx, query, events[i].ID, events[i].HasConflict, events[i].ConflictWith); err != nil {
			logger.Error("EventRepository:UpdateConflictFlags", "event_id", events[i].ID, "error", err)
			return err
		}
	}
	return tx.Commit()
}

func (r *eventRepository) DeleteByAccountAndExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error {
	query := `DELETE FROM events WHERE account_id = $1 AND external_id = $2`
	err := r.db.ExecContext(ctx, query, accountID, externalID)
	if err != nil {
		logger.Error("EventRepository:DeleteByAccountAndExternalID", "error", err)
	}
	return err
}

// DeleteVanished removes non-mirror events inside the sync window that
// the latest provider fetch no longer reports. Mirrors are cleaned up by
// the mirror engine, which also owns their remote counterparts.
func (r *eventRepository) DeleteVanished(ctx context.Context, accountID uuid.UUID, from, to time.Time, seenExternalIDs []string) error {
	query := `
		DELETE FROM events
		WHERE account_id = $1
		  AND is_mirror = false
		  AND start_time < $3 AND end_time > $2
		  AND NOT (external_id = ANY($4))
	`
	err := r.db.ExecContext(ctx, query, accountID, from, to, pq.Array(seenExternalIDs))
	if err != nil {
		logger.Error("EventRepository:DeleteVanished", "account_id", accountID, "error", err)
	}
	return err
}
