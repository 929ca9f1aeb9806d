package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/booking/entity"

	"github.com/google/uuid"
)

// ErrSlotTaken reports that another booking already holds the requested
// start time. The partial unique index on (owner_id, start_time) over
// pending and confirmed rows is the single arbiter under concurrency.
var ErrSlotTaken = errors.New("slot already taken")

type BookingRepository interface {
	TryReserve(ctx context.Context, booking *entity.Booking) (*entity.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, error)
	ListHolding(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, error)
	Confirm(ctx context.Context, id uuid.UUID, provider, calendarEventID, meetingLink string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, ownerID, id uuid.UUID) error
}

type bookingRepository struct {
	db database.IDatabase
}

func NewBookingRepository(db database.IDatabase) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, owner_id, client_name, client_email, client_note, start_time, end_time,
	duration_minutes, status, provider, calendar_event_id, meeting_link, created_at, updated_at`

// TryReserve inserts a pending booking. ON CONFLICT DO NOTHING against
// the holding-slot index turns a lost race into zero returned rows,
// surfaced as ErrSlotTaken. Exactly one concurrent caller wins.
func (r *bookingRepository) TryReserve(ctx context.Context, booking *entity.Booking) (*entity.Booking, error) {
	query := `
		INSERT INTO bookings (owner_id, client_name, client_email, client_note, start_time, end_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, start_time) WHERE status IN ('pending', 'confirmed') DO NOTHING
		RETURNING id, created_at, updated_at
	`
	booking.Status = entity.StatusPending
	err := r.db.QueryRowContext(ctx, query,
		booking.OwnerID, booking.ClientName, booking.ClientEmail, booking.ClientNote,
		booking.StartTime, booking.EndTime, booking.DurationMinutes, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSlotTaken
		}
		logger.Error("BookingRepository:TryReserve", "error", err)
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking entity.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("BookingRepository:GetByID", "error", err)
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE owner_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`
	var bookings []entity.Booking
	err := r.db.SelectContext(ctx, &bookings, query, ownerID, from, to)
	if err != nil {
		logger.Error("BookingRepository:ListByOwner", "error", err)
		return nil, err
	}
	return bookings, nil
}

// ListHolding returns bookings that still occupy their slot.
func (r *bookingRepository) ListHolding(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE owner_id = $1 AND status IN ('pending', 'confirmed') AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`
	var bookings []entity.Booking
	err := r.db.SelectContext(ctx, &bookings, query, ownerID, from, to)
	if err != nil {
		logger.Error("BookingRepository:ListHolding", "error", err)
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, id uuid.UUID, provider, calendarEventID, meetingLink string) error {
	query := `
		UPDATE bookings
		SET status = $2, provider = $3, calendar_event_id = $4, meeting_link = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $1
	`
	err := r.db.ExecContext(ctx, query, id, entity.StatusConfirmed, provider, calendarEventID, meetingLink)
	if err != nil {
		logger.Error("BookingRepository:Confirm", "booking_id", id, "error", err)
	}
	return err
}

// MarkFailed releases the slot held by a pending booking whose provider
// event could not be created.
func (r *bookingRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`
	err := r.db.ExecContext(ctx, query, id, entity.StatusFailed)
	if err != nil {
		logger.Error("BookingRepository:MarkFailed", "booking_id", id, "error", err)
	}
	return err
}

func (r *bookingRepository) Cancel(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND owner_id = $2`
	err := r.db.ExecContext(ctx, query, id, ownerID, entity.StatusCancelled)
	if err != nil {
		logger.Error("BookingRepository:Cancel", "booking_id", id, "error", err)
	}
	return err
}
