package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unified-calendar/core/logger"
	"unified-calendar/core/params"
	"unified-calendar/core/worker"
	"unified-calendar/modules/notification/entity"
	"unified-calendar/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BookingNotice is the payload carried on the notify queue. Delivery to
// external channels (email, push) happens outside this service; here it
// lands as an in-app notification row.
type BookingNotice struct {
	OwnerID     uuid.UUID `json:"owner_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	MeetingLink string    `json:"meeting_link,omitempty"`
}

// Notifier is the enqueue-side surface used by the booking flow.
// Failures are logged and swallowed by callers; a missed notification
// never fails a booking.
type Notifier interface {
	NotifyBooking(ctx context.Context, notice BookingNotice) error
}

type NotificationService struct {
	repo   *repository.NotificationRepository
	client *asynq.Client
}

func NewNotificationService(repo *repository.NotificationRepository, client *asynq.Client) *NotificationService {
	return &NotificationService{repo: repo, client: client}
}

func (s *NotificationService) NotifyBooking(ctx context.Context, notice BookingNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, asynq.NewTask(worker.TypeNotifyBooking, payload))
	return err
}

// HandleBookingNotice consumes a queued notice and stores the in-app
// notification.
func (s *NotificationService) HandleBookingNotice(ctx context.Context, t *asynq.Task) error {
	var notice BookingNotice
	if err := json.Unmarshal(t.Payload(), &notice); err != nil {
		return err
	}

	notif := &entity.Notification{
		UserID: notice.OwnerID,
		Type:   entity.TypeBookingConfirmed,
		Title:  "New booking confirmed",
		Message: fmt.Sprintf("%s booked %s - %s",
			notice.ClientName,
			notice.StartTime.UTC().Format("Jan 2 15:04"),
			notice.EndTime.UTC().Format("15:04 MST")),
		Data: entity.JSONB{
			"booking_id":   notice.BookingID.String(),
			"client_email": notice.ClientEmail,
			"meeting_link": notice.MeetingLink,
		},
	}
	if notice.Status != "" && notice.Status != "confirmed" {
		notif.Type = entity.TypeBookingFailed
		notif.Title = "Booking could not be completed"
	}

	if err := s.repo.Create(ctx, notif); err != nil {
		return err
	}
	logger.Info("NotificationService:HandleBookingNotice:Stored",
		"owner_id", notice.OwnerID, "booking_id", notice.BookingID, "type", notif.Type)
	return nil
}

// NotifySyncFailure records a sync failure directly; callers already
// run inside the worker, so there is nothing to enqueue.
func (s *NotificationService) NotifySyncFailure(ctx context.Context, userID uuid.UUID, failedAccounts []uuid.UUID) error {
	ids := make([]string, len(failedAccounts))
	for i, id := range failedAccounts {
		ids[i] = id.String()
	}
	notif := &entity.Notification{
		UserID:  userID,
		Type:    entity.TypeSyncFailed,
		Title:   "Calendar sync failed",
		Message: fmt.Sprintf("%d connected account(s) could not be synced", len(failedAccounts)),
		Data:    entity.JSONB{"account_ids": ids},
	}
	return s.repo.Create(ctx, notif)
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
