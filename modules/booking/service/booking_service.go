package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unified-calendar/core/config"
	"unified-calendar/core/errors"
	"unified-calendar/core/interval"
	"unified-calendar/core/logger"
	availabilityService "unified-calendar/modules/availability/service"
	"unified-calendar/modules/booking/dto"
	"unified-calendar/modules/booking/entity"
	"unified-calendar/modules/booking/repository"
	calendarEntity "unified-calendar/modules/calendar/entity"
	calendarService "unified-calendar/modules/calendar/service"
	notificationService "unified-calendar/modules/notification/service"
	"unified-calendar/modules/provider"
	userService "unified-calendar/modules/user/service"

	"github.com/google/uuid"
)

// BookingService runs the public scheduling flow. The slot hold is a
// pending row guarded by a database constraint, so two clients racing
// for the same start time resolve to exactly one winner regardless of
// how many processes serve the request.
type BookingService interface {
	PublicSlots(ctx context.Context, username string, from, to time.Time, durationMinutes int) (*dto.PublicSlotsResponse, *errors.AppError)
	BookSlot(ctx context.Context, username string, req *dto.ScheduleRequest) (*dto.BookingResponse, *errors.AppError)
	ListMyBookings(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, *errors.AppError)
	CancelBooking(ctx context.Context, ownerID, bookingID uuid.UUID) *errors.AppError
	GetPersonalBookingURL(ctx context.Context, ownerID uuid.UUID) (*dto.PersonalBookingURLResponse, *errors.AppError)
}

type bookingService struct {
	userSvc         userService.UserService
	availabilitySvc availabilityService.AvailabilityService
	accountSvc      calendarService.AccountService
	bookingRepo     repository.BookingRepository
	notifier        notificationService.Notifier
}

func NewBookingService(
	userSvc userService.UserService,
	availabilitySvc availabilityService.AvailabilityService,
	accountSvc calendarService.AccountService,
	bookingRepo repository.BookingRepository,
	notifier notificationService.Notifier,
) BookingService {
	return &bookingService{
		userSvc:         userSvc,
		availabilitySvc: availabilitySvc,
		accountSvc:      accountSvc,
		bookingRepo:     bookingRepo,
		notifier:        notifier,
	}
}

func (s *bookingService) PublicSlots(ctx context.Context, username string, from, to time.Time, durationMinutes int) (*dto.PublicSlotsResponse, *errors.AppError) {
	user, appErr := s.userSvc.GetByPublicUsername(ctx, username)
	if appErr != nil {
		return nil, appErr
	}

	slots, appErr := s.availabilitySvc.FreeSlots(ctx, user.ID, from, to, durationMinutes)
	if appErr != nil {
		return nil, appErr
	}

	accounts, appErr := s.accountSvc.GetActiveAccounts(ctx, user.ID)
	if appErr != nil {
		return nil, appErr
	}
	providers := make([]string, 0, 2)
	seen := make(map[provider.Provider]struct{})
	for i := range accounts {
		if _, ok := seen[accounts[i].Provider]; ok {
			continue
		}
		seen[accounts[i].Provider] = struct{}{}
		providers = append(providers, string(accounts[i].Provider))
	}

	return &dto.PublicSlotsResponse{
		OwnerName:          user.Name,
		DurationMinutes:    durationMinutes,
		AvailableProviders: providers,
		Slots:              dto.ToSlotResponses(slots),
	}, nil
}

func (s *bookingService) BookSlot(ctx context.Context, username string, req *dto.ScheduleRequest) (*dto.BookingResponse, *errors.AppError) {
	user, appErr := s.userSvc.GetByPublicUsername(ctx, username)
	if appErr != nil {
		return nil, appErr
	}

	if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.ClientEmail) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "client_name and client_email are required", nil)
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid start_time", err)
	}
	start = start.UTC()

	duration := req.DurationMinutes
	if duration == 0 {
		duration = user.DefaultSlotDurationMinutes
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	// The requested slot must be one the availability engine would offer
	// right now, recomputed from live data rather than the browsing
	// cache. This covers rules, events across every account, mirrors and
	// held bookings in a single check. The window is padded a day either
	// side of the slot so availability windows crossing UTC midnight are
	// never clipped out of the recomputation.
	slots, appErr := s.availabilitySvc.FreeSlotsLive(ctx, user.ID, start.AddDate(0, 0, -1), end.AddDate(0, 0, 1), duration)
	if appErr != nil {
		return nil, appErr
	}
	if !slotOffered(slots, start, end) {
		return nil, errors.NewAppError(errors.ErrSlotUnavailable, "Requested slot is not available", nil)
	}

	booking := &entity.Booking{
		OwnerID:         user.ID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		ClientNote:      req.ClientNote,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration,
	}

	reserved, err := s.bookingRepo.TryReserve(ctx, booking)
	if err != nil {
		if err == repository.ErrSlotTaken {
			return nil, errors.NewAppError(errors.ErrSlotUnavailable, "Slot was just taken", nil)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to reserve slot", err)
	}

	account, appErr := s.pickAccount(ctx, user.ID, req.PreferredProvider, req.ClientEmail)
	if appErr != nil {
		_ = s.bookingRepo.MarkFailed(ctx, reserved.ID)
		return nil, appErr
	}

	draft := s.buildBookingDraft(user.Name, reserved)
	ref, err := s.accountSvc.CreateRemoteEvent(ctx, account, draft)
	if err != nil {
		logger.Error("BookingService:BookSlot:ProviderCreateFailed",
			"booking_id", reserved.ID, "provider", account.Provider, "error", err)
		_ = s.bookingRepo.MarkFailed(ctx, reserved.ID)
		return nil, errors.NewAppError(errors.ErrProviderFailure, "Failed to create the calendar event", err)
	}

	if err := s.bookingRepo.Confirm(ctx, reserved.ID, string(account.Provider), ref.EventID, ref.MeetingLink); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to confirm booking", err)
	}
	reserved.Status = entity.StatusConfirmed
	p := string(account.Provider)
	reserved.Provider = &p
	if ref.MeetingLink != "" {
		link := ref.MeetingLink
		reserved.MeetingLink = &link
	}

	// Best effort; a missed notification never fails the booking.
	if err := s.notifier.NotifyBooking(ctx, notificationService.BookingNotice{
		OwnerID:     user.ID,
		BookingID:   reserved.ID,
		ClientName:  reserved.ClientName,
		ClientEmail: reserved.ClientEmail,
		StartTime:   reserved.StartTime,
		EndTime:     reserved.EndTime,
		Status:      reserved.Status,
		MeetingLink: ref.MeetingLink,
	}); err != nil {
		logger.Warn("BookingService:BookSlot:NotifyFailed", "booking_id", reserved.ID, "error", err)
	}

	logger.Info("BookingService:BookSlot:Confirmed",
		"booking_id", reserved.ID, "owner_id", user.ID, "start", start, "provider", account.Provider)
	return dto.ToBookingResponse(reserved), nil
}

func slotOffered(slots []interval.Interval, start, end time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) && s.End.Equal(end) {
			return true
		}
	}
	return false
}

// pickAccount chooses which calendar hosts the confirmed event. The
// client's explicit preference wins, then the email domain hints, then
// Google over Microsoft among the active accounts.
func (s *bookingService) pickAccount(ctx context.Context, ownerID uuid.UUID, preferred, clientEmail string) (*calendarEntity.Account, *errors.AppError) {
	accounts, appErr := s.accountSvc.GetActiveAccounts(ctx, ownerID)
	if appErr != nil {
		return nil, appErr
	}
	if len(accounts) == 0 {
		return nil, errors.NewAppError(errors.ErrConfigurationGap, "Owner has no connected calendar", nil)
	}

	byProvider := func(p provider.Provider) *calendarEntity.Account {
		for i := range accounts {
			if accounts[i].Provider == p {
				return &accounts[i]
			}
		}
		return nil
	}

	if preferred != "" {
		if p, err := provider.Parse(preferred); err == nil {
			if a := byProvider(p); a != nil {
				return a, nil
			}
		}
	}

	if p := inferProviderFromEmail(clientEmail); p != "" {
		if a := byProvider(p); a != nil {
			return a, nil
		}
	}

	if a := byProvider(provider.Google); a != nil {
		return a, nil
	}
	return &accounts[0], nil
}

func inferProviderFromEmail(email string) provider.Provider {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	domain := strings.ToLower(email[at+1:])
	switch {
	case domain == "gmail.com" || domain == "googlemail.com":
		return provider.Google
	case domain == "outlook.com" || domain == "hotmail.com" || domain == "live.com":
		return provider.Microsoft
	}
	return ""
}

func (s *bookingService) buildBookingDraft(ownerName string, b *entity.Booking) provider.EventDraft {
	description := fmt.Sprintf("Booked by %s (%s)", b.ClientName, b.ClientEmail)
	if b.ClientNote != nil && *b.ClientNote != "" {
		description += "\n\n" + *b.ClientNote
	}
	return provider.EventDraft{
		Title:            fmt.Sprintf("%s and %s", ownerName, b.ClientName),
		Description:      description,
		Start:            b.StartTime,
		End:              b.EndTime,
		Timezone:         "UTC",
		Attendees:        []string{b.ClientEmail},
		RemindersEnabled: true,
		Visibility:       "default",
		SendUpdates:      true,
		OnlineMeeting:    true,
		GuestsCanModify:  false,
	}
}

func (s *bookingService) ListMyBookings(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.Booking, *errors.AppError) {
	bookings, err := s.bookingRepo.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, ownerID, bookingID uuid.UUID) *errors.AppError {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load booking", err)
	}
	if booking == nil || booking.OwnerID != ownerID {
		return errors.NewAppError(errors.ErrNotFound, "Booking not found", nil)
	}
	if !booking.Holds() {
		return errors.NewAppError(errors.ErrInvalidInput, "Booking no longer holds a slot", nil)
	}

	// Remove the provider event first so the slot does not reopen while
	// the calendar still shows it busy.
	if booking.Status == entity.StatusConfirmed && booking.Provider != nil && booking.CalendarEventID != nil {
		if p, perr := provider.Parse(*booking.Provider); perr == nil {
			if account := s.findAccountForProvider(ctx, ownerID, p); account != nil {
				if err := s.accountSvc.DeleteRemoteEvent(ctx, account, *booking.CalendarEventID); err != nil {
					logger.Warn("BookingService:CancelBooking:RemoteDeleteFailed",
						"booking_id", bookingID, "error", err)
				}
			}
		}
	}

	if err := s.bookingRepo.Cancel(ctx, ownerID, bookingID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to cancel booking", err)
	}
	logger.Info("BookingService:CancelBooking:Success", "booking_id", bookingID)
	return nil
}

func (s *bookingService) findAccountForProvider(ctx context.Context, ownerID uuid.UUID, p provider.Provider) *calendarEntity.Account {
	accounts, appErr := s.accountSvc.GetActiveAccounts(ctx, ownerID)
	if appErr != nil {
		return nil
	}
	for i := range accounts {
		if accounts[i].Provider == p {
			return &accounts[i]
		}
	}
	return nil
}

// GetPersonalBookingURL returns the shareable booking page URL for the
// authenticated user, assigning a public username on first use.
func (s *bookingService) GetPersonalBookingURL(ctx context.Context, ownerID uuid.UUID) (*dto.PersonalBookingURLResponse, *errors.AppError) {
	username, appErr := s.userSvc.EnsurePublicUsername(ctx, ownerID)
	if appErr != nil {
		return nil, appErr
	}

	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Server configuration error", nil)
	}

	host := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	if cfg.Server.Host != "" && cfg.Server.Host != "0.0.0.0" {
		host = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	return &dto.PersonalBookingURLResponse{
		URL: fmt.Sprintf("%s/booking/%s", host, username),
	}, nil
}
