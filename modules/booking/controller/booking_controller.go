package controller

import (
	"strconv"
	"time"

	"unified-calendar/core/controller"
	"unified-calendar/core/errors"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/booking/dto"
	"unified-calendar/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	service service.BookingService
}

func NewBookingController(service service.BookingService) *BookingController {
	return &BookingController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// PublicSlots returns the open slots on an owner's booking page
// GET /api/v1/public/booking/:username/slots?from=...&to=...&duration=30
func (c *BookingController) PublicSlots(ctx echo.Context) error {
	username := ctx.Param("username")

	from, to, err := parsePublicWindow(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}

	duration := 30
	if raw := ctx.QueryParam("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid duration")
		}
		duration = n
	}

	resp, appErr := c.service.PublicSlots(ctx.Request().Context(), username, from, to, duration)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Slots retrieved")
}

// Schedule books one slot
// POST /api/v1/public/booking/:username/schedule
func (c *BookingController) Schedule(ctx echo.Context) error {
	username := ctx.Param("username")

	req := new(dto.ScheduleRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	resp, appErr := c.service.BookSlot(ctx.Request().Context(), username, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Booking confirmed")
}

// ListMyBookings lists the owner's bookings
// GET /api/v1/private/booking?from=...&to=...
func (c *BookingController) ListMyBookings(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	from, to, err := parsePublicWindow(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}

	bookings, appErr := c.service.ListMyBookings(ctx.Request().Context(), userID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToBookingListResponse(bookings), "Bookings retrieved")
}

// CancelBooking cancels a held booking
// POST /api/v1/private/booking/:id/cancel
func (c *BookingController) CancelBooking(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid booking id")
	}

	if appErr := c.service.CancelBooking(ctx.Request().Context(), userID, bookingID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Booking cancelled")
}

// GetPersonalBookingURL returns the shareable booking page URL
// GET /api/v1/private/booking/personal-url
func (c *BookingController) GetPersonalBookingURL(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	resp, appErr := c.service.GetPersonalBookingURL(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Booking URL retrieved")
}

// parsePublicWindow reads from/to, defaulting to the next seven days.
func parsePublicWindow(ctx echo.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 7)

	var err error
	if raw := ctx.QueryParam("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}
