package controller

import (
	"strconv"
	"time"

	"unified-calendar/core/controller"
	"unified-calendar/core/errors"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/availability/dto"
	"unified-calendar/modules/availability/service"

	"github.com/labstack/echo/v4"
)

type AvailabilityController struct {
	controller.BaseController
	service service.AvailabilityService
}

func NewAvailabilityController(service service.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetRules returns the current weekly schedule
// GET /api/v1/private/availability
func (c *AvailabilityController) GetRules(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	rules, appErr := c.service.GetRules(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToRuleListResponse(rules), "Availability rules retrieved")
}

// SetRules replaces the weekly schedule
// PUT /api/v1/private/availability
func (c *AvailabilityController) SetRules(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	var req dto.SetRulesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	saved, appErr := c.service.SetRules(ctx.Request().Context(), userID, req.ToEntities())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToRuleListResponse(saved), "Availability rules saved")
}

// GetFreeSlots previews the owner's own bookable slots
// GET /api/v1/private/availability/free-slots?from=...&to=...&duration=30
func (c *AvailabilityController) GetFreeSlots(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	from, err := time.Parse(time.RFC3339, ctx.QueryParam("from"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid or missing from")
	}
	to, err := time.Parse(time.RFC3339, ctx.QueryParam("to"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid or missing to")
	}

	duration := 30
	if raw := ctx.QueryParam("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid duration")
		}
		duration = n
	}

	slots, appErr := c.service.FreeSlots(ctx.Request().Context(), userID, from, to, duration)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToSlotListResponse(slots, duration), "Free slots computed")
}
