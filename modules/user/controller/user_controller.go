package controller

import (
	"unified-calendar/core/controller"
	"unified-calendar/core/errors"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/user/dto"
	"unified-calendar/modules/user/service"

	"github.com/labstack/echo/v4"
)

type UserController struct {
	controller.BaseController
	service service.UserService
}

func NewUserController(service service.UserService) *UserController {
	return &UserController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// GetMe returns the authenticated user's profile
// GET /api/v1/private/users/me
func (c *UserController) GetMe(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	user, appErr := c.service.GetByID(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToUserResponse(user), "Profile retrieved")
}

// UpdateScheduling updates timezone and slot duration defaults
// PUT /api/v1/private/users/me/scheduling
func (c *UserController) UpdateScheduling(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	req := new(dto.UpdateSchedulingRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	user, appErr := c.service.UpdateSchedulingDefaults(ctx.Request().Context(), userID, req.Timezone, req.DefaultSlotDurationMinutes)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToUserResponse(user), "Scheduling defaults updated")
}
