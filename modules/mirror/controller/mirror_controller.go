package controller

import (
	"unified-calendar/core/controller"
	"unified-calendar/core/errors"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/mirror/service"

	"github.com/labstack/echo/v4"
)

type MirrorController struct {
	controller.BaseController
	service service.MirrorService
}

func NewMirrorController(service service.MirrorService) *MirrorController {
	return &MirrorController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// SyncNow runs a mirror pass for the current user and reports what
// changed
// POST /api/v1/private/mirror/sync
func (c *MirrorController) SyncNow(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	report, appErr := c.service.SyncMirrors(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, report, "Mirror sync completed")
}
