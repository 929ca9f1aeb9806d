package router

import (
	"unified-calendar/core/middleware"
	"unified-calendar/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (require authentication)
	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	// Accounts
	calendarRoutes.POST("/accounts", r.controller.ConnectAccount)
	calendarRoutes.GET("/accounts", r.controller.GetAccounts)
	calendarRoutes.DELETE("/accounts/:id", r.controller.DisconnectAccount)

	// Unified timeline
	calendarRoutes.GET("/events", r.controller.GetEvents)
	calendarRoutes.GET("/conflicts", r.controller.GetConflicts)
	calendarRoutes.GET("/export.ics", r.controller.ExportICS)

	// Sync
	calendarRoutes.POST("/sync", r.controller.SyncNow)
}
