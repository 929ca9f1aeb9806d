package router

import (
	"unified-calendar/core/middleware"
	"unified-calendar/modules/availability/controller"

	"github.com/labstack/echo/v4"
)

type AvailabilityRouter struct {
	controller *controller.AvailabilityController
}

func NewAvailabilityRouter(controller *controller.AvailabilityController) *AvailabilityRouter {
	return &AvailabilityRouter{
		controller: controller,
	}
}

func (r *AvailabilityRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (require authentication)
	availabilityRoutes := v1.Group("/private/availability")
	availabilityRoutes.Use(mw.AuthMiddleware())

	availabilityRoutes.GET("", r.controller.GetRules)
	availabilityRoutes.PUT("", r.controller.SetRules)
	availabilityRoutes.GET("/free-slots", r.controller.GetFreeSlots)
}
