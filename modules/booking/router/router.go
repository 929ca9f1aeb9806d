package router

import (
	"unified-calendar/core/middleware"
	"unified-calendar/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Public booking page, no auth
	public := v1.Group("/public/booking")
	public.GET("/:username/slots", r.controller.PublicSlots)
	public.POST("/:username/schedule", r.controller.Schedule)

	// Private routes (require authentication)
	private := v1.Group("/private/booking")
	private.Use(mw.AuthMiddleware())
	private.GET("", r.controller.ListMyBookings)
	private.POST("/:id/cancel", r.controller.CancelBooking)
	private.GET("/personal-url", r.controller.GetPersonalBookingURL)
}
