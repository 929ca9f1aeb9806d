package booking

import (
	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/middleware"
	availabilityService "unified-calendar/modules/availability/service"
	"unified-calendar/modules/booking/controller"
	"unified-calendar/modules/booking/repository"
	"unified-calendar/modules/booking/router"
	bookingService "unified-calendar/modules/booking/service"
	calendarService "unified-calendar/modules/calendar/service"
	notificationService "unified-calendar/modules/notification/service"
	userService "unified-calendar/modules/user/service"

	"github.com/labstack/echo/v4"
)

// Module exposes the booking repository for the availability engine.
type Module struct {
	Repo repository.BookingRepository
}

func Init(
	e *echo.Echo,
	db database.IDatabase,
	userSvc userService.UserService,
	availabilitySvc availabilityService.AvailabilityService,
	accountSvc calendarService.AccountService,
	bookingRepo repository.BookingRepository,
	notifier notificationService.Notifier,
) *Module {
	// Initialize layers
	bookingSvc := bookingService.NewBookingService(userSvc, availabilitySvc, accountSvc, bookingRepo, notifier)
	ctrl := controller.NewBookingController(bookingSvc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewBookingRouter(ctrl).Setup(e, mw)

	return &Module{Repo: bookingRepo}
}
