package availability

import (
	"unified-calendar/core/cache"
	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/availability/controller"
	"unified-calendar/modules/availability/repository"
	"unified-calendar/modules/availability/router"
	"unified-calendar/modules/availability/service"
	bookingRepository "unified-calendar/modules/booking/repository"
	calendarRepository "unified-calendar/modules/calendar/repository"

	"github.com/labstack/echo/v4"
)

// Module exposes the availability service for the booking flow.
type Module struct {
	Service service.AvailabilityService
}

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache,
	eventRepo calendarRepository.EventRepository, bookingRepo bookingRepository.BookingRepository) *Module {
	// Initialize layers
	ruleRepo := repository.NewAvailabilityRepository(db)
	availabilitySvc := service.NewAvailabilityService(ruleRepo, eventRepo, bookingRepo, c)
	availabilityController := controller.NewAvailabilityController(availabilitySvc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewAvailabilityRouter(availabilityController).Setup(e, mw)

	return &Module{Service: availabilitySvc}
}
