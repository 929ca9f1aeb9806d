package notification

import (
	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/middleware"
	"unified-calendar/core/worker"
	"unified-calendar/modules/notification/controller"
	"unified-calendar/modules/notification/repository"
	"unified-calendar/modules/notification/router"
	"unified-calendar/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase, w *worker.Worker) *service.NotificationService {
	// Initialize layers
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, w.Client)
	ctrl := controller.NewNotificationController(svc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewNotificationRouter(ctrl).Setup(e, mw)

	// Consume queued booking notices
	w.HandleFunc(worker.TypeNotifyBooking, svc.HandleBookingNotice)

	return svc
}
