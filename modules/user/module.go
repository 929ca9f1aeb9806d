package user

import (
	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/user/controller"
	"unified-calendar/modules/user/repository"
	"unified-calendar/modules/user/router"
	"unified-calendar/modules/user/service"

	"github.com/labstack/echo/v4"
)

// Module exposes the user service for the booking flow.
type Module struct {
	Service service.UserService
}

func Init(e *echo.Echo, db database.IDatabase) *Module {
	// Initialize layers
	repo := repository.NewUserRepository(db)
	userSvc := service.NewUserService(repo)
	userController := controller.NewUserController(userSvc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewUserRouter(userController).Setup(e, mw)

	return &Module{Service: userSvc}
}
