package router

import (
	"unified-calendar/core/middleware"
	"unified-calendar/modules/user/controller"

	"github.com/labstack/echo/v4"
)

type UserRouter struct {
	controller *controller.UserController
}

func NewUserRouter(controller *controller.UserController) *UserRouter {
	return &UserRouter{controller: controller}
}

func (r *UserRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	userRoutes := v1.Group("/private/users")
	userRoutes.Use(mw.AuthMiddleware())

	userRoutes.GET("/me", r.controller.GetMe)
	userRoutes.PUT("/me/scheduling", r.controller.UpdateScheduling)
}
