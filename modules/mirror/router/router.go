package router

import (
	"unified-calendar/core/middleware"
	"unified-calendar/modules/mirror/controller"

	"github.com/labstack/echo/v4"
)

type MirrorRouter struct {
	controller *controller.MirrorController
}

func NewMirrorRouter(controller *controller.MirrorController) *MirrorRouter {
	return &MirrorRouter{controller: controller}
}

func (r *MirrorRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	mirrorRoutes := v1.Group("/private/mirror")
	mirrorRoutes.Use(mw.AuthMiddleware())

	mirrorRoutes.POST("/sync", r.controller.SyncNow)
}
