package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"unified-calendar/core/cache"
	"unified-calendar/core/config"
	"unified-calendar/core/constants"
	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/core/worker"
	"unified-calendar/modules/availability"
	"unified-calendar/modules/booking"
	bookingRepository "unified-calendar/modules/booking/repository"
	"unified-calendar/modules/calendar"
	"unified-calendar/modules/mirror"
	"unified-calendar/modules/notification"
	"unified-calendar/modules/user"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Run boots the whole service: config, storage, queue, HTTP and the
// periodic sync schedule. It blocks until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// The cache is an optimization; the service runs without Redis.
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Warn("Server:Run:RedisUnavailable", "error", err)
	}

	w := worker.New(cfg.Redis)
	defer w.Shutdown()

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	// Modules wire their own repositories, services, routes and task
	// handlers. Notification precedes calendar so sync failures can be
	// surfaced; booking, availability and mirror build on the calendar
	// services.
	userModule := user.Init(e, db)
	notificationSvc := notification.Init(e, db, w)
	calendarModule := calendar.Init(e, db, redisCache, w, notificationSvc)
	bookingRepo := bookingRepository.NewBookingRepository(db)
	availabilityModule := availability.Init(e, db, redisCache, calendarModule.EventRepo, bookingRepo)
	booking.Init(e, db, userModule.Service, availabilityModule.Service, calendarModule.AccountService, bookingRepo, notificationSvc)
	mirror.Init(e, db, w, calendarModule.AccountService, calendarModule.EventRepo)

	// Periodic full-fleet passes.
	if err := w.Schedule(cfg.Sync.CalendarSyncSpec, asynq.NewTask(worker.TypeCalendarSyncAll, nil)); err != nil {
		return fmt.Errorf("schedule calendar sync: %w", err)
	}
	if err := w.Schedule(cfg.Sync.MirrorSyncSpec, asynq.NewTask(worker.TypeMirrorSyncAll, nil)); err != nil {
		return fmt.Errorf("schedule mirror sync: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:StartFailed", "error", err)
		}
	}()
	logger.Info("Server:Run:Started", "host", cfg.Server.Host, "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server:Run:ShuttingDown")
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}
