package calendar

import (
	"context"
	"encoding/json"

	"unified-calendar/core/cache"
	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/core/middleware"
	"unified-calendar/core/worker"
	"unified-calendar/modules/calendar/controller"
	"unified-calendar/modules/calendar/repository"
	"unified-calendar/modules/calendar/router"
	"unified-calendar/modules/calendar/service"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Module wires the calendar layers and exposes the services the other
// modules depend on.
type Module struct {
	AccountService  service.AccountService
	EventService    service.EventService
	SyncService     service.SyncService
	ConflictService service.ConflictService
	EventRepo       repository.EventRepository
	AccountRepo     repository.AccountRepository
}

// SyncFailureNotifier surfaces background sync failures to the owner.
type SyncFailureNotifier interface {
	NotifySyncFailure(ctx context.Context, userID uuid.UUID, failedAccounts []uuid.UUID) error
}

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, w *worker.Worker, notifier SyncFailureNotifier) *Module {
	// Initialize layers
	accountRepo := repository.NewAccountRepository(db)
	eventRepo := repository.NewEventRepository(db)
	clients := provider.NewClients()

	accountSvc := service.NewAccountService(accountRepo, clients)
	conflictSvc := service.NewConflictService(eventRepo)
	eventSvc := service.NewEventService(eventRepo, accountRepo)
	syncSvc := service.NewSyncService(accountSvc, eventRepo, accountRepo, conflictSvc)
	icsSvc := service.NewICSService(eventRepo)

	calendarController := controller.NewCalendarController(accountSvc, eventSvc, syncSvc, conflictSvc, icsSvc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewCalendarRouter(calendarController).Setup(e, mw)

	// Background sync handlers
	registerHandlers(w, accountSvc, syncSvc, notifier)

	return &Module{
		AccountService:  accountSvc,
		EventService:    eventSvc,
		SyncService:     syncSvc,
		ConflictService: conflictSvc,
		EventRepo:       eventRepo,
		AccountRepo:     accountRepo,
	}
}

// SyncOnePayload is the task payload for a single-owner sync.
type SyncOnePayload struct {
	OwnerID uuid.UUID `json:"owner_id"`
}

func registerHandlers(w *worker.Worker, accountSvc service.AccountService, syncSvc service.SyncService, notifier SyncFailureNotifier) {
	w.HandleFunc(worker.TypeCalendarSyncAll, func(ctx context.Context, t *asynq.Task) error {
		owners, appErr := accountSvc.ListOwners(ctx)
		if appErr != nil {
			return appErr
		}
		for _, ownerID := range owners {
			payload, _ := json.Marshal(SyncOnePayload{OwnerID: ownerID})
			if _, err := w.Client.EnqueueContext(ctx, asynq.NewTask(worker.TypeCalendarSyncOne, payload), asynq.Queue("sync")); err != nil {
				logger.Error("CalendarModule:SyncAll:EnqueueFailed", "owner_id", ownerID, "error", err)
			}
		}
		return nil
	})

	w.HandleFunc(worker.TypeCalendarSyncOne, func(ctx context.Context, t *asynq.Task) error {
		var payload SyncOnePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return err
		}
		summary, appErr := syncSvc.SyncOwner(ctx, payload.OwnerID)
		if appErr != nil {
			return appErr
		}
		if len(summary.Failed) > 0 {
			if err := notifier.NotifySyncFailure(ctx, payload.OwnerID, summary.Failed); err != nil {
				logger.Error("CalendarModule:SyncOne:NotifyFailed", "owner_id", payload.OwnerID, "error", err)
			}
		}
		return nil
	})
}
