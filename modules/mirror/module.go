package mirror

import (
	"context"
	"encoding/json"

	"unified-calendar/core/config"
	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/core/middleware"
	"unified-calendar/core/worker"
	calendarRepository "unified-calendar/modules/calendar/repository"
	calendarService "unified-calendar/modules/calendar/service"
	"unified-calendar/modules/mirror/controller"
	"unified-calendar/modules/mirror/repository"
	"unified-calendar/modules/mirror/router"
	"unified-calendar/modules/mirror/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

type Module struct {
	Service service.MirrorService
}

func Init(e *echo.Echo, db database.IDatabase, w *worker.Worker,
	accountSvc calendarService.AccountService, eventRepo calendarRepository.EventRepository) *Module {
	// Initialize layers
	mapRepo := repository.NewMirrorRepository(db)
	mirrorSvc := service.NewMirrorService(accountSvc, eventRepo, mapRepo)
	mirrorController := controller.NewMirrorController(mirrorSvc)

	// Get middleware for auth
	mw := middleware.NewMiddleware(config.Get().JWT)

	// Setup routes
	router.NewMirrorRouter(mirrorController).Setup(e, mw)

	// Background mirror handlers
	registerHandlers(w, accountSvc, mirrorSvc)

	return &Module{Service: mirrorSvc}
}

// SyncOnePayload is the task payload for a single-owner mirror pass.
type SyncOnePayload struct {
	OwnerID uuid.UUID `json:"owner_id"`
}

func registerHandlers(w *worker.Worker, accountSvc calendarService.AccountService, mirrorSvc service.MirrorService) {
	w.HandleFunc(worker.TypeMirrorSyncAll, func(ctx context.Context, t *asynq.Task) error {
		owners, appErr := accountSvc.ListOwners(ctx)
		if appErr != nil {
			return appErr
		}
		for _, ownerID := range owners {
			payload, _ := json.Marshal(SyncOnePayload{OwnerID: ownerID})
			if _, err := w.Client.EnqueueContext(ctx, asynq.NewTask(worker.TypeMirrorSyncOne, payload), asynq.Queue("sync")); err != nil {
				logger.Error("MirrorModule:SyncAll:EnqueueFailed", "owner_id", ownerID, "error", err)
			}
		}
		return nil
	})

	w.HandleFunc(worker.TypeMirrorSyncOne, func(ctx context.Context, t *asynq.Task) error {
		var payload SyncOnePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return err
		}
		if _, appErr := mirrorSvc.SyncMirrors(ctx, payload.OwnerID); appErr != nil {
			return appErr
		}
		return nil
	})
}
