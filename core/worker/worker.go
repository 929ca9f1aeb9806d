package worker

import (
	"unified-calendar/core/config"
	"unified-calendar/core/logger"

	"github.com/hibiken/asynq"
)

// Task type names shared between enqueuers and handlers.
const (
	TypeCalendarSyncAll = "calendar:sync_all"
	TypeCalendarSyncOne = "calendar:sync_one"
	TypeMirrorSyncAll   = "mirror:sync_all"
	TypeMirrorSyncOne   = "mirror:sync_one"
	TypeNotifyBooking   = "notify:booking"
)

// Worker bundles the asynq client (enqueue side), server (handler side)
// and scheduler (periodic tasks).
type Worker struct {
	Client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func New(cfg config.RedisConfig) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	return &Worker{
		Client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 5,
				"sync":    3,
			},
		}),
		scheduler: asynq.NewScheduler(redisOpt, nil),
		mux:       asynq.NewServeMux(),
	}
}

// HandleFunc registers a task handler.
func (w *Worker) HandleFunc(taskType string, handler asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, handler)
}

// Schedule registers a periodic task with a cron or @every spec.
func (w *Worker) Schedule(spec string, task *asynq.Task) error {
	entryID, err := w.scheduler.Register(spec, task, asynq.Queue("sync"))
	if err != nil {
		return err
	}
	logger.Info("Worker:Schedule", "task", task.Type(), "spec", spec, "entry_id", entryID)
	return nil
}

// Start runs the asynq server and scheduler in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	return w.scheduler.Start()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	_ = w.Client.Close()
}
