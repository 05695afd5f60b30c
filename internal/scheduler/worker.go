package scheduler

import (
	"context"
	"fmt"

	"treeleads/internal/notification"
	"treeleads/platform/config"
	"treeleads/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// NotificationDispatcher performs the work behind queued notification tasks.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, job notification.Job) error
	DispatchEmailBlast(ctx context.Context, leadID uuid.UUID) (int, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher NotificationDispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, dispatcher NotificationDispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	return newWorker(server, dispatcher, log), nil
}

func newWorker(server *asynq.Server, dispatcher NotificationDispatcher, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskLeadNotification, w.handleLeadNotification)
	mux.HandleFunc(TaskLeadEmailBlast, w.handleLeadEmailBlast)
	return w
}

func (w *Worker) handleLeadNotification(ctx context.Context, task *asynq.Task) error {
	job, err := ParseLeadNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := w.dispatcher.Dispatch(ctx, job); err != nil {
		w.log.Warn("lead notification failed", "kind", job.Kind, "leadId", job.LeadID, "error", err)
		return err
	}
	return nil
}

func (w *Worker) handleLeadEmailBlast(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadEmailBlastPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if _, err := w.dispatcher.DispatchEmailBlast(ctx, leadID); err != nil {
		w.log.Warn("lead email blast failed", "leadId", leadID, "error", err)
		return err
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}
