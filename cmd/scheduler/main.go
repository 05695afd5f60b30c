package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"treeleads/internal/adapters"
	"treeleads/internal/adapters/storage"
	"treeleads/internal/companies"
	"treeleads/internal/email"
	"treeleads/internal/events"
	"treeleads/internal/leads"
	"treeleads/internal/notification"
	"treeleads/internal/payments"
	"treeleads/internal/scheduler"
	"treeleads/platform/config"
	"treeleads/platform/db"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	val := validator.New()

	// Worker-side wiring: no HTTP handlers are mounted, and no images are touched.
	paymentsModule := payments.NewModule(cfg, log)
	leadPayments := adapters.NewLeadPaymentGateway(paymentsModule.Service())
	leadsModule := leads.NewModule(pool, eventBus, storage.Disabled{}, cfg.GetMinioBucketLeadImages(), cfg, val, log)
	leadsModule.SetPaymentGateway(leadPayments)
	companiesModule := companies.NewModule(pool, storage.Disabled{}, cfg.GetMinioBucketCompanyLogos(), cfg.GetDefaultPhoneRegion(), val, log)

	notificationModule := notification.New(sender, cfg, log)
	notificationModule.SetLeadReader(adapters.NewNotificationLeadReader(leadsModule.Service()))
	notificationModule.SetCompanyReader(adapters.NewNotificationCompanyReader(companiesModule.Service()))
	notificationModule.SetPurchaseLinker(leadPayments)

	// Returned sales publish events; queue their follow-up work like the API does.
	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()
	notificationModule.SetQueue(queue)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, notificationModule, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	reaper := scheduler.NewStaleSaleReaper(leadsModule.Service(), log, cfg.GetStaleSaleSweepInterval(), cfg.GetPendingSaleTTL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reaper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped with error", "error", err)
	}
	eventBus.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
