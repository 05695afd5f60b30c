package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"treeleads/internal/adapters"
	"treeleads/internal/adapters/storage"
	"treeleads/internal/companies"
	"treeleads/internal/credits"
	"treeleads/internal/email"
	"treeleads/internal/events"
	"treeleads/internal/exports"
	apphttp "treeleads/internal/http"
	"treeleads/internal/http/router"
	"treeleads/internal/leads"
	"treeleads/internal/notification"
	"treeleads/internal/payments"
	"treeleads/internal/pricing"
	pricingsvc "treeleads/internal/pricing/service"
	"treeleads/internal/scheduler"
	"treeleads/platform/config"
	"treeleads/platform/db"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	val := validator.New()

	storageSvc := initStorage(ctx, cfg, log)

	priceCache, closeCache := initPricingCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	queue, closeQueue := initQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pricingModule := pricing.NewModule(pool, priceCache, val, log)
	creditsModule := credits.NewModule(pool, eventBus, val, log)
	companiesModule := companies.NewModule(pool, storageSvc, cfg.GetMinioBucketCompanyLogos(), cfg.GetDefaultPhoneRegion(), val, log)
	paymentsModule := payments.NewModule(cfg, log)
	leadsModule := leads.NewModule(pool, eventBus, storageSvc, cfg.GetMinioBucketLeadImages(), cfg, val, log)

	// Anti-Corruption Layer: leads only depends on its own ports.
	leadsModule.SetPriceResolver(adapters.NewLeadPriceResolver(pricingModule.Service().Resolver()))
	leadsModule.SetCreditConsumer(adapters.NewLeadCreditConsumer(creditsModule.Service()))
	leadPayments := adapters.NewLeadPaymentGateway(paymentsModule.Service())
	leadsModule.SetPaymentGateway(leadPayments)
	paymentsModule.SetPurchaseRecorder(adapters.NewLeadPurchaseRecorder(leadsModule.Service(), log))

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.SetLeadReader(adapters.NewNotificationLeadReader(leadsModule.Service()))
	notificationModule.SetCompanyReader(adapters.NewNotificationCompanyReader(companiesModule.Service()))
	notificationModule.SetPurchaseLinker(leadPayments)
	if queue != nil {
		notificationModule.SetQueue(queue)
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			pricingModule,
			creditsModule,
			companiesModule,
			paymentsModule,
			exports.NewModule(pool),
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; lead image and company logo uploads disabled")
		return storage.Disabled{}
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "lead-images", cfg.GetMinioBucketLeadImages())
	ensureBucket(ctx, log, storageSvc, "company-logos", cfg.GetMinioBucketCompanyLogos())
	log.Info(
		"storage service initialized",
		"leadImagesBucket", cfg.GetMinioBucketLeadImages(),
		"companyLogosBucket", cfg.GetMinioBucketCompanyLogos(),
	)
	return storageSvc
}

func initPricingCache(cfg *config.Config, log *logger.Logger) (pricingsvc.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; price resolution is not cached")
		return nil, nil
	}

	client, err := newRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize pricing cache", "error", err)
		return nil, nil
	}

	return pricingsvc.NewRedisCache(client, cfg.GetPricingCacheTTL(), log), func() {
		_ = client.Close()
	}
}

func initQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; notifications are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func newRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
