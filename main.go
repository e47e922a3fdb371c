package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"aroti/config"
	"aroti/cron"
	"aroti/database"
	"aroti/handlers"
	"aroti/metrics"
	"aroti/middleware"
	"aroti/routes"
	"aroti/services/booking"
	"aroti/services/cache"
	"aroti/services/catalog"
	"aroti/services/insights"
	"aroti/services/notification"
	"aroti/services/profile"
	"aroti/services/sessions"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := database.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("main: failed to open storage", zap.Error(err))
	}

	redisOpts := utils.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisCacheDB}
	cacheClient, err := utils.NewRedisClient(ctx, redisOpts)
	if err != nil {
		logger.Fatal("main: failed to connect to cache", zap.Error(err))
	}
	redisOpts.DB = cfg.RedisQueueDB
	queueClient, err := utils.NewRedisClient(ctx, redisOpts)
	if err != nil {
		logger.Fatal("main: failed to connect to queue store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	jsonCache := cache.NewJSONCache(cacheClient)
	catalogSvc := catalog.NewService(stores.Specialists, jsonCache, catalog.TTLs{
		List:    cfg.CacheTTLSpecialists,
		Detail:  cfg.CacheTTLSpecialistDetail,
		Reviews: cfg.CacheTTLReviews,
	}, m, logger)

	asynqOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
	taskClient := asynq.NewClient(asynqOpt)
	dispatcher := notification.NewDispatcher(taskClient, cfg.Location(), cfg.ReminderLead, logger)
	sessionSvc := sessions.NewService(stores.Sessions, jsonCache, cfg.CacheTTLSessions, dispatcher, m, logger)
	profileSvc := profile.NewService(stores.Users, jsonCache, cfg.CacheTTLProfile, sessionSvc, m, logger)
	insightSvc := insights.NewService(jsonCache, cfg.CacheTTLDailyInsights, cfg.Location(), m, logger)

	// Booking orchestration.
	stepPolicy, notifyPolicy := booking.PoliciesFromConfig(cfg)
	executor := booking.NewLocalExecutor(logger, m)
	journal := booking.NewRedisJournal(queueClient)
	links := booking.NewRoomLinkProvisioner(cfg.MeetingBaseURL)

	orchestrator := booking.NewOrchestrator(booking.OrchestratorDeps{
		Availability: booking.NewAvailabilityChecker(stores.Specialists, stores.Sessions),
		Writer:       booking.NewSessionWriter(stores.Specialists, stores.Sessions),
		Sessions:     stores.Sessions,
		Links:        links,
		Notifier:     dispatcher,
		Executor:     executor,
		Journal:      journal,
		StepPolicy:   stepPolicy,
		NotifyPolicy: notifyPolicy,
		Metrics:      m,
		Logger:       logger,
	})
	bookingSvc := booking.NewService(orchestrator, journal, taskClient, sessionSvc, logger)
	reconciler := booking.NewReconciler(stores.Sessions, links, executor, stepPolicy, sessionSvc, m, logger)

	// Notification channels.
	var mailer notification.Mailer
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	var push notification.PushSender
	switch cfg.PushProvider {
	case "fcm":
		messagingClient, err := utils.NewMessagingClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: failed to initialize firebase messaging", zap.Error(err))
		}
		push = notification.NewFCMSender(messagingClient)
	case "expo":
		push = notification.NewExpoSender(nil)
	}
	deliverer := notification.NewDeliverer(stores.Users, stores.Sessions, mailer, push, logger)

	var worker *cron.Worker
	if cfg.WorkerEnabled {
		worker, err = cron.NewWorker(asynqOpt, cron.WorkerConfig{
			Concurrency:       cfg.WorkerConcurrency,
			ReconcileSchedule: cfg.ReconcileSchedule,
			Location:          cfg.Location(),
		}, cron.Handlers{Bookings: bookingSvc, Deliverer: deliverer, Reconciler: reconciler}, logger)
		if err != nil {
			logger.Fatal("main: failed to configure worker", zap.Error(err))
		}
		if err := worker.Start(); err != nil {
			logger.Fatal("main: failed to start worker", zap.Error(err))
		}
	}

	// Bearer verification.
	jwks, err := middleware.NewJWKS(cfg.KeycloakJWKSURI, logger)
	if err != nil {
		logger.Fatal("main: failed to load signing keys", zap.Error(err))
	}
	verifier := middleware.NewTokenVerifier(jwks.Keyfunc, cfg.KeycloakIssuerURI, cfg.KeycloakAudience)

	monitor := utils.NewHealthMonitor(logger, map[string]utils.HealthCheck{
		"database": stores.Ping,
		"cache":    jsonCache.Ping,
		"queue":    func(ctx context.Context) error { return queueClient.Ping(ctx).Err() },
	})
	monitor.Start(ctx, 30*time.Second)

	handlerBundle := &handlers.HandlerBundle{
		Specialists: handlers.NewSpecialistHandler(catalogSvc, logger),
		Sessions:    handlers.NewSessionHandler(sessionSvc, logger),
		Bookings:    handlers.NewBookingHandler(bookingSvc, logger),
		Users:       handlers.NewUserHandler(profileSvc, logger),
		Insights:    handlers.NewInsightHandler(insightSvc, logger),
		Health:      handlers.NewHealthHandler(monitor, registry),
		Auth:        middleware.JWTAuthMiddleware(verifier, logger),
		RateLimit:   middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger),
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(utils.ErrorHandler(logger))
	routes.RegisterRoutes(router, handlerBundle, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	if worker != nil {
		worker.Shutdown()
	}
	// Detached notification steps still in flight get to finish.
	executor.Wait()

	jwks.EndBackground()
	if err := taskClient.Close(); err != nil {
		logger.Warn("main: failed to close task client", zap.Error(err))
	}
	_ = cacheClient.Close()
	_ = queueClient.Close()
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Warn("main: failed to close storage", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
