package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	pkgauth "github.com/orientmedical/diagnostics-api/pkg/auth"
	"github.com/orientmedical/diagnostics-api/pkg/logger"
	"github.com/orientmedical/diagnostics-api/pkg/messaging/redis"
	"github.com/orientmedical/diagnostics-api/pkg/metrics"
	"github.com/orientmedical/diagnostics-api/pkg/worker"

	"github.com/orientmedical/diagnostics-api/internal/config"
	auditHandler "github.com/orientmedical/diagnostics-api/internal/handler/audit"
	authHandler "github.com/orientmedical/diagnostics-api/internal/handler/auth"
	billingHandler "github.com/orientmedical/diagnostics-api/internal/handler/billing"
	catalogHandler "github.com/orientmedical/diagnostics-api/internal/handler/catalog"
	dashboardHandler "github.com/orientmedical/diagnostics-api/internal/handler/dashboard"
	patientHandler "github.com/orientmedical/diagnostics-api/internal/handler/patient"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/repository/postgres"
	"github.com/orientmedical/diagnostics-api/internal/router"
	auditService "github.com/orientmedical/diagnostics-api/internal/service/audit"
	authService "github.com/orientmedical/diagnostics-api/internal/service/auth"
	"github.com/orientmedical/diagnostics-api/internal/service/authz"
	billingService "github.com/orientmedical/diagnostics-api/internal/service/billing"
	catalogService "github.com/orientmedical/diagnostics-api/internal/service/catalog"
	dashboardService "github.com/orientmedical/diagnostics-api/internal/service/dashboard"
	patientService "github.com/orientmedical/diagnostics-api/internal/service/patient"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("diagnostics")

	// Repositories
	invoiceRepo := postgres.NewInvoiceRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	dashboardRepo := postgres.NewDashboardRepository(db)

	// Services
	authzSvc := authz.NewService(authz.DefaultRegistry())
	auditSvc := auditService.NewService(auditRepo, log)
	tokens := pkgauth.NewJWTManager(pkgauth.Config{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL(),
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL(),
	})
	authSvc := authService.NewService(userRepo, authzSvc, tokens, log)
	billingSvc := billingService.NewService(invoiceRepo, patientRepo, catalogRepo, auditSvc, billingService.Config{
		InvoiceNumberPrefix: cfg.Billing.InvoiceNumberPrefix,
		Currency:            cfg.Billing.Currency,
	})
	catalogSvc := catalogService.NewService(catalogRepo, auditSvc)
	patientSvc := patientService.NewService(patientRepo, auditSvc, patientService.Config{
		NumberPrefix: cfg.Patients.NumberPrefix,
	})
	dashboardSvc := dashboardService.NewService(dashboardRepo)

	// Router
	r := router.New(
		tokens, log, m,
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORS:           middleware.DefaultCORSConfig(),
		},
		authHandler.NewHandler(authSvc, authzSvc),
		billingHandler.NewHandler(billingSvc, m),
		patientHandler.NewHandler(patientSvc),
		catalogHandler.NewHandler(catalogSvc),
		dashboardHandler.NewHandler(dashboardSvc),
		auditHandler.NewHandler(auditSvc),
	)
	r.Setup()

	// Outbox processing runs in-process when Redis is configured; the
	// standalone worker binary covers multi-instance deployments.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.URL != "" {
		broker, err := redis.NewBroker(redis.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log)
		if err != nil {
			log.Fatal(err, "failed to connect to redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{}, log, m)
		go processor.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}
