package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/orientmedical/diagnostics-api/pkg/logger"
	"github.com/orientmedical/diagnostics-api/pkg/messaging/redis"
	"github.com/orientmedical/diagnostics-api/pkg/metrics"
	"github.com/orientmedical/diagnostics-api/pkg/worker"

	appconfig "github.com/orientmedical/diagnostics-api/internal/config"
	"github.com/orientmedical/diagnostics-api/internal/repository/postgres"
)

// workerConfig is environment-only: the worker ships as a sidecar
// container and has no config file.
type workerConfig struct {
	DatabaseHost     string        `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int           `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string        `envconfig:"DB_USER" required:"true"`
	DatabasePassword string        `envconfig:"DB_PASSWORD" required:"true"`
	DatabaseName     string        `envconfig:"DB_NAME" required:"true"`
	DatabaseSSLMode  string        `envconfig:"DB_SSLMODE" default:"disable"`
	RedisURL         string        `envconfig:"REDIS_URL" required:"true"`
	BatchSize        int           `envconfig:"BATCH_SIZE" default:"100"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	RetryAttempts    int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay       time.Duration `envconfig:"RETRY_DELAY" default:"2s"`
	HealthPort       string        `envconfig:"HEALTH_PORT" default:"8081"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("worker", &cfg); err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(appconfig.DatabaseConfig{
		Host:         cfg.DatabaseHost,
		Port:         cfg.DatabasePort,
		User:         cfg.DatabaseUser,
		Password:     cfg.DatabasePassword,
		Name:         cfg.DatabaseName,
		SSLMode:      cfg.DatabaseSSLMode,
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{URL: cfg.RedisURL}, log)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.New("diagnostics_worker")
	processor := worker.NewOutboxProcessor(
		postgres.NewOutboxRepository(db),
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.BatchSize,
			PollInterval:  cfg.PollInterval,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
		},
		log, m,
	)

	startHealthServer(cfg.HealthPort, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor.Start(ctx)
}

func startHealthServer(port string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Error(err, "health server failed")
		}
	}()
}
