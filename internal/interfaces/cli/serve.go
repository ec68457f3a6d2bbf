package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vperelman/dealflow/internal/application/advisor"
	"github.com/vperelman/dealflow/internal/application/agenda"
	"github.com/vperelman/dealflow/internal/application/insights"
	"github.com/vperelman/dealflow/internal/application/pipeline"
	"github.com/vperelman/dealflow/internal/config"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres/repositories"
	"github.com/vperelman/dealflow/internal/infrastructure/database/redis"
	"github.com/vperelman/dealflow/internal/infrastructure/messaging/kafka"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/prometheus"
	"github.com/vperelman/dealflow/internal/infrastructure/storage/minio"
	"github.com/vperelman/dealflow/internal/intelligence/assistant"
	httpiface "github.com/vperelman/dealflow/internal/interfaces/http"
	"github.com/vperelman/dealflow/internal/interfaces/http/handlers"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dealflow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

// runServer wires the full service and blocks until SIGINT/SIGTERM.
func runServer(cfg *config.Config) error {
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	metrics := prometheus.NewMetrics()

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	if cfg.Database.MigrationPath != "" {
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			return err
		}
	}

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewRedisCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	audio, err := minio.NewAudioStore(cfg.MinIO, logger)
	if err != nil {
		return err
	}

	dealRepo := repositories.NewPostgresDealRepo(conn, logger)
	reminderRepo := repositories.NewPostgresReminderRepo(conn, logger)
	clientRepo := repositories.NewPostgresClientRepo(conn, logger)

	dealSvc := pipeline.NewDealService(dealRepo, clientRepo, audio, cache, producer, metrics, logger)
	reminderSvc := pipeline.NewReminderService(reminderRepo, logger)
	clientSvc := pipeline.NewClientService(clientRepo, dealRepo, logger)
	agendaSvc := agenda.NewService(dealRepo, reminderRepo, clientRepo, metrics, logger)
	insightsSvc := insights.NewService(dealRepo, cache, cfg.Insights, logger)
	ai := assistant.NewClient(cfg.Assistant, logger)
	advisorSvc := advisor.NewService(ai, agendaSvc, dealRepo, clientRepo, metrics, logger)

	router := httpiface.NewRouter(httpiface.RouterConfig{
		Deals:     handlers.NewDealHandler(dealSvc),
		Reminders: handlers.NewReminderHandler(reminderSvc),
		Clients:   handlers.NewClientHandler(clientSvc),
		Agenda:    handlers.NewAgendaHandler(agendaSvc),
		Insights:  handlers.NewInsightsHandler(insightsSvc),
		Advisor:   handlers.NewAdvisorHandler(advisorSvc),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(conn.HealthCheck),
			"redis":    cache,
		}),
		Mode:    cfg.Server.Mode,
		Logger:  logger,
		Metrics: metrics,
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", logging.String("signal", sig.String()))
		return server.Stop(context.Background())
	}
}
