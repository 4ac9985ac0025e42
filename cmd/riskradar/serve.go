package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	appassessment "github.com/meridiancap/riskradar/internal/application/assessment"
	"github.com/meridiancap/riskradar/internal/application/dashboard"
	appnews "github.com/meridiancap/riskradar/internal/application/news"
	appportfolio "github.com/meridiancap/riskradar/internal/application/portfolio"
	"github.com/meridiancap/riskradar/internal/config"
	"github.com/meridiancap/riskradar/internal/infrastructure/ai"
	"github.com/meridiancap/riskradar/internal/infrastructure/auth"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/postgres/repositories"
	"github.com/meridiancap/riskradar/internal/infrastructure/database/redis"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/meridiancap/riskradar/internal/interfaces/http"
	"github.com/meridiancap/riskradar/internal/interfaces/http/handlers"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var migrateOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, migrateOnStart)
		},
	}

	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending schema migrations before serving")

	return cmd
}

func runServer(cfg *config.Config, migrateOnStart bool) error {
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting riskradar",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	metrics := prometheus.New()

	conn, err := postgres.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if migrateOnStart {
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			return err
		}
		log.Info("schema migrations applied")
	}

	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Repositories.
	userRepo := repositories.NewPostgresUserRepo(conn, log)
	companyRepo := repositories.NewPostgresCompanyRepo(conn, log)
	assessmentRepo := repositories.NewPostgresAssessmentRepo(conn, log)
	portfolioRepo := repositories.NewPostgresPortfolioRepo(conn, log)
	newsRepo := repositories.NewPostgresNewsRepo(conn, log)

	// AI clients.
	aiClient := ai.NewClient(cfg.AI, metrics, log)
	analyst := ai.NewAnalyst(aiClient)
	newsSearcher := ai.NewNewsSearcher(aiClient)

	// Application services.
	runLock := redis.NewRunLock(redisClient, cfg.AI.RunLockTTL, log)
	statsCache := redis.NewStatsCache(redisClient, cfg.Redis.StatsCacheTTL, log)

	assessmentSvc := appassessment.NewService(companyRepo, assessmentRepo, log)
	orchestrator := analysis.NewOrchestrator(companyRepo, assessmentRepo, analyst, runLock, metrics, log, cfg.Batch.MaxCompanies)
	portfolioSvc := appportfolio.NewService(portfolioRepo, assessmentRepo, companyRepo, orchestrator, log, cfg.Batch.MaxPortfolioAdd)
	scanner := appnews.NewScanner(newsRepo, portfolioSvc, newsSearcher, metrics, log, cfg.News)
	dashboardSvc := dashboard.NewService(portfolioSvc, statsCache, log)

	tokens := auth.NewTokenManager(cfg.Auth)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Mode:              cfg.Server.Mode,
		AuthHandler:       handlers.NewAuthHandler(userRepo, tokens, log),
		AssessmentHandler: handlers.NewAssessmentHandler(assessmentSvc),
		AnalysisHandler:   handlers.NewAnalysisHandler(orchestrator),
		PortfolioHandler:  handlers.NewPortfolioHandler(portfolioSvc),
		NewsHandler:       handlers.NewNewsHandler(scanner),
		DashboardHandler:  handlers.NewDashboardHandler(dashboardSvc),
		HealthHandler:     handlers.NewHealthHandler(conn, redisClient),
		Tokens:            tokens,
		Logger:            log,
		Metrics:           metrics,
	})

	srv := httpserver.NewServer(cfg.Server, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return srv.Stop(context.Background())
}
