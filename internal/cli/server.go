package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brainspark-quiz-service/internal/app"
	"brainspark-quiz-service/internal/config"
	"brainspark-quiz-service/internal/infra/memory"
	pgstore "brainspark-quiz-service/internal/infra/postgres"
	rediscache "brainspark-quiz-service/internal/infra/redis"
	transport "brainspark-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Memory store carries every repository when Postgres is not configured;
	// useful for demos and local hacking.
	var (
		participants app.ParticipantRepository
		answers      app.AnswerRepository
		questions    app.QuestionRepository
		leaderboard  app.LeaderboardRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		store := pgstore.NewStore(pool, db)
		participants, answers, questions, leaderboard = store, store, store, store
	} else {
		store := memory.NewStore()
		participants, answers, questions, leaderboard = store, store, store, store
	}

	questionsTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var provider app.QuestionProvider
	if redisClient != nil {
		provider = rediscache.NewQuestionCache(redisClient, questions, questionsTTL)
	} else {
		provider = memory.NewQuestionCache(questions, questionsTTL)
	}

	var topperCache app.TopperCache
	if redisClient != nil {
		topperCache = rediscache.NewTopperCache(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	registrationService := app.NewRegistrationService(participants)
	quizService := app.NewQuizService(participants, questions, answers, provider)
	leaderboardService := app.NewLeaderboardService(participants, answers, questions, leaderboard, topperCache)

	mux := http.NewServeMux()
	handler := transport.NewHandler(registrationService, quizService, leaderboardService)
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
