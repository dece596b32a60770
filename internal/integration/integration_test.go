package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"brainspark-quiz-service/internal/app"
	"brainspark-quiz-service/internal/domain"
	pgstore "brainspark-quiz-service/internal/infra/postgres"
	pgmigrations "brainspark-quiz-service/internal/infra/postgres/migrations"
	infraredis "brainspark-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestLeaderboardEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewStore(pool, db)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	provider := infraredis.NewQuestionCache(redisClient, store, 5*time.Minute)
	topperCache := infraredis.NewTopperCache(redisClient, 5*time.Minute)

	registration := app.NewRegistrationService(store)
	quiz := app.NewQuizService(store, store, store, provider)
	leaderboard := app.NewLeaderboardService(store, store, store, store, topperCache)

	if _, _, err := store.Upsert(ctx, sampleQuestions()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	alice, err := registration.Register(ctx, domain.Participant{
		FullName: "Alice", ContactNumber: "9876543210",
		Email: "alice@example.com", SchoolCollege: "Test College",
	})
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := registration.Register(ctx, domain.Participant{
		FullName: "Bob", ContactNumber: "9876543211",
		Email: "bob@example.com", SchoolCollege: "Test College",
	})
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// Alice: both correct in 10s. Bob: one correct in 4s.
	if _, err := quiz.Submit(ctx, alice.ID, []domain.AnswerSubmission{
		{QuestionNumber: 1, Selected: "B", TimeTaken: 5},
		{QuestionNumber: 2, Selected: "A", TimeTaken: 5},
	}); err != nil {
		t.Fatalf("submit alice: %v", err)
	}
	if _, err := quiz.Submit(ctx, bob.ID, []domain.AnswerSubmission{
		{QuestionNumber: 1, Selected: "B", TimeTaken: 2},
		{QuestionNumber: 2, Selected: "C", TimeTaken: 2},
	}); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	updated, err := leaderboard.Recompute(ctx)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 participants updated, got %d", updated)
	}

	rows, err := leaderboard.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ParticipantID != alice.ID || rows[0].TotalMarks != 2 {
		t.Fatalf("expected Alice leading with 2 marks, got %+v", rows[0])
	}
	if rows[1].ParticipantID != bob.ID || rows[1].TotalMarks != 1 {
		t.Fatalf("expected Bob second with 1 mark, got %+v", rows[1])
	}

	// Both answered all questions: both get time ranks, Bob is faster.
	bobEntry, err := store.Entry(ctx, bob.ID)
	if err != nil {
		t.Fatalf("bob entry: %v", err)
	}
	if bobEntry.RankByTime == nil || *bobEntry.RankByTime != 1 {
		t.Fatalf("expected Bob rank_by_time 1, got %+v", bobEntry.RankByTime)
	}

	// Second read should come from the redis view cache and agree.
	cached, err := leaderboard.Top(ctx, 10)
	if err != nil {
		t.Fatalf("cached top: %v", err)
	}
	if len(cached) != 2 || cached[0].ParticipantID != rows[0].ParticipantID {
		t.Fatalf("cached view disagrees: %+v", cached)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateSchema(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Number: 1,
			Text:   "What is 2 + 2?",
			Options: [4]domain.Option{
				{Text: "3"},
				{Text: "4", Correct: true},
				{Text: "5"},
				{Text: "6"},
			},
		},
		{
			Number: 2,
			Text:   "What is 3 + 3?",
			Options: [4]domain.Option{
				{Text: "6", Correct: true},
				{Text: "7"},
				{Text: "8"},
				{Text: "9"},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
