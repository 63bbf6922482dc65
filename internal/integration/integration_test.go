package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizhub-live-service/internal/app"
	"quizhub-live-service/internal/domain"
	infrapg "quizhub-live-service/internal/infra/postgres"
	pgmigrations "quizhub-live-service/internal/infra/postgres/migrations"
	infraredis "quizhub-live-service/internal/infra/redis"
)

type recordedEvent struct {
	room    string
	conn    string
	event   string
	payload any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) ToRoom(quizID, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{room: quizID, event: event, payload: payload})
}

func (e *recordingEmitter) ToConn(connID, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{conn: connID, event: event, payload: payload})
}

func (e *recordingEmitter) byEvent(name string) []recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []recordedEvent
	for _, ev := range e.events {
		if ev.event == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestLiveRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedData(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizzes := infraredis.NewQuizRepository(redisClient, infrapg.NewQuizLoader(pool), 5*time.Minute)
	directory := infraredis.NewDirectory(redisClient, infrapg.NewDirectory(pool), 5*time.Minute)

	registry := app.NewRegistry()
	emitter := &recordingEmitter{}
	coordinator := app.NewCoordinator(registry, quizzes, directory, emitter, zap.NewNop())

	coordinator.HandleJoin(ctx, "conn-t", "quiz-1", "teacher", domain.RoleTeacher)
	coordinator.HandleStart(ctx, "conn-t", "quiz-1")
	coordinator.HandleJoin(ctx, "conn-1", "quiz-1", "u1", domain.RoleStudent)

	coordinator.HandleSubmitAnswer("conn-1", "quiz-1", "u1", 0, "o2")
	coordinator.HandleAdvance(ctx, "conn-t", "quiz-1", 1)

	ended := emitter.byEvent(app.EventQuizEnded)
	if len(ended) != 1 {
		t.Fatalf("expected one quizEnded, got %d", len(ended))
	}
	rows := ended[0].payload.(app.QuizEndedEvent).Leaderboard
	if len(rows) != 1 {
		t.Fatalf("expected one leaderboard row, got %+v", rows)
	}
	row := rows[0]
	if row.StudentID != "u1" || row.Name != "Alice" || row.Username != "alice" {
		t.Fatalf("directory lookup failed: %+v", row)
	}
	if row.Correct != 1 || row.Incorrect != 0 || row.Unattempted != 0 {
		t.Fatalf("unexpected classification: %+v", row)
	}

	if _, ok := registry.Get("quiz-1"); ok {
		t.Fatalf("session must be gone after the run")
	}

	// Content and profile reads must have landed in the redis caches.
	if n, err := redisClient.Exists(ctx, "quiz:quiz-1:content").Result(); err != nil || n != 1 {
		t.Fatalf("expected cached quiz content (n=%d err=%v)", n, err)
	}
	if n, err := redisClient.Exists(ctx, "user:u1:profile").Result(); err != nil || n != 1 {
		t.Fatalf("expected cached profile (n=%d err=%v)", n, err)
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

func seedData(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	quiz := domain.Quiz{
		ID:    "quiz-1",
		Title: "Integration",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4"},
				},
				CorrectOptionID: "o2",
			},
		},
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO users (id, name, username) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`, "u1", "Alice", "alice"); err != nil {
		t.Fatalf("insert user: %v", err)
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
