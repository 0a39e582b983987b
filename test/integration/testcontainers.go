package integration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "crudkit/db"
	"crudkit/pkg/component"
	"crudkit/pkg/model"
	"crudkit/pkg/schema"
	"crudkit/pkg/server"
	"crudkit/pkg/server/crud"
	"crudkit/pkg/server/middleware"
)

const (
	serverPort  = "18080"
	guardSecret = "integration-test-secret"
)

// todo mirrors the model served by the example application so the suite can
// exercise the full stack against a real database.
type todo struct {
	model.Base
	Text string `json:"text" validate:"required,min=1,max=255"`
	Done bool   `json:"done"`
}

func (todo) TableName() string {
	return "todos"
}

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB          *gorm.DB
	Container   testcontainers.Container
	ServerURL   string
	DatabaseURL string
	HTTPClient  *http.Client
	Guard       *middleware.Guard

	srv *server.Server
}

// NewTestContext starts a PostgreSQL testcontainer, runs the embedded
// migrations against it, and serves the todo resource in-process.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("crudkit_test"),
		tcpostgres.WithUsername("crudkit"),
		tcpostgres.WithPassword("crudkit"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://crudkit:crudkit@%s:%s/crudkit_test?sslmode=disable", host, port.Port())

	if err := runMigrations(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	guard := middleware.NewGuard([]byte(guardSecret), time.Hour)
	srv := startInlineServer(db, guard)

	serverURL := fmt.Sprintf("http://127.0.0.1:%s", serverPort)
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:          db,
		Container:   pgContainer,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Guard:       guard,
		srv:         srv,
	}, nil
}

// startInlineServer serves the todo resource in-process. List and read are
// public; mutations require a guard token, matching a typical deployment.
func startInlineServer(db *gorm.DB, guard *middleware.Guard) *server.Server {
	s := server.NewServer(db, "127.0.0.1", serverPort)

	c := component.New[todo](db, schema.New(
		schema.Strip("id", "created_at", "updated_at"),
		schema.Require("text"),
	))
	c.Search = func(query *gorm.DB, filters url.Values) *gorm.DB {
		if done := filters.Get("done"); done != "" {
			query = query.Where("done = ?", done == "true" || done == "1")
		}
		return query
	}

	res := &crud.Resource[todo]{
		Component: c,
		Prefix:    "/todos",
		Guard:     guard.Middleware,
		Public:    map[crud.Op]bool{crud.OpList: true, crud.OpRead: true},
	}
	res.Register(s.Router)

	go func() {
		_ = s.Start()
	}()

	return s
}

// runMigrations applies the embedded migrations to the test database.
func runMigrations(dbURL string) error {
	migrationsFS, err := fs.Sub(appdb.Migrations, "migrations")
	if err != nil {
		return err
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = tc.srv.Shutdown(shutdownCtx)
		cancel()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
