package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestImage is the PostgreSQL image used for load integration tests.
const PostgresTestImage = "postgres:16-alpine"

// TargetDB holds a shared PostgreSQL target container for integration tests.
type TargetDB struct {
	Container testcontainers.Container
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
}

var (
	sharedTargetDB     *TargetDB
	sharedTargetDBOnce sync.Once
	sharedTargetDBErr  error
)

// GetTargetDB returns a shared PostgreSQL container to load into.
// The container is created once and reused across all tests in the run.
func GetTargetDB(t *testing.T) *TargetDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTargetDBOnce.Do(func() {
		sharedTargetDB, sharedTargetDBErr = setupTargetDB()
	})

	if sharedTargetDBErr != nil {
		t.Fatalf("Failed to setup target database: %v", sharedTargetDBErr)
	}

	return sharedTargetDB
}

// ConfigMap renders the container's coordinates as the generic map the
// postgres adapter factory consumes.
func (db *TargetDB) ConfigMap() map[string]any {
	return map[string]any{
		"host":     db.Host,
		"port":     db.Port,
		"database": db.Database,
		"username": db.Username,
		"password": db.Password,
		"ssl_mode": "disable",
	}
}

func setupTargetDB() (*TargetDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "loadbridge_test",
			"POSTGRES_USER":     "loader",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TargetDB{
		Container: container,
		Host:      host,
		Port:      port.Int(),
		Database:  "loadbridge_test",
		Username:  "loader",
		Password:  "test_password",
	}, nil
}
