package common

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testPostgresImage = "docker.io/postgres:14.11-bookworm"
	testRabbitMQImage = "rabbitmq:3.12.11-management-alpine"
)

// TestRabbitMQ starts a broker container for the lifetime of the test and returns its AMQP URL.
func TestRabbitMQ(t *testing.T) string {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, testRabbitMQImage, rabbitmq.WithAdminUsername("guest"), rabbitmq.WithAdminPassword("guest"))
	require.NoError(t, err, "could not start rabbitmq container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("could not terminate rabbitmq container: %v", err)
		}
	})

	connURL, err := container.AmqpURL(ctx)
	require.NoError(t, err, "could not get rabbitmq connection URL")

	return connURL
}

// migrateUp applies every migration under source, a file URL relative to the calling
// package such as "file://../../migrations".
func migrateUp(source, dsn string) (*migrate.Migrate, error) {
	m, err := migrate.New(source, dsn)
	if err != nil {
		return nil, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, err
	}

	return m, nil
}

// TestDB starts a postgres container, applies the migrations found at source and returns
// an open handle. Container and handle are released when the test ends.
func TestDB(source string, t *testing.T) *sql.DB {
	ctx := context.Background()

	c, err := postgres.Run(ctx,
		testPostgresImage,
		postgres.WithDatabase("quill_test"),
		postgres.WithUsername("quill"),
		postgres.WithPassword("quill"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	require.NoError(t, err, "could not start postgres container")

	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	})

	connURL, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "could not get postgres connection string")

	m, err := migrateUp(source, connURL)
	require.NoError(t, err, "could not run migrations")
	t.Cleanup(func() { m.Close() })

	db, err := sql.Open("postgres", connURL)
	require.NoError(t, err, "could not open database")
	t.Cleanup(func() { db.Close() })

	return db
}
