//go:build integration

package source

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pricelens/backend/internal/domain"
)

// setupPriceDB starts PostgreSQL in a container and seeds a price table
func setupPriceDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("prices"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		CREATE SCHEMA lists;
		CREATE TABLE lists.mercator (
			id    SERIAL PRIMARY KEY,
			name  TEXT NOT NULL,
			price NUMERIC(10, 2)
		);
		INSERT INTO lists.mercator (name, price) VALUES
			('Red Bull 250 ml', 1.39),
			('Fanta Orange 1,5 l', 1.89);
	`)
	require.NoError(t, err)

	return connStr
}

func TestPostgresSource_Load_Integration(t *testing.T) {
	connStr := setupPriceDB(t)
	src := NewPostgresSource(zerolog.Nop())

	t.Run("reads numeric prices", func(t *testing.T) {
		rows, err := src.Load(context.Background(), connStr+"&table=lists.mercator", defaultColumns)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Red Bull 250 ml", rows[0].Name)
		assert.InDelta(t, 1.39, rows[0].Price, 0.0001)
		assert.InDelta(t, 1.89, rows[1].Price, 0.0001)
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := src.Load(context.Background(), connStr+"&table=lists.spar", defaultColumns)
		assert.ErrorIs(t, err, domain.ErrSourceDecode)
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := src.Load(context.Background(), "postgres://u:p@127.0.0.1:1/none?table=spar", defaultColumns)
		assert.ErrorIs(t, err, domain.ErrRemoteFetch)
	})
}
