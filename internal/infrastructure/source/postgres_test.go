package source

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func TestParsePostgresLocation(t *testing.T) {
	tests := []struct {
		name      string
		location  string
		wantDSN   string
		wantTable pgx.Identifier
		wantErr   bool
	}{
		{
			name:      "plain table",
			location:  "postgres://u:p@db:5432/prices?table=spar",
			wantDSN:   "postgres://u:p@db:5432/prices",
			wantTable: pgx.Identifier{"spar"},
		},
		{
			name:      "schema qualified table keeps other parameters",
			location:  "postgresql://db/prices?sslmode=disable&table=lists.mercator",
			wantDSN:   "postgresql://db/prices?sslmode=disable",
			wantTable: pgx.Identifier{"lists", "mercator"},
		},
		{name: "missing table", location: "postgres://db/prices", wantErr: true},
		{name: "injection attempt", location: "postgres://db/prices?table=spar%3BDROP", wantErr: true},
		{name: "empty schema part", location: "postgres://db/prices?table=.spar", wantErr: true},
		{name: "wrong scheme", location: "mysql://db/prices?table=spar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, table, err := parsePostgresLocation(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDSN, dsn)
			assert.Equal(t, tt.wantTable, table)
		})
	}
}

func TestParsePostgresLocation_HidesCredentials(t *testing.T) {
	_, _, err := parsePostgresLocation("postgres://admin:secret@db/prices")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}
