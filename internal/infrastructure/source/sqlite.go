package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/pricelens/backend/internal/domain"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads price lists from a table in an SQLite database file
type SQLiteSource struct {
	logger zerolog.Logger
}

// NewSQLiteSource creates an SQLite source
func NewSQLiteSource(logger zerolog.Logger) *SQLiteSource {
	return &SQLiteSource{logger: logger.With().Str("component", "sqlite-source").Logger()}
}

// Load reads sqlite://<path>?table=<table>. All columns are selected and the
// configured ones are picked by name.
func (s *SQLiteSource) Load(ctx context.Context, location string, columns domain.Columns) ([]domain.RawRow, error) {
	path, table, err := parseSQLiteLocation(location)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return nil, fmt.Errorf("%w: query table %s: %v", domain.ErrSourceDecode, table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceDecode, err)
	}

	var records [][]any
	for rows.Next() {
		values := make([]any, len(header))
		pointers := make([]any, len(header))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", domain.ErrSourceDecode, err)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceDecode, err)
	}

	result, err := extractRows(header, records, columns)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}

	s.logger.Debug().Str("path", path).Str("table", table).Int("rows", len(result)).Msg("price list loaded")
	return result, nil
}

// parseSQLiteLocation splits sqlite://path?table=t into the file path and table name
func parseSQLiteLocation(location string) (string, string, error) {
	rest, ok := strings.CutPrefix(location, "sqlite://")
	if !ok {
		return "", "", fmt.Errorf("%w: invalid SQLite location %q", domain.ErrInvalidRequest, location)
	}

	path, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid SQLite location %q: %v", domain.ErrInvalidRequest, location, err)
	}

	table := query.Get("table")
	if path == "" || !identifierRegex.MatchString(table) {
		return "", "", fmt.Errorf("%w: SQLite location %q needs a path and a table=<name> parameter", domain.ErrInvalidRequest, location)
	}
	return path, table, nil
}
