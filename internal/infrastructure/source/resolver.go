package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pricelens/backend/internal/domain"
)

// Resolver dispatches a location to the source that understands its scheme:
// http(s)://, s3://, sqlite://, postgres(ql):// or a local path.
// A nil source disables its scheme.
type Resolver struct {
	File     domain.RowSource
	HTTP     domain.RowSource
	S3       domain.RowSource
	SQLite   domain.RowSource
	Postgres domain.RowSource
}

// Load implements domain.RowSource
func (r *Resolver) Load(ctx context.Context, location string, columns domain.Columns) ([]domain.RawRow, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty price list location", domain.ErrInvalidRequest)
	}

	scheme := ""
	if u, err := url.Parse(location); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}

	var src domain.RowSource
	switch scheme {
	case "", "file":
		src = r.File
		location = strings.TrimPrefix(location, "file://")
	case "http", "https":
		src = r.HTTP
	case "s3":
		src = r.S3
	case "sqlite":
		src = r.SQLite
	case "postgres", "postgresql":
		src = r.Postgres
	default:
		return nil, fmt.Errorf("%w: unknown location scheme %q", domain.ErrUnsupportedFormat, scheme)
	}

	if src == nil {
		return nil, fmt.Errorf("%w: %s locations are not enabled", domain.ErrUnsupportedFormat, schemeName(scheme))
	}
	return src.Load(ctx, location, columns)
}

func schemeName(scheme string) string {
	if scheme == "" {
		return "file"
	}
	return scheme
}

// Request names one price list to load
type Request struct {
	Location string
	Columns  domain.Columns
}

// LoadPair loads two price lists concurrently. The first failure cancels the other load.
func LoadPair(ctx context.Context, src domain.RowSource, a, b Request) ([]domain.RawRow, []domain.RawRow, error) {
	var rowsA, rowsB []domain.RawRow

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := src.Load(ctx, a.Location, a.Columns)
		if err != nil {
			return fmt.Errorf("list A: %w", err)
		}
		rowsA = rows
		return nil
	})
	g.Go(func() error {
		rows, err := src.Load(ctx, b.Location, b.Columns)
		if err != nil {
			return fmt.Errorf("list B: %w", err)
		}
		rowsB = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rowsA, rowsB, nil
}
