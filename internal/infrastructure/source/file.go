package source

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// FileSource reads price lists from the local file system
type FileSource struct {
	logger zerolog.Logger
}

// NewFileSource creates a local file source
func NewFileSource(logger zerolog.Logger) *FileSource {
	return &FileSource{logger: logger.With().Str("component", "file-source").Logger()}
}

// Load decodes the file at path; the extension selects the format
func (s *FileSource) Load(ctx context.Context, path string, columns domain.Columns) ([]domain.RawRow, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price list %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Decode(f, format, columns)
	if err != nil {
		return nil, fmt.Errorf("price list %s: %w", path, err)
	}

	s.logger.Debug().Str("path", path).Int("rows", len(rows)).Msg("price list loaded")
	return rows, nil
}
