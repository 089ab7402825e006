package source

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// Format is a price-list file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName picks the format from a file name or URL path extension
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, name)
	}
}

// formatFromContentType maps a response media type onto a format
func formatFromContentType(contentType string) (Format, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "text/csv", "application/csv", "text/tab-separated-values":
		return FormatCSV, true
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// Decode reads a whole price-list file and returns its name and price cells
func Decode(r io.Reader, format Format, columns domain.Columns) ([]domain.RawRow, error) {
	var (
		header  []string
		records [][]any
		err     error
	)

	switch format {
	case FormatCSV:
		header, records, err = decodeCSV(r)
	case FormatXLSX:
		header, records, err = decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return extractRows(header, records, columns)
}
