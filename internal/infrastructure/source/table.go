// Package source loads raw price-list rows from files, URLs, buckets and database tables.
//
// Every source ends in the same place: a header row plus data rows, from which
// the configured name and price columns are picked. Header cells are matched
// case-insensitively with surrounding and repeated whitespace ignored.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// extractRows picks the name and price cells out of a table.
// Rows whose cells are all empty are skipped; every other row is handed over
// as is and left to product construction to accept or drop.
func extractRows(header []string, records [][]any, columns domain.Columns) ([]domain.RawRow, error) {
	nameIdx, err := columnIndex(header, columns.Name)
	if err != nil {
		return nil, err
	}
	priceIdx, err := columnIndex(header, columns.Price)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.RawRow, 0, len(records))
	for _, record := range records {
		if blankRecord(record) {
			continue
		}
		rows = append(rows, domain.RawRow{
			Name:  cellText(cell(record, nameIdx)),
			Price: cell(record, priceIdx),
		})
	}
	return rows, nil
}

// stringTable converts text records into a header and untyped rows.
// The first non-blank record is the header.
func stringTable(records [][]string) ([]string, [][]any, error) {
	start := -1
	for i, record := range records {
		if !blankStrings(record) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, fmt.Errorf("%w: no header row", domain.ErrSourceDecode)
	}

	body := records[start+1:]
	rows := make([][]any, len(body))
	for i, record := range body {
		row := make([]any, len(record))
		for j, value := range record {
			row[j] = value
		}
		rows[i] = row
	}
	return records[start], rows, nil
}

func columnIndex(header []string, want string) (int, error) {
	target := canonicalHeader(want)
	if target == "" {
		return -1, fmt.Errorf("%w: empty column name", domain.ErrColumnNotFound)
	}
	for i, name := range header {
		if canonicalHeader(name) == target {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (available: %s)", domain.ErrColumnNotFound, want, strings.Join(header, ", "))
}

func canonicalHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(record []any, idx int) any {
	if idx < 0 || idx >= len(record) {
		return nil
	}
	return record[idx]
}

// cellText renders a cell as a product name
func cellText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return fmt.Sprint(value)
	}
}

func blankRecord(record []any) bool {
	for _, v := range record {
		if strings.TrimSpace(cellText(v)) != "" {
			return false
		}
	}
	return true
}

func blankStrings(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
