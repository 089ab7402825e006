package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pricelens/backend/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSV reads a delimited text export. The delimiter is sniffed from the
// header line because European spreadsheet exports use ';'.
func decodeCSV(r io.Reader) ([]string, [][]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceDecode, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceDecode, err)
	}

	return stringTable(records)
}

// sniffDelimiter counts candidate delimiters outside quotes on the first non-empty line
func sniffDelimiter(data []byte) rune {
	line := data
	for len(line) > 0 {
		idx := bytes.IndexByte(line, '\n')
		first := line
		if idx >= 0 {
			first = line[:idx]
		}
		if len(bytes.TrimSpace(first)) > 0 {
			line = first
			break
		}
		if idx < 0 {
			break
		}
		line = line[idx+1:]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}

	best := ','
	for _, candidate := range []rune{';', '\t'} {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}
	return best
}
