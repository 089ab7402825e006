package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pricelens/backend/internal/domain"
)

// decodeXLSX reads the first worksheet of a workbook. Cells come back as their
// stored values: number formats such as "#,##0.00" are not applied, so a price
// of 1234.56 reads "1234.56" rather than "1,234.56".
func decodeXLSX(r io.Reader) ([]string, [][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceDecode, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrSourceDecode)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrSourceDecode, sheets[0], err)
	}

	return stringTable(records)
}
