package engine

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX pulls the raw cell grid out of a spreadsheet so it can go through
// the same header-mapping path as delimited text. The dataset circulates
// both ways.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
