package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	// SheetName selects a sheet. Empty means the first sheet holding any data,
	// so a blank cover sheet does not hide the list behind it.
	SheetName string
	SkipRows  int
}

// ReadXLSX reads one sheet of an XLSX file and returns its rows as string
// slices with trailing blank cells removed.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := pickSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows || row == nil {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	for _, sheet := range f.Sheets {
		for _, row := range sheet.Rows {
			if row != nil && len(rowToStrings(row)) > 0 {
				return sheet, nil
			}
		}
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	last := -1
	for j, cell := range row.Cells {
		cells[j] = cell.String()
		if strings.TrimSpace(cells[j]) != "" {
			last = j
		}
	}
	return cells[:last+1]
}
