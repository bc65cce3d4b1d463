package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"1", "1500 Market St", "Philadelphia", "PA", "19102"},
			{"2", "2 Elm St", "Denver", "CO", "80202"},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "1500 Market St", "Philadelphia", "PA", "19102"}, rows[0])
}

func TestReadXLSX_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"address_id", "street_address"},
			{"1", "1500 Market St"},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][0])
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Addresses": {{"1", "1500 Market St"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Addresses"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SkipsBlankLeadingSheet(t *testing.T) {
	f := xlsx.NewFile()
	cover, err := f.AddSheet("Cover")
	require.NoError(t, err)
	cover.AddRow().AddCell().SetString("  ")

	data, err := f.AddSheet("Addresses")
	require.NoError(t, err)
	row := data.AddRow()
	for _, v := range []string{"1", "1500 Market St", "", ""} {
		row.AddCell().SetString(v)
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.Save(path))

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "1500 Market St"}}, rows)
}
