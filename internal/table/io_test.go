package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"a.CSV":  FormatCSV,
		"a.tsv":  FormatTSV,
		"a.xlsx": FormatXLSX,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("legacy.xls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xlsx")

	_, err = FormatFromPath("data.json")
	require.Error(t, err)
}

func TestReadDelimited_StripsBOM(t *testing.T) {
	input := "\xef\xbb\xbfName,Description\nAcme,\"Claims, automated\"\n"
	tbl, err := ReadDelimited(strings.NewReader(input), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Description"}, tbl.Columns)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Claims, automated", tbl.Rows[0][1])
}

func TestReadDelimited_UTF16(t *testing.T) {
	// "A,B\n1,2\n" encoded as UTF-16LE with BOM.
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xfe})
	for _, r := range "A,B\n1,2\n" {
		buf.Write([]byte{byte(r), 0})
	}
	tbl, err := ReadDelimited(&buf, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Columns)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows[0])
}

func TestReadDelimited_RaggedAndTrailingBlank(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("a,b,c\n1\n2,3,4,5\n,,\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"1", "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"2", "3", "4"}, tbl.Rows[1])
}

func TestReadDelimited_Empty(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader(""), ',')
	require.Error(t, err)
}

func TestRead_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"Name", "Description"},
		{"Acme", "Telematics"},
		{"Beta", "Marketplace"},
	})
	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Description"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Marketplace", tbl.Rows[1][1])
}

func TestRead_XLSXDateCells(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	header := sheet.AddRow()
	header.AddCell().SetString("Name")
	header.AddCell().SetString("Founded Date")
	row := sheet.AddRow()
	row.AddCell().SetString("Acme")
	row.AddCell().SetDate(time.Date(2005, time.March, 14, 0, 0, 0, 0, time.UTC))
	path := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, f.Save(path))

	tbl, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "2005-03-14", tbl.Rows[0][1])
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table: open file")
}

func TestWriteRead_RoundTripFormats(t *testing.T) {
	tbl := New([]string{"Name", "Predicted_Archetype"}, [][]string{
		{"Acme", "Traditional / Generalist"},
		{"Beta, Inc", "Hybrid"},
	})
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.tsv", "out.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, tbl), name)

		got, err := Read(path)
		require.NoError(t, err, name)
		assert.Equal(t, tbl.Columns, got.Columns, name)
		assert.Equal(t, tbl.Rows, got.Rows, name)
	}
}

func TestWrite_TSVUsesTabs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	require.NoError(t, Write(path, New([]string{"a", "b"}, [][]string{{"1", "2"}})))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\n1\t2\n", string(raw))
}

func TestWrite_UnsupportedExtension(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "out.parquet"), New([]string{"a"}, nil))
	require.Error(t, err)
}
