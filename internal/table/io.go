package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const isoDate = "2006-01-02"

// Format is a supported file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return "", eris.Errorf("table: legacy .xls is not supported, save %s as .xlsx", filepath.Base(path))
	default:
		return "", eris.Errorf("table: unsupported file type %q", filepath.Ext(path))
	}
}

// Read loads a whole file. The first row is the header.
func Read(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		return readXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "table: open file")
	}
	defer f.Close() //nolint:errcheck

	return ReadDelimited(f, delimiter(format))
}

// ReadDelimited parses delimited text. UTF-8 and UTF-16 byte order marks are
// honored and stripped.
func ReadDelimited(r io.Reader, delim rune) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = delim
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "table: read rows")
	}
	return fromRecords(records)
}

func readXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "table: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("table: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellText(cell, f.Date1904)
		}
		records = append(records, cells)
	}
	return fromRecords(records)
}

// cellText renders date cells as ISO dates; the workbook's own display
// format uses two-digit years.
func cellText(cell *xlsx.Cell, date1904 bool) string {
	if cell.IsTime() {
		if t, err := cell.GetTime(date1904); err == nil {
			return t.Format(isoDate)
		}
	}
	return cell.String()
}

func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, eris.New("table: file is empty")
	}
	header := records[0]
	if len(header) == 0 {
		return nil, eris.New("table: header row is empty")
	}

	rows := records[1:]
	// Spreadsheets often carry trailing blank rows.
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return New(header, rows), nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Write saves t to path in the format implied by the extension.
func Write(path string, t *Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if format == FormatXLSX {
		return writeXLSX(path, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "table: create file")
	}
	if err := WriteDelimited(f, t, delimiter(format)); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(f.Close(), "table: close file")
}

// WriteDelimited writes the header and rows as delimited text.
func WriteDelimited(w io.Writer, t *Table, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "table: write header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "table: write rows")
	}
	return nil
}

func writeXLSX(path string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "table: add sheet")
	}

	addRow(sheet, t.Columns)
	for _, r := range t.Rows {
		addRow(sheet, r)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "table: save xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func delimiter(f Format) rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}
