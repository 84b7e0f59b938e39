// Package table reads and writes the tabular files the classifier consumes
// and produces.
package table

import (
	"strconv"
	"strings"
)

// Table is an in-memory sheet: a header row plus string cells. Rows are
// padded to the header width.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// New builds a table, padding or trimming rows to len(columns). Duplicate
// column names get a ".1", ".2" suffix.
func New(columns []string, rows [][]string) *Table {
	cols := uniqueColumns(columns)
	t := &Table{
		Columns: cols,
		Rows:    make([][]string, len(rows)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.index[c] = i
	}
	for i, r := range rows {
		row := make([]string, len(cols))
		copy(row, r)
		t.Rows[i] = row
	}
	return t
}

func uniqueColumns(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(c)
		name := c
		for n := 1; seen[name]; n++ {
			name = c + "." + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table has the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value at row i of column name. Absent columns and blank
// cells report false.
func (t *Table) Cell(i int, name string) (string, bool) {
	j, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	v := strings.TrimSpace(t.Rows[i][j])
	if isMissing(v) {
		return "", false
	}
	return v, true
}

// Column returns the raw values of a column, or nil when absent.
func (t *Table) Column(name string) []string {
	j, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out
}

// Record returns a read-only view of row i.
func (t *Table) Record(i int) Record {
	return Record{t: t, i: i}
}

// Head returns a table with at most the first n rows. n <= 0 returns t.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.Rows) {
		return t
	}
	return New(t.Columns, t.Rows[:n])
}

// Slice returns rows [from, to) as a new table.
func (t *Table) Slice(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.Rows) {
		to = len(t.Rows)
	}
	if from > to {
		from = to
	}
	return New(t.Columns, t.Rows[from:to])
}

// WithColumns returns a copy of t with extra columns appended. values[i]
// holds the new cells for row i. Existing columns with the same name are
// overwritten. t is not modified.
func (t *Table) WithColumns(names []string, values [][]string) *Table {
	cols := append([]string(nil), t.Columns...)
	pos := make([]int, len(names))
	for k, n := range names {
		if j, ok := t.index[n]; ok {
			pos[k] = j
			continue
		}
		pos[k] = len(cols)
		cols = append(cols, n)
	}

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(cols))
		copy(row, r)
		if i < len(values) {
			for k, v := range values[i] {
				if k < len(pos) {
					row[pos[k]] = v
				}
			}
		}
		rows[i] = row
	}
	return New(cols, rows)
}

// Record is one row of a table.
type Record struct {
	t *Table
	i int
}

// Value returns the trimmed cell for column; blank cells report false.
func (r Record) Value(column string) (string, bool) {
	return r.t.Cell(r.i, column)
}

// Index returns the row position.
func (r Record) Index() int { return r.i }

func isMissing(v string) bool {
	switch v {
	case "", "NaN", "nan", "NULL", "null", "None", "#N/A":
		return true
	}
	return false
}
