package table

import "strings"

// GuessNameColumn returns the first column.
func GuessNameColumn(t *Table) string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

// GuessDescriptionColumn returns the first column whose name contains
// "description", else the second column, else the first.
func GuessDescriptionColumn(t *Table) string {
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c), "description") {
			return c
		}
	}
	switch {
	case len(t.Columns) > 1:
		return t.Columns[1]
	case len(t.Columns) == 1:
		return t.Columns[0]
	}
	return ""
}
