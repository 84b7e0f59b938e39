package classify

import "strings"

// AuxiliaryFields are appended after the designated description field, in
// this order, when the record has them.
var AuxiliaryFields = []string{"Industries", "Industry Groups", "Full Description", "Description"}

// IndustriesField is the column forwarded to remote classifiers as a hint.
const IndustriesField = "Industries"

// Record is read access to one input row. Value reports false when the
// column is absent or the cell is missing.
type Record interface {
	Value(column string) (string, bool)
}

// AssembleText builds the classification text for one record: the designated
// description field first, then every auxiliary field that is present and is
// not the designated field itself. Fragments are joined with a single space.
// Overlapping content across auxiliary fields is kept as-is.
func AssembleText(rec Record, descField string) string {
	var parts []string
	if v, ok := rec.Value(descField); ok {
		parts = append(parts, v)
	}
	for _, col := range AuxiliaryFields {
		if col == descField {
			continue
		}
		if v, ok := rec.Value(col); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
