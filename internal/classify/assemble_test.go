package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapRecord map[string]string

func (m mapRecord) Value(column string) (string, bool) {
	v, ok := m[column]
	return v, ok
}

func TestAssembleText(t *testing.T) {
	tests := []struct {
		name  string
		rec   mapRecord
		field string
		want  string
	}{
		{
			name:  "designated only",
			rec:   mapRecord{"About": "Claims automation"},
			field: "About",
			want:  "Claims automation",
		},
		{
			name: "auxiliary fields in fixed order",
			rec: mapRecord{
				"About":            "Broker portal",
				"Description":      "D",
				"Full Description": "FD",
				"Industries":       "Insurance",
				"Industry Groups":  "FinTech",
			},
			field: "About",
			want:  "Broker portal Insurance FinTech FD D",
		},
		{
			name:  "designated field not repeated",
			rec:   mapRecord{"Description": "Telematics", "Industries": "Auto"},
			field: "Description",
			want:  "Telematics Auto",
		},
		{
			name:  "missing designated field contributes nothing",
			rec:   mapRecord{"Industries": "Insurance"},
			field: "About",
			want:  "Insurance",
		},
		{
			name:  "overlapping content kept",
			rec:   mapRecord{"About": "x", "Full Description": "same", "Description": "same"},
			field: "About",
			want:  "x same same",
		},
		{
			name:  "nothing usable",
			rec:   mapRecord{"Name": "Acme"},
			field: "About",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssembleText(tt.rec, tt.field))
		})
	}
}
