package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	return New(
		[]string{"Name", "Description", "Founded"},
		[][]string{
			{"Acme", "Embedded insurance API", "2015"},
			{"Beta", "  ", "NaN"},
			{"Gamma"},
		},
	)
}

func TestNew_PadsRows(t *testing.T) {
	tbl := sample()
	assert.Equal(t, 3, tbl.Len())
	for _, r := range tbl.Rows {
		assert.Len(t, r, 3)
	}
}

func TestNew_DuplicateColumns(t *testing.T) {
	tbl := New([]string{"Name", "Name", " Name ", "Name.1"}, nil)
	assert.Equal(t, []string{"Name", "Name.1", "Name.2", "Name.1.1"}, tbl.Columns)
}

func TestCell_Missing(t *testing.T) {
	tbl := sample()

	v, ok := tbl.Cell(0, "Description")
	require.True(t, ok)
	assert.Equal(t, "Embedded insurance API", v)

	_, ok = tbl.Cell(1, "Description")
	assert.False(t, ok, "blank cell is missing")
	_, ok = tbl.Cell(1, "Founded")
	assert.False(t, ok, "NaN is missing")
	_, ok = tbl.Cell(2, "Founded")
	assert.False(t, ok, "padded cell is missing")
	_, ok = tbl.Cell(0, "Industries")
	assert.False(t, ok, "absent column")
	_, ok = tbl.Cell(9, "Name")
	assert.False(t, ok, "out of range")
}

func TestRecord(t *testing.T) {
	rec := sample().Record(0)
	v, ok := rec.Value("Name")
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)
	assert.Equal(t, 0, rec.Index())
}

func TestWithColumns_DoesNotMutate(t *testing.T) {
	tbl := sample()
	out := tbl.WithColumns(
		[]string{"Predicted_Archetype", "Founded"},
		[][]string{{"Integrators", "2016"}, {"Unclassified", ""}, {"Hybrid", "x"}},
	)

	assert.Equal(t, []string{"Name", "Description", "Founded"}, tbl.Columns)
	assert.Equal(t, "2015", tbl.Rows[0][2])

	assert.Equal(t, []string{"Name", "Description", "Founded", "Predicted_Archetype"}, out.Columns)
	assert.Equal(t, []string{"Acme", "Embedded insurance API", "2016", "Integrators"}, out.Rows[0])
	assert.Equal(t, "Hybrid", out.Rows[2][3])
}

func TestHeadAndSlice(t *testing.T) {
	tbl := sample()
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Same(t, tbl, tbl.Head(0))
	assert.Same(t, tbl, tbl.Head(10))
	assert.Equal(t, "Beta", tbl.Slice(1, 2).Rows[0][0])
	assert.Equal(t, 0, tbl.Slice(5, 9).Len())
}

func TestColumn(t *testing.T) {
	assert.Equal(t, []string{"2015", "NaN", ""}, sample().Column("Founded"))
	assert.Nil(t, sample().Column("Missing"))
}

func TestGuessColumns(t *testing.T) {
	tbl := New([]string{"Company", "Website", "Short Description"}, nil)
	assert.Equal(t, "Company", GuessNameColumn(tbl))
	assert.Equal(t, "Short Description", GuessDescriptionColumn(tbl))

	tbl = New([]string{"Company", "About"}, nil)
	assert.Equal(t, "About", GuessDescriptionColumn(tbl))

	tbl = New([]string{"Only"}, nil)
	assert.Equal(t, "Only", GuessDescriptionColumn(tbl))

	empty := New(nil, nil)
	assert.Empty(t, GuessNameColumn(empty))
	assert.Empty(t, GuessDescriptionColumn(empty))
}
