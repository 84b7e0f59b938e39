// Package founding downgrades modern archetype calls for companies founded
// before a threshold year.
package founding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/table"
)

// Defaults.
const (
	DefaultThresholdYear   = 2010
	DefaultMinNumericShare = 0.3
)

// columnHints are matched as case-insensitive substrings of column names.
var columnHints = []string{"founded", "founding", "year", "establishment", "launch"}

// dateLayouts are tried in order when the column holds dates, not years.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2006-01",
	"01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2006",
	"January 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/06",
	"01-02-06",
}

// modern archetypes are the calls the corrector checks against age.
var modern = map[model.Archetype]bool{
	model.Disruptors: true,
	model.Innovators: true,
}

// Row is the correction outcome for one row.
type Row struct {
	Year      int             `json:"year,omitempty"`
	HasYear   bool            `json:"has_year"`
	Initial   model.Archetype `json:"initial_archetype"`
	Corrected bool            `json:"age_corrected"`
	Reason    string          `json:"reason,omitempty"`
}

// Report summarizes a correction pass.
type Report struct {
	// Column is the matched founding column; empty means the pass was a no-op.
	Column string `json:"column,omitempty"`
	// DateParsed is true when years came from calendar dates.
	DateParsed bool  `json:"date_parsed"`
	Rows       []Row `json:"-"`
	Count      int   `json:"reclassified"`
}

// Applied reports whether a founding column was found.
func (r Report) Applied() bool { return r.Column != "" }

// Corrector applies the founding-year rule.
type Corrector struct {
	threshold int
	minShare  float64
}

// NewCorrector creates a corrector. Non-positive values keep the defaults.
func NewCorrector(thresholdYear int, minNumericShare float64) *Corrector {
	if thresholdYear <= 0 {
		thresholdYear = DefaultThresholdYear
	}
	if minNumericShare <= 0 {
		minNumericShare = DefaultMinNumericShare
	}
	return &Corrector{threshold: thresholdYear, minShare: minNumericShare}
}

// Threshold returns the cut-off year.
func (c *Corrector) Threshold() int { return c.threshold }

// Apply corrects results in place, aligned by position with tbl rows.
// Rows predicted Disruptors or Innovators with a founding year before the
// threshold become Traditional / Generalist. Rows without a year are left
// alone.
func (c *Corrector) Apply(tbl *table.Table, results []model.Result) Report {
	col, ok := FindYearColumn(tbl.Columns)
	if !ok {
		return Report{}
	}

	years, dateParsed := ExtractYears(tbl.Column(col), c.minShare)
	rep := Report{
		Column:     col,
		DateParsed: dateParsed,
		Rows:       make([]Row, len(results)),
	}

	for i := range results {
		row := Row{Initial: results[i].Archetype}
		if i < len(years) && years[i] > 0 {
			row.Year = years[i]
			row.HasYear = true
		}

		if row.HasYear && row.Year < c.threshold && modern[results[i].Archetype] {
			row.Corrected = true
			row.Reason = fmt.Sprintf("Founded in %d, before %d: %s call downgraded", row.Year, c.threshold, row.Initial)
			results[i].Archetype = model.TraditionalGeneralist
			rep.Count++
		}
		rep.Rows[i] = row
	}

	zap.L().Info("founding: correction pass complete",
		zap.String("column", col),
		zap.Bool("date_parsed", dateParsed),
		zap.Int("reclassified", rep.Count))
	return rep
}

// FindYearColumn returns the first column whose name contains a founding
// hint.
func FindYearColumn(columns []string) (string, bool) {
	for _, c := range columns {
		lower := strings.ToLower(c)
		for _, hint := range columnHints {
			if strings.Contains(lower, hint) {
				return c, true
			}
		}
	}
	return "", false
}

// ExtractYears parses a column of founding values. Values are read as bare
// years first; when fewer than minShare of all rows yield a valid year, every
// value is re-read as a calendar date instead. Missing years are 0.
func ExtractYears(values []string, minShare float64) ([]int, bool) {
	years := make([]int, len(values))
	if len(values) == 0 {
		return years, false
	}

	valid := 0
	for i, v := range values {
		if y, ok := parseNumericYear(v); ok {
			years[i] = y
			valid++
		}
	}
	if float64(valid)/float64(len(values)) >= minShare {
		return years, false
	}

	for i, v := range values {
		years[i] = 0
		if y, ok := parseDateYear(v); ok {
			years[i] = y
		}
	}
	return years, true
}

func parseNumericYear(v string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	y := int(f)
	return y, validYear(y)
}

func parseDateYear(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Year(), validYear(t.Year())
		}
	}
	// Bare years still count in date mode.
	return parseNumericYear(v)
}

func validYear(y int) bool {
	return y >= 1000 && y <= 9999
}
