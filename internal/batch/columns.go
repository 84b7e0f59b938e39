package batch

import (
	"strconv"
	"strings"

	"github.com/sells-group/archetype-cli/internal/founding"
	"github.com/sells-group/archetype-cli/internal/model"
)

// Result columns appended to every output and checkpoint.
const (
	ColArchetype    = "Predicted_Archetype"
	ColConfidence   = "Confidence_Score"
	ColEvidence     = "Keywords_Found"
	ColSecondary    = "Secondary_Archetypes"
	ColCapabilities = "Driving_Capabilities"
	ColWave         = "Innovation_Wave"
)

// Correction columns, appended only when a founding column exists.
const (
	ColFoundedYear  = "Founded_Year"
	ColInitial      = "Initial_Archetype"
	ColAgeCorrected = "Age_Corrected"
	ColReason       = "Reclassification_Reason"
)

// ResultColumns lists the result columns in output order.
var ResultColumns = []string{ColArchetype, ColConfidence, ColEvidence, ColSecondary, ColCapabilities, ColWave}

// CorrectionColumns lists the correction columns in output order.
var CorrectionColumns = []string{ColFoundedYear, ColInitial, ColAgeCorrected, ColReason}

func resultCells(r model.Result) []string {
	return []string{
		string(r.Archetype),
		string(r.Confidence),
		r.Evidence,
		r.SecondaryString(),
		r.CapabilitiesString(),
		string(r.Wave),
	}
}

func correctionCells(row founding.Row) []string {
	year := ""
	if row.HasYear {
		year = strconv.Itoa(row.Year)
	}
	return []string{
		year,
		string(row.Initial),
		strconv.FormatBool(row.Corrected),
		row.Reason,
	}
}

// resultFromCells restores a result written by resultCells.
func resultFromCells(cells []string) (model.Result, bool) {
	if len(cells) < len(ResultColumns) {
		return model.Result{}, false
	}
	arch, ok := model.ParseArchetype(cells[0])
	if !ok {
		return model.Result{}, false
	}
	conf, ok := model.ParseConfidence(cells[1])
	if !ok {
		conf = model.ConfidenceLow
	}

	res := model.Result{
		Archetype:    arch,
		Confidence:   conf,
		Evidence:     cells[2],
		Secondary:    []model.Archetype{},
		Capabilities: []model.Capability{},
		Wave:         model.ParseWave(cells[5]),
		Source:       model.SourceCheckpoint,
	}
	for _, part := range splitList(cells[3]) {
		if a, ok := model.ParseArchetype(part); ok {
			res.Secondary = append(res.Secondary, a)
		}
	}
	for _, part := range splitList(cells[4]) {
		if c, ok := model.ParseCapability(part); ok {
			res.Capabilities = append(res.Capabilities, c)
		}
	}

	switch arch {
	case model.APIError:
		res.Failure = model.FailureAPI
	case model.APIErrorJSON:
		res.Failure = model.FailureDecode
	case model.ProcessingError:
		res.Failure = model.FailureProcessing
	}
	return res, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
