package model

import (
	"strings"
	"unicode/utf8"
)

// Entity is the classification input assembled from one table row.
type Entity struct {
	Name       string `json:"name"`
	Text       string `json:"text"`
	Industries string `json:"industries,omitempty"`
}

// Source records which path produced a result.
type Source string

// Result sources. SourceCheckpoint marks results restored from a checkpoint.
const (
	SourceKeyword    Source = "keyword"
	SourceRemote     Source = "remote"
	SourceFallback   Source = "fallback"
	SourceSynthetic  Source = "synthetic"
	SourceCheckpoint Source = "checkpoint"
)

// FailureKind tags the error variant of a Result. The zero value is success.
type FailureKind string

// Failure kinds.
const (
	FailureNone       FailureKind = ""
	FailureAPI        FailureKind = "api"
	FailureDecode     FailureKind = "decode"
	FailureProcessing FailureKind = "processing"
)

// Result is the outcome of classifying one entity.
type Result struct {
	Archetype    Archetype    `json:"archetype"`
	Confidence   Confidence   `json:"confidence"`
	Evidence     string       `json:"evidence"`
	Secondary    []Archetype  `json:"secondary_archetypes"`
	Capabilities []Capability `json:"driving_capabilities"`
	Wave         Wave         `json:"innovation_wave"`
	Source       Source       `json:"source"`
	Failure      FailureKind  `json:"failure,omitempty"`
}

// Failed reports whether r is an error variant.
func (r Result) Failed() bool {
	return r.Failure != FailureNone
}

// SecondaryString joins the secondary archetypes with ", ".
func (r Result) SecondaryString() string {
	parts := make([]string, len(r.Secondary))
	for i, a := range r.Secondary {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

// CapabilitiesString joins the driving capabilities with ", ".
func (r Result) CapabilitiesString() string {
	parts := make([]string, len(r.Capabilities))
	for i, c := range r.Capabilities {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// FailedResult builds the synthetic result for a failed classification. The error
// text is truncated to limit runes.
func FailedResult(kind FailureKind, err error, prefix string, limit int) Result {
	arch := ProcessingError
	switch kind {
	case FailureAPI:
		arch = APIError
	case FailureDecode:
		arch = APIErrorJSON
	}
	msg := ""
	if err != nil {
		msg = Truncate(err.Error(), limit)
	}
	return Result{
		Archetype:    arch,
		Confidence:   ConfidenceLow,
		Evidence:     prefix + msg,
		Secondary:    []Archetype{},
		Capabilities: []Capability{},
		Source:       SourceSynthetic,
		Failure:      kind,
	}
}

// Truncate cuts s to at most n runes. n <= 0 disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
