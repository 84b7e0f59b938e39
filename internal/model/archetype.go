// Package model defines the archetype taxonomy types and classification results.
package model

import "strings"

// Archetype is one category of the InsurTech business-model taxonomy, or one
// of the synthetic outcomes produced when no real category applies.
type Archetype string

// Real archetypes, in declaration order. The order is the keyword
// classifier's tie-break order.
const (
	Enablers     Archetype = "Enablers"
	Connectors   Archetype = "Connectors"
	Innovators   Archetype = "Innovators"
	Disruptors   Archetype = "Disruptors"
	Protectors   Archetype = "Protectors"
	Integrators  Archetype = "Integrators"
	Transformers Archetype = "Transformers"
)

// Synthetic outcomes.
const (
	TraditionalGeneralist Archetype = "Traditional / Generalist"
	Hybrid                Archetype = "Hybrid"
	Unclassified          Archetype = "Unclassified"
	ProcessingError       Archetype = "Processing Error"
	APIError              Archetype = "API Error"
	APIErrorJSON          Archetype = "API Error - JSON"
)

// Archetypes returns the real archetypes in declaration order.
func Archetypes() []Archetype {
	return []Archetype{
		Enablers,
		Connectors,
		Innovators,
		Disruptors,
		Protectors,
		Integrators,
		Transformers,
	}
}

// IsReal reports whether a is one of the seven taxonomy archetypes.
func (a Archetype) IsReal() bool {
	for _, r := range Archetypes() {
		if a == r {
			return true
		}
	}
	return false
}

// IsError reports whether a is one of the error markers.
func (a Archetype) IsError() bool {
	switch a {
	case ProcessingError, APIError, APIErrorJSON:
		return true
	}
	return false
}

// ParseArchetype maps a free-form label onto a known archetype. Matching is
// case-insensitive and tolerates a missing plural "s" ("Enabler"). Synthetic
// outcomes are recognized too, so checkpoints round-trip.
func ParseArchetype(raw string) (Archetype, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	all := append(Archetypes(), TraditionalGeneralist, Hybrid, Unclassified, ProcessingError, APIError, APIErrorJSON)
	for _, a := range all {
		name := strings.ToLower(string(a))
		if s == name || s+"s" == name {
			return a, true
		}
	}
	if s == "traditional" || s == "generalist" || s == "traditional/generalist" {
		return TraditionalGeneralist, true
	}
	return "", false
}

// Confidence is the three-level confidence attached to every result.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// ParseConfidence normalizes a confidence label. Unknown labels report false.
func ParseConfidence(raw string) (Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return ConfidenceLow, true
	case "medium", "med":
		return ConfidenceMedium, true
	case "high":
		return ConfidenceHigh, true
	}
	return "", false
}

// Wave is the innovation-wave bucket assigned in remote mode. The zero value
// means no wave was assigned.
type Wave string

// Innovation waves.
const (
	WaveNone Wave = ""
	Wave1    Wave = "1.0"
	Wave2    Wave = "2.0"
	Wave3    Wave = "3.0"
)

// ParseWave accepts "1.0", "1", "Wave 2.0", "3.0 (2020-present)" and similar.
func ParseWave(raw string) Wave {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "wave")
	s = strings.TrimSpace(s)
	for _, w := range []Wave{Wave1, Wave2, Wave3} {
		for _, form := range []string{string(w), string(w)[:1]} {
			rest, ok := strings.CutPrefix(s, form)
			if ok && (rest == "" || !strings.ContainsAny(rest[:1], "0123456789.")) {
				return w
			}
		}
	}
	return WaveNone
}

// Capability is a driving-capability tag (DC1..DC5).
type Capability string

// Driving capabilities.
const (
	DC1 Capability = "DC1"
	DC2 Capability = "DC2"
	DC3 Capability = "DC3"
	DC4 Capability = "DC4"
	DC5 Capability = "DC5"
)

// Capabilities returns all driving capabilities in order.
func Capabilities() []Capability {
	return []Capability{DC1, DC2, DC3, DC4, DC5}
}

// ParseCapability normalizes "dc2", "DC 2" or "DC2: Data & Analytics" to DC2.
func ParseCapability(raw string) (Capability, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	if len(s) < 3 || !strings.HasPrefix(s, "DC") {
		return "", false
	}
	c := Capability(s[:3])
	for _, known := range Capabilities() {
		if c == known {
			return c, true
		}
	}
	return "", false
}
