// Package insights summarizes the results of a classification run.
package insights

import (
	"fmt"
	"sort"

	"github.com/sells-group/archetype-cli/internal/model"
)

// Count is a label with its frequency and share of the relevant total.
type Count struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Summary describes a set of results.
type Summary struct {
	Total       int     `json:"total"`
	Errors      int     `json:"errors"`
	SuccessRate float64 `json:"success_rate"`

	Dominant       *Count  `json:"dominant_archetype,omitempty"`
	Archetypes     []Count `json:"archetypes"`
	Diversity      int     `json:"diversity"`
	Confidence     []Count `json:"confidence"`
	Hybrid         int     `json:"hybrid"`
	WithSecondary  int     `json:"with_secondary"`
	SecondaryShare float64 `json:"secondary_share"`

	Waves           []Count `json:"waves"`
	Capabilities    []Count `json:"capabilities"`
	AvgCapabilities float64 `json:"avg_capabilities"`
}

// Summarize computes a Summary. Error markers count toward Total and Errors
// only.
func Summarize(results []model.Result) Summary {
	s := Summary{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	archCounts := map[string]int{}
	confCounts := map[string]int{}
	waveCounts := map[string]int{}
	capCounts := map[string]int{}
	var classified, waved, capTotal int

	for _, r := range results {
		if r.Failed() || r.Archetype.IsError() {
			s.Errors++
			continue
		}
		classified++
		archCounts[string(r.Archetype)]++
		confCounts[string(r.Confidence)]++
		if r.Archetype == model.Hybrid {
			s.Hybrid++
		}
		if len(r.Secondary) > 0 {
			s.WithSecondary++
		}
		if r.Wave != model.WaveNone {
			waved++
			waveCounts[string(r.Wave)]++
		}
		for _, c := range r.Capabilities {
			capCounts[string(c)]++
		}
		capTotal += len(r.Capabilities)
	}

	s.SuccessRate = pct(s.Total-s.Errors, s.Total)
	s.SecondaryShare = pct(s.WithSecondary, s.Total)
	s.Archetypes = ranked(archCounts, classified, archetypeOrder())
	s.Diversity = len(s.Archetypes)
	if len(s.Archetypes) > 0 {
		top := s.Archetypes[0]
		s.Dominant = &top
	}
	s.Confidence = ranked(confCounts, classified, []string{"High", "Medium", "Low"})
	s.Waves = ranked(waveCounts, waved, []string{"3.0", "2.0", "1.0"})
	s.Capabilities = ranked(capCounts, capTotal, capabilityOrder())
	if classified > 0 {
		s.AvgCapabilities = float64(capTotal) / float64(classified)
	}
	return s
}

// Findings renders the summary as short sentences.
func (s Summary) Findings() []string {
	if s.Total == 0 {
		return []string{"No companies were classified."}
	}

	out := []string{
		fmt.Sprintf("%.1f%% successful classifications (%d/%d companies)", s.SuccessRate, s.Total-s.Errors, s.Total),
	}
	if s.Dominant != nil {
		out = append(out, fmt.Sprintf("%s is the dominant archetype with %d companies (%.1f%%)",
			s.Dominant.Label, s.Dominant.Count, s.Dominant.Share))
	}
	out = append(out, fmt.Sprintf("Results span %d different archetypes", s.Diversity))
	if len(s.Waves) > 0 {
		w := s.Waves[0]
		out = append(out, fmt.Sprintf("%.1f%% of wave-tagged companies are in wave %s", w.Share, w.Label))
	}
	if len(s.Capabilities) > 0 {
		level := "moderate"
		if s.AvgCapabilities >= 3 {
			level = "high"
		}
		out = append(out, fmt.Sprintf("%s is the most prevalent driving capability; companies average %.1f capabilities (%s sophistication)",
			s.Capabilities[0].Label, s.AvgCapabilities, level))
	}
	if s.WithSecondary > 0 {
		out = append(out, fmt.Sprintf("%.1f%% of companies operate across multiple archetypes", s.SecondaryShare))
	}
	if s.Hybrid > 0 {
		out = append(out, fmt.Sprintf("%d keyword ties were reported as Hybrid", s.Hybrid))
	}
	return out
}

// ArchetypeProfile describes the results assigned to one archetype.
type ArchetypeProfile struct {
	Archetype       model.Archetype `json:"archetype"`
	Count           int             `json:"count"`
	Share           float64         `json:"share"`
	DominantWave    model.Wave      `json:"dominant_wave,omitempty"`
	TopCapabilities []string        `json:"top_capabilities,omitempty"`
}

// Profile summarizes the results predicted as a.
func Profile(results []model.Result, a model.Archetype) ArchetypeProfile {
	p := ArchetypeProfile{Archetype: a}
	waves := map[string]int{}
	caps := map[string]int{}
	var capTotal int
	for _, r := range results {
		if r.Archetype != a {
			continue
		}
		p.Count++
		if r.Wave != model.WaveNone {
			waves[string(r.Wave)]++
		}
		for _, c := range r.Capabilities {
			caps[string(c)]++
			capTotal++
		}
	}
	if p.Count == 0 {
		return p
	}
	p.Share = pct(p.Count, len(results))
	if w := ranked(waves, p.Count, []string{"3.0", "2.0", "1.0"}); len(w) > 0 {
		p.DominantWave = model.Wave(w[0].Label)
	}
	for i, c := range ranked(caps, capTotal, capabilityOrder()) {
		if i == 3 {
			break
		}
		p.TopCapabilities = append(p.TopCapabilities, c.Label)
	}
	return p
}

// ranked sorts counts by frequency, breaking ties by order and then by label.
func ranked(counts map[string]int, total int, order []string) []Count {
	pos := make(map[string]int, len(order))
	for i, o := range order {
		pos[o] = i
	}
	rank := func(label string) int {
		if p, ok := pos[label]; ok {
			return p
		}
		return len(order)
	}

	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n, Share: pct(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if ri, rj := rank(out[i].Label), rank(out[j].Label); ri != rj {
			return ri < rj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func archetypeOrder() []string {
	var out []string
	for _, a := range model.Archetypes() {
		out = append(out, string(a))
	}
	return append(out, string(model.TraditionalGeneralist), string(model.Hybrid), string(model.Unclassified))
}

func capabilityOrder() []string {
	var out []string
	for _, c := range model.Capabilities() {
		out = append(out, string(c))
	}
	return out
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
