package remote

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/model"
)

// justificationLimit caps the justification kept as evidence.
const justificationLimit = 200

// payload is the JSON object the remote classifier returns. Lists and the
// wave tolerate loose typing ("DC1, DC2" or 3.0).
type payload struct {
	Archetype     *string    `json:"archetype"`
	Secondary     looseList  `json:"secondary_archetypes"`
	Capabilities  looseList  `json:"driving_capabilities"`
	Wave          looseValue `json:"innovation_wave"`
	Justification string     `json:"justification"`
	Confidence    *string    `json:"confidence"`
}

type looseList []string

func (l *looseList) UnmarshalJSON(data []byte) error {
	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		for _, v := range arr {
			if s := looseString(v); s != "" {
				*l = append(*l, s)
			}
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type looseValue string

func (v *looseValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = looseValue(looseString(raw))
	return nil
}

func looseString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 1, 64)
	}
	return ""
}

// ParseResult decodes a remote reply into a Result. Missing archetype
// defaults to Unclassified and missing confidence to Medium.
func ParseResult(text string) (model.Result, error) {
	var p payload
	if err := json.Unmarshal([]byte(cleanJSON(text)), &p); err != nil {
		return model.Result{}, eris.Wrap(err, "remote: decode response")
	}

	arch := model.Unclassified
	if p.Archetype != nil {
		if a, ok := model.ParseArchetype(*p.Archetype); ok && !a.IsError() {
			arch = a
		} else if strings.TrimSpace(*p.Archetype) != "" {
			zap.L().Debug("remote: unknown archetype label", zap.String("archetype", *p.Archetype))
		}
	}

	conf := model.ConfidenceMedium
	if p.Confidence != nil {
		if c, ok := model.ParseConfidence(*p.Confidence); ok {
			conf = c
		}
	}

	secondary := []model.Archetype{}
	seen := map[model.Archetype]bool{arch: true}
	for _, raw := range p.Secondary {
		a, ok := model.ParseArchetype(raw)
		if !ok || !a.IsReal() || seen[a] {
			continue
		}
		seen[a] = true
		secondary = append(secondary, a)
	}

	caps := []model.Capability{}
	seenCap := map[model.Capability]bool{}
	for _, raw := range p.Capabilities {
		c, ok := model.ParseCapability(raw)
		if !ok || seenCap[c] {
			continue
		}
		seenCap[c] = true
		caps = append(caps, c)
	}

	return model.Result{
		Archetype:    arch,
		Confidence:   conf,
		Evidence:     shortenJustification(p.Justification),
		Secondary:    secondary,
		Capabilities: caps,
		Wave:         model.ParseWave(string(p.Wave)),
		Source:       model.SourceRemote,
	}, nil
}

func shortenJustification(s string) string {
	s = strings.TrimSpace(s)
	short := model.Truncate(s, justificationLimit)
	if short != s {
		return short + "..."
	}
	return s
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
