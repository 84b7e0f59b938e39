// Package taxonomy loads the archetype keyword table and the framework
// description sent to remote classifiers.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/archetype-cli/internal/model"
)

//go:embed taxonomy.yaml
var embedded []byte

// Archetype is one real archetype with its keywords.
type Archetype struct {
	Name     model.Archetype `yaml:"name" json:"name"`
	Summary  string          `yaml:"summary" json:"summary"`
	Keywords []string        `yaml:"keywords" json:"keywords"`
}

// Capability describes one driving capability.
type Capability struct {
	Code    model.Capability `yaml:"code" json:"code"`
	Summary string           `yaml:"summary" json:"summary"`
}

// Wave describes one innovation wave.
type Wave struct {
	Code    model.Wave `yaml:"code" json:"code"`
	Period  string     `yaml:"period" json:"period"`
	Summary string     `yaml:"summary" json:"summary"`
}

// Taxonomy is the full framework definition. Treat values returned by this
// package as read-only.
type Taxonomy struct {
	Name         string       `yaml:"name" json:"name"`
	Archetypes   []Archetype  `yaml:"archetypes" json:"archetypes"`
	GenericTerms []string     `yaml:"generic_terms" json:"generic_terms"`
	Capabilities []Capability `yaml:"capabilities" json:"capabilities"`
	Waves        []Wave       `yaml:"waves" json:"waves"`
}

var defaultTaxonomy = mustParse(embedded)

// Default returns the compiled-in taxonomy.
func Default() *Taxonomy {
	return defaultTaxonomy
}

// Load reads a taxonomy override from a YAML file with the same layout as the
// embedded default.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a taxonomy document. Keywords and generic terms
// are lowercased and trimmed.
func Parse(data []byte) (*Taxonomy, error) {
	var wrapper struct {
		Taxonomy Taxonomy `yaml:"taxonomy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse")
	}
	t := &wrapper.Taxonomy

	if len(t.Archetypes) == 0 {
		return nil, eris.New("taxonomy: no archetypes defined")
	}
	seen := make(map[model.Archetype]bool, len(t.Archetypes))
	for i := range t.Archetypes {
		a := &t.Archetypes[i]
		name, ok := model.ParseArchetype(string(a.Name))
		if !ok || !name.IsReal() {
			return nil, eris.Errorf("taxonomy: unknown archetype %q", a.Name)
		}
		if seen[name] {
			return nil, eris.Errorf("taxonomy: duplicate archetype %q", name)
		}
		seen[name] = true
		a.Name = name
		a.Keywords = normalizeTerms(a.Keywords)
		if len(a.Keywords) == 0 {
			return nil, eris.Errorf("taxonomy: archetype %q has no keywords", name)
		}
	}
	t.GenericTerms = normalizeTerms(t.GenericTerms)
	return t, nil
}

// FrameworkContext renders the static framework block embedded in every
// remote classification prompt.
func (t *Taxonomy) FrameworkContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FRAMEWORK: %s\n\n", t.Name)

	fmt.Fprintf(&b, "ARCHETYPES (%d):\n", len(t.Archetypes))
	for i, a := range t.Archetypes {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, a.Name, a.Summary)
	}

	if len(t.Capabilities) > 0 {
		fmt.Fprintf(&b, "\nDRIVING CAPABILITIES (%d):\n", len(t.Capabilities))
		for _, c := range t.Capabilities {
			fmt.Fprintf(&b, "%s: %s\n", c.Code, c.Summary)
		}
	}

	if len(t.Waves) > 0 {
		fmt.Fprintf(&b, "\nINNOVATION WAVES (%d):\n", len(t.Waves))
		for _, w := range t.Waves {
			fmt.Fprintf(&b, "%s (%s): %s\n", w.Code, w.Period, w.Summary)
		}
	}

	return b.String()
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

func mustParse(data []byte) *Taxonomy {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}
