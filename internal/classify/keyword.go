package classify

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/taxonomy"
)

// highConfidenceScore is the minimum keyword hit count for High confidence.
const highConfidenceScore = 3

type archetypeKeywords struct {
	name     model.Archetype
	keywords []string
}

// Keyword scores text against the archetype keyword table. It holds a private
// copy of the table and is safe for concurrent use.
type Keyword struct {
	table   []archetypeKeywords
	generic []string
}

// NewKeyword builds a keyword classifier from a taxonomy. Archetype order in
// the taxonomy is the tie-break order.
func NewKeyword(tax *taxonomy.Taxonomy) *Keyword {
	k := &Keyword{
		table:   make([]archetypeKeywords, 0, len(tax.Archetypes)),
		generic: append([]string(nil), tax.GenericTerms...),
	}
	for _, a := range tax.Archetypes {
		k.table = append(k.table, archetypeKeywords{
			name:     a.Name,
			keywords: append([]string(nil), a.Keywords...),
		})
	}
	return k
}

// Classify implements Classifier using only the entity text.
func (k *Keyword) Classify(_ context.Context, e model.Entity) (model.Result, error) {
	return k.ClassifyText(e.Text), nil
}

type score struct {
	name  model.Archetype
	hits  int
	found []string
}

// ClassifyText scores text and picks the winning archetype. Occurrences are
// counted non-overlapping, left to right.
func (k *Keyword) ClassifyText(text string) model.Result {
	if !hasWordToken(text) {
		return keywordResult(model.Unclassified, model.ConfidenceLow, "")
	}

	lower := cases.Lower(language.Und).String(text)

	scores := make([]score, len(k.table))
	for i, a := range k.table {
		s := score{name: a.name}
		for _, kw := range a.keywords {
			if n := strings.Count(lower, kw); n > 0 {
				s.hits += n
				s.found = append(s.found, kw)
			}
		}
		scores[i] = s
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].hits > scores[j].hits
	})
	best := scores[0]

	if best.hits == 0 {
		var generics []string
		for _, term := range k.generic {
			if strings.Contains(lower, term) {
				generics = append(generics, term)
			}
		}
		if len(generics) > 0 {
			return keywordResult(model.TraditionalGeneralist, model.ConfidenceLow, strings.Join(generics, ", "))
		}
		return keywordResult(model.Unclassified, model.ConfidenceLow, "")
	}

	if len(scores) > 1 && scores[1].hits == best.hits {
		evidence := append(append([]string(nil), best.found...), scores[1].found...)
		return keywordResult(model.Hybrid, model.ConfidenceMedium, strings.Join(evidence, ", "))
	}

	conf := model.ConfidenceMedium
	if best.hits >= highConfidenceScore {
		conf = model.ConfidenceHigh
	}
	return keywordResult(best.name, conf, strings.Join(best.found, ", "))
}

// hasWordToken reports whether text contains at least one word character
// (letter, digit or underscore).
func hasWordToken(text string) bool {
	for _, r := range text {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func keywordResult(a model.Archetype, c model.Confidence, evidence string) model.Result {
	return model.Result{
		Archetype:    a,
		Confidence:   c,
		Evidence:     evidence,
		Secondary:    []model.Archetype{},
		Capabilities: []model.Capability{},
		Source:       model.SourceKeyword,
	}
}
