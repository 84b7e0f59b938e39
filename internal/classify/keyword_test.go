package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/taxonomy"
)

func newKeyword() *Keyword {
	return NewKeyword(taxonomy.Default())
}

func TestKeyword_NoWordTokens(t *testing.T) {
	k := newKeyword()
	for _, text := range []string{"", "   ", "--- !!! ...", "\t\n"} {
		res := k.ClassifyText(text)
		assert.Equal(t, model.Unclassified, res.Archetype, "text %q", text)
		assert.Equal(t, model.ConfidenceLow, res.Confidence)
		assert.Empty(t, res.Evidence)
		assert.Empty(t, res.Secondary)
		assert.Empty(t, res.Capabilities)
		assert.Equal(t, model.WaveNone, res.Wave)
	}
}

func TestKeyword_GenericTermsOnly(t *testing.T) {
	res := newKeyword().ClassifyText("Acme Insurance Services Ltd")
	assert.Equal(t, model.TraditionalGeneralist, res.Archetype)
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Equal(t, "insurance, services, ltd", res.Evidence)
}

func TestKeyword_NoMatchAtAll(t *testing.T) {
	res := newKeyword().ClassifyText("Bakery selling bread and pastries")
	assert.Equal(t, model.Unclassified, res.Archetype)
	assert.Equal(t, model.ConfidenceLow, res.Confidence)
	assert.Empty(t, res.Evidence)
}

func TestKeyword_AIDrivenScenario(t *testing.T) {
	res := newKeyword().ClassifyText("We are an AI-driven automation platform with machine learning for claims")
	assert.Equal(t, model.Disruptors, res.Archetype)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	for _, kw := range []string{"automation", "ai-driven", "machine learning"} {
		assert.Contains(t, res.Evidence, kw)
	}
	assert.Equal(t, model.SourceKeyword, res.Source)
}

func TestKeyword_RepeatedKeywordReachesHigh(t *testing.T) {
	k := newKeyword()
	kws := k.table[0].keywords
	require.NotEmpty(t, kws)

	kw := kws[0]
	res := k.ClassifyText(strings.Repeat(kw+" ", 3))
	assert.Equal(t, k.table[0].name, res.Archetype)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	assert.Equal(t, kw, res.Evidence)
}

func TestKeyword_SingleHitIsMedium(t *testing.T) {
	res := newKeyword().ClassifyText("We run a marketplace")
	assert.Equal(t, model.Connectors, res.Archetype)
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Equal(t, "marketplace", res.Evidence)
}

func TestKeyword_TieIsHybrid(t *testing.T) {
	res := newKeyword().ClassifyText("marketplace platform")
	assert.Equal(t, model.Hybrid, res.Archetype)
	assert.Equal(t, model.ConfidenceMedium, res.Confidence)
	assert.Contains(t, res.Evidence, "platform")
	assert.Contains(t, res.Evidence, "marketplace")
}

func TestKeyword_NonOverlappingCount(t *testing.T) {
	res := newKeyword().ClassifyText("ai-driven ai-driven ai-driven")
	assert.Equal(t, model.Disruptors, res.Archetype)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
}

func TestKeyword_CaseInsensitive(t *testing.T) {
	k := newKeyword()
	assert.Equal(t, k.ClassifyText("marketplace"), k.ClassifyText("MARKETPLACE"))
}

func TestKeyword_Idempotent(t *testing.T) {
	k := newKeyword()
	texts := []string{
		"Embedded insurance API platform",
		"Peer-to-peer parametric cover",
		"Acme Insurance Services Ltd",
		"",
	}
	for _, text := range texts {
		assert.Equal(t, k.ClassifyText(text), k.ClassifyText(text))
	}
}

func TestKeyword_ClassifyUsesEntityText(t *testing.T) {
	k := newKeyword()
	res, err := k.Classify(context.Background(), model.Entity{Name: "Acme", Text: "marketplace"})
	require.NoError(t, err)
	assert.Equal(t, model.Connectors, res.Archetype)
}

func TestKeyword_CustomTaxonomyOrderBreaksTies(t *testing.T) {
	tax, err := taxonomy.Parse([]byte(`
taxonomy:
  name: test
  archetypes:
    - name: Protectors
      keywords: [alpha]
    - name: Enablers
      keywords: [beta]
  generic_terms: [insurance]
`))
	require.NoError(t, err)

	k := NewKeyword(tax)
	res := k.ClassifyText("alpha alpha alpha beta")
	assert.Equal(t, model.Protectors, res.Archetype)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)

	res = k.ClassifyText("alpha beta")
	assert.Equal(t, model.Hybrid, res.Archetype)
	assert.Equal(t, "alpha, beta", res.Evidence)
}
