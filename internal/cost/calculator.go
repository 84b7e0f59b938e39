// Package cost prices remote classification runs.
package cost

import (
	"github.com/sells-group/archetype-cli/internal/model"
)

// Per-call token averages used for pre-run estimates.
const (
	charsPerToken       = 4
	promptOverheadToken = 200
	avgOutputTokens     = 250
)

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Rates maps model identifiers to pricing.
type Rates map[string]ModelRate

// DefaultRates returns the default pricing table.
func DefaultRates() Rates {
	return Rates{
		"gpt-4o-mini": {Input: 0.15, Output: 0.60, CacheReadMul: 0.5},
		"gpt-4o":      {Input: 2.50, Output: 10.00, CacheReadMul: 0.5},
		"claude-haiku-4-5-20251001": {
			Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-opus-4-6": {
			Input: 15.00, Output: 75.00, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
	}
}

// Estimate is a pre-run cost projection.
type Estimate struct {
	Model        string  `json:"model"`
	Companies    int     `json:"companies"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalUSD     float64 `json:"total_cost_usd"`
	// Priced is false when the model has no entry in the rate table.
	Priced bool `json:"priced"`
}

// Calculator computes costs for remote classification.
type Calculator struct {
	rates      Rates
	framework  string
	perCallUSD float64
}

// NewCalculator creates a Calculator. framework is the static prompt context;
// its length drives the per-call input token estimate. perCallUSD is the flat
// unit charged per successful remote row.
func NewCalculator(rates Rates, framework string, perCallUSD float64) *Calculator {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Calculator{rates: rates, framework: framework, perCallUSD: perCallUSD}
}

// Rate returns the pricing for a model.
func (c *Calculator) Rate(modelID string) (ModelRate, bool) {
	r, ok := c.rates[modelID]
	return r, ok
}

// AvgInputTokens is the estimated prompt size of one call.
func (c *Calculator) AvgInputTokens() int64 {
	return int64(len(c.framework)/charsPerToken + promptOverheadToken)
}

// Estimate projects tokens and cost for classifying count companies.
func (c *Calculator) Estimate(count int, modelID string) Estimate {
	if count < 0 {
		count = 0
	}
	est := Estimate{
		Model:        modelID,
		Companies:    count,
		InputTokens:  int64(count) * c.AvgInputTokens(),
		OutputTokens: int64(count) * avgOutputTokens,
	}
	rate, ok := c.rates[modelID]
	if !ok {
		return est
	}
	est.Priced = true
	est.TotalUSD = perMillion(est.InputTokens, rate.Input) + perMillion(est.OutputTokens, rate.Output)
	return est
}

// Usage prices actual provider-reported usage. Unknown models cost 0.
func (c *Calculator) Usage(modelID string, u model.TokenUsage) float64 {
	rate, ok := c.rates[modelID]
	if !ok {
		return 0
	}
	return perMillion(u.InputTokens, rate.Input) +
		perMillion(u.OutputTokens, rate.Output) +
		perMillion(u.CacheWrite, rate.Input*rate.CacheWriteMul) +
		perMillion(u.CacheRead, rate.Input*rate.CacheReadMul)
}

// PerCall returns the flat amount added to the run cost for r. Only
// successful remote classifications are charged.
func (c *Calculator) PerCall(r model.Result) float64 {
	if r.Source != model.SourceRemote || r.Failed() || r.Archetype == model.Unclassified {
		return 0
	}
	return c.perCallUSD
}

func perMillion(tokens int64, usd float64) float64 {
	return float64(tokens) / 1e6 * usd
}
