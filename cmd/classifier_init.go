package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/cost"
	"github.com/sells-group/archetype-cli/internal/remote"
	"github.com/sells-group/archetype-cli/internal/resilience"
	"github.com/sells-group/archetype-cli/internal/taxonomy"
)

// classifierEnv holds the classifier stack shared by the classify and serve
// commands.
type classifierEnv struct {
	Taxonomy   *taxonomy.Taxonomy
	Dispatcher *classify.Dispatcher
	Calculator *cost.Calculator
	Adapter    *remote.Adapter            // nil in keyword mode
	Breaker    *resilience.CircuitBreaker // nil in keyword mode
	Model      string
}

// LogUsage logs the provider-reported token usage and its priced cost.
func (env *classifierEnv) LogUsage() {
	if env.Adapter == nil {
		return
	}
	u := env.Adapter.Usage()
	if u.Calls == 0 && u.InputTokens == 0 {
		return
	}
	zap.L().Info("remote token usage",
		zap.String("model", env.Model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_read_tokens", u.CacheRead),
		zap.Float64("token_cost_usd", env.Calculator.Usage(env.Model, u)),
	)
}

// initClassifier loads the taxonomy and builds the dispatcher. With ai set,
// the remote adapter is configured from cfg; nothing is dialed until the
// first classification.
func initClassifier(ai bool) (*classifierEnv, error) {
	tax, err := loadTaxonomy()
	if err != nil {
		return nil, err
	}

	env := &classifierEnv{
		Taxonomy:   tax,
		Calculator: cost.NewCalculator(pricingRates(), tax.FrameworkContext(), cfg.Batch.CostPerCall),
		Model:      cfg.RemoteModel(),
	}
	kw := classify.NewKeyword(tax)

	if !ai {
		env.Dispatcher = classify.NewDispatcher(kw)
		return env, nil
	}

	cfg.Classifier.Mode = string(classify.ModeAI)
	if err := cfg.Validate("classify"); err != nil {
		return nil, err
	}
	if key := cfg.MissingRemoteKey(); key != "" {
		zap.L().Warn("remote classifier has no API key, results will use keyword fallback",
			zap.String("provider", cfg.Classifier.Provider),
			zap.String("missing", key))
	}

	factory := remote.NewProviderFactory(remote.ProviderSettings{
		Provider:       cfg.Classifier.Provider,
		AnthropicKey:   cfg.Anthropic.Key,
		AnthropicURL:   cfg.Anthropic.BaseURL,
		OpenAIKey:      cfg.OpenAI.Key,
		OpenAIURL:      cfg.OpenAI.BaseURL,
		Model:          env.Model,
		RequestTimeout: time.Duration(cfg.Remote.TimeoutSecs) * time.Second,
	})

	rc := remote.DefaultConfig()
	rc.Model = env.Model
	rc.Temperature = cfg.Remote.Temperature
	rc.MaxTokens = cfg.Remote.MaxTokens
	rc.Timeout = time.Duration(cfg.Remote.TimeoutSecs) * time.Second
	rc.Delay = time.Duration(cfg.Remote.DelayMs) * time.Millisecond
	rc.DescriptionLimit = cfg.Remote.DescriptionLimit
	rc.Retry = resilience.FromRetryConfig(cfg.Remote.MaxAttempts, cfg.Remote.MinBackoffMs, cfg.Remote.MaxBackoffMs)
	env.Adapter = remote.NewAdapter(factory, tax.FrameworkContext(), rc)

	cbCfg := resilience.FromCircuitConfig(cfg.Remote.CircuitThreshold, cfg.Remote.CircuitResetSecs)
	cbCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("remote classifier health changed",
			zap.String("provider", cfg.Classifier.Provider),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	env.Breaker = resilience.NewCircuitBreaker(cbCfg)

	env.Dispatcher = classify.NewDispatcher(kw,
		classify.WithRemote(env.Adapter),
		classify.WithHealth(env.Breaker),
		classify.WithFallbackOnError(cfg.Remote.FallbackOnError),
	)

	zap.L().Info("remote classification enabled",
		zap.String("provider", cfg.Classifier.Provider),
		zap.String("model", env.Model))
	return env, nil
}

func loadTaxonomy() (*taxonomy.Taxonomy, error) {
	if cfg.Classifier.TaxonomyPath == "" {
		return taxonomy.Default(), nil
	}
	tax, err := taxonomy.Load(cfg.Classifier.TaxonomyPath)
	if err != nil {
		return nil, eris.Wrap(err, "load taxonomy")
	}
	return tax, nil
}

// pricingRates merges configured pricing over the defaults.
func pricingRates() cost.Rates {
	rates := cost.DefaultRates()
	for id, p := range cfg.Pricing.Models {
		rates[id] = cost.ModelRate{
			Input:         p.Input,
			Output:        p.Output,
			CacheWriteMul: p.CacheWriteMul,
			CacheReadMul:  p.CacheReadMul,
		}
	}
	return rates
}
