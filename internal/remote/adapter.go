// Package remote delegates classification to an external LLM service and
// normalizes its structured reply into a model.Result.
package remote

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/resilience"
)

// Error evidence limits.
const (
	apiErrorLimit    = 80
	decodeErrorLimit = 80
)

// Config controls the outbound call.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds each attempt. Exceeding it is a retryable failure.
	Timeout time.Duration
	// Delay is the minimum spacing enforced before every outbound attempt.
	Delay            time.Duration
	DescriptionLimit int
	Retry            resilience.RetryConfig
}

// DefaultConfig returns the adapter defaults.
func DefaultConfig() Config {
	return Config{
		Temperature:      0,
		MaxTokens:        800,
		Timeout:          30 * time.Second,
		Delay:            500 * time.Millisecond,
		DescriptionLimit: 500,
		Retry:            resilience.DefaultRetryConfig(),
	}
}

// Adapter is the remote classifier. The provider is built lazily on first
// use and reused for the life of the process.
type Adapter struct {
	cfg       Config
	framework string
	factory   ProviderFactory
	limiter   *rate.Limiter

	once     sync.Once
	provider Provider
	initErr  error

	mu    sync.Mutex
	usage model.TokenUsage
}

// NewAdapter creates an adapter. framework is the static taxonomy context
// embedded in every prompt.
func NewAdapter(factory ProviderFactory, framework string, cfg Config) *Adapter {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if cfg.DescriptionLimit <= 0 {
		cfg.DescriptionLimit = 500
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)
	// Drain the initial token so the first call also waits one interval.
	limiter.Allow()

	return &Adapter{
		cfg:       cfg,
		framework: framework,
		factory:   factory,
		limiter:   limiter,
	}
}

func (a *Adapter) client() (Provider, error) {
	a.once.Do(func() {
		a.provider, a.initErr = a.factory()
		if a.initErr == nil {
			zap.L().Info("remote: provider ready",
				zap.String("provider", a.provider.Name()),
				zap.String("model", a.cfg.Model))
		}
	})
	return a.provider, a.initErr
}

// Classify implements classify.Classifier. Provider construction failures are
// returned as errors; every failure after that is reported as an API Error
// result.
func (a *Adapter) Classify(ctx context.Context, e model.Entity) (model.Result, error) {
	p, err := a.client()
	if err != nil {
		return model.Result{}, err
	}

	req := Request{
		Model:       a.cfg.Model,
		System:      systemInstruction,
		Prompt:      BuildPrompt(a.framework, e, a.cfg.DescriptionLimit),
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		JSON:        true,
	}

	retry := a.cfg.Retry
	retry.OnRetry = resilience.RetryLogger(p.Name(), e.Name)

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Response, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		callCtx := ctx
		if a.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()
		}
		return p.Complete(callCtx, req)
	})
	if err != nil {
		zap.L().Warn("remote: classification failed",
			zap.String("provider", p.Name()),
			zap.String("company", e.Name),
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err))
		return model.FailedResult(model.FailureAPI, err, "Error: ", apiErrorLimit), nil
	}

	a.mu.Lock()
	a.usage.Add(resp.Usage)
	a.mu.Unlock()

	res, err := ParseResult(resp.Text)
	if err != nil {
		zap.L().Warn("remote: unparsable response",
			zap.String("company", e.Name),
			zap.Error(err))
		return model.FailedResult(model.FailureDecode, err, "JSON parse error: ", decodeErrorLimit), nil
	}

	zap.L().Debug("remote: classified",
		zap.String("company", e.Name),
		zap.String("archetype", string(res.Archetype)),
		zap.String("confidence", string(res.Confidence)))
	return res, nil
}

// Usage returns the tokens reported by the provider so far.
func (a *Adapter) Usage() model.TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// Model returns the configured model identifier.
func (a *Adapter) Model() string {
	return a.cfg.Model
}
