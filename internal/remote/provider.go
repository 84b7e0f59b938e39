package remote

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/archetype-cli/internal/model"
)

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Request is one structured-output completion.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON object response when it supports a
	// dedicated mode.
	JSON bool
}

// Response is the raw provider reply.
type Response struct {
	Text  string
	Usage model.TokenUsage
}

// Provider sends one completion request to an LLM service.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ProviderFactory builds a Provider on first use.
type ProviderFactory func() (Provider, error)

// ProviderSettings holds credentials and endpoints for every provider.
type ProviderSettings struct {
	Provider       string
	AnthropicKey   string
	AnthropicURL   string
	OpenAIKey      string
	OpenAIURL      string
	Model          string
	RequestTimeout time.Duration
}

// NewProviderFactory returns a factory for the configured provider. Nothing
// is dialed or validated until the factory runs.
func NewProviderFactory(s ProviderSettings) ProviderFactory {
	return func() (Provider, error) {
		switch s.Provider {
		case ProviderAnthropic, "":
			return NewAnthropicProvider(s.AnthropicKey, s.AnthropicURL, s.RequestTimeout)
		case ProviderOpenAI:
			return NewOpenAIProvider(s.OpenAIKey, s.OpenAIURL, s.Model)
		default:
			return nil, eris.Errorf("remote: unsupported provider %q", s.Provider)
		}
	}
}
