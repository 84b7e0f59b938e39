package remote

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/resilience"
	"github.com/sells-group/archetype-cli/pkg/anthropic"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a provider backed by the SDK client.
func NewAnthropicProvider(apiKey, baseURL string, timeout time.Duration) (*AnthropicProvider, error) {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, anthropic.WithTimeout(timeout))
	}
	client, err := anthropic.NewClient(apiKey, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "remote: anthropic provider")
	}
	return &AnthropicProvider{client: client}, nil
}

// NewAnthropicProviderWithClient wraps an existing client.
func NewAnthropicProviderWithClient(client anthropic.Client) *AnthropicProvider {
	return &AnthropicProvider{client: client}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

// Complete implements Provider. The Messages API has no JSON mode; the
// system prompt carries the JSON-only instruction and the reply is cleaned
// before decoding.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	temp := req.Temperature
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		System:      anthropic.CachedSystem(req.System),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, resilience.FromHTTPStatus(err, anthropic.StatusCode(err))
	}

	return &Response{
		Text: resp.Text(),
		Usage: model.TokenUsage{
			Calls:        1,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CacheRead:    resp.Usage.CacheReadInputTokens,
			CacheWrite:   resp.Usage.CacheCreationInputTokens,
		},
	}, nil
}
