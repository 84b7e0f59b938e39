package remote

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sells-group/archetype-cli/internal/model"
)

// OpenAIProvider calls an OpenAI-compatible chat completion endpoint through
// langchaingo.
type OpenAIProvider struct {
	llm llms.Model
}

// NewOpenAIProvider creates a provider for the given token and default model.
func NewOpenAIProvider(token, baseURL, modelName string) (*OpenAIProvider, error) {
	if token == "" {
		return nil, eris.New("remote: openai api key is required")
	}
	opts := []openai.Option{openai.WithToken(token)}
	if modelName != "" {
		opts = append(opts, openai.WithModel(modelName))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, eris.Wrap(err, "remote: create openai client")
	}
	return &OpenAIProvider{llm: llm}, nil
}

// NewOpenAIProviderWithModel wraps an existing langchaingo model.
func NewOpenAIProviderWithModel(llm llms.Model) *OpenAIProvider {
	return &OpenAIProvider{llm: llm}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "remote: openai generate")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("remote: openai returned no choices")
	}

	choice := resp.Choices[0]
	return &Response{
		Text:  choice.Content,
		Usage: usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

func usageFromGenerationInfo(info map[string]any) model.TokenUsage {
	u := model.TokenUsage{Calls: 1}
	u.InputTokens = intFromInfo(info, "PromptTokens")
	u.OutputTokens = intFromInfo(info, "CompletionTokens")
	return u
}

func intFromInfo(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
