package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"astrofeed/internal/domain/entity"
)

// Base URLs for the OpenAI-compatible chat completion APIs.
const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
)

// OpenAIConfig configures an OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	// Name labels the backend ("openai", "deepseek").
	Name    string
	APIKey  string
	BaseURL string
	Model   string

	// MaxTokens is used when a request does not set its own budget.
	MaxTokens int

	// HTTPClient overrides the transport; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// OpenAICompatible produces text through any API speaking the OpenAI chat
// completions protocol. OpenAI and DeepSeek differ only by base URL and model.
type OpenAICompatible struct {
	name      string
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAICompatible creates a chat completion backend.
func NewOpenAICompatible(cfg OpenAIConfig) *OpenAICompatible {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	slog.Info("initialized text provider",
		slog.String("provider", cfg.Name),
		slog.String("model", cfg.Model),
		slog.String("base_url", clientCfg.BaseURL))

	return &OpenAICompatible{
		name:      cfg.Name,
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name implements Backend.
func (o *OpenAICompatible) Name() string { return o.name }

// Generate implements Backend.
func (o *OpenAICompatible) Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	if req.Kind != entity.ArtifactText {
		return entity.Artifact{}, entity.NewProviderError(o.name, entity.ErrProviderRejected,
			fmt.Errorf("unsupported artifact kind %q", req.Kind))
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Options.Temperature),
	})
	if err != nil {
		return entity.Artifact{}, fmt.Errorf("%s chat completion: %w", o.name, err)
	}

	if len(resp.Choices) == 0 {
		return entity.Artifact{}, fmt.Errorf("%s chat completion: %w", o.name, errEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return entity.Artifact{}, entity.NewProviderError(o.name, entity.ErrProviderRejected,
			fmt.Errorf("completion stopped by content filter"))
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return entity.Artifact{}, fmt.Errorf("%s chat completion: %w", o.name, errEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return entity.Artifact{
		Kind:     entity.ArtifactText,
		Text:     choice.Message.Content,
		MIME:     "text/plain",
		Provider: o.name,
		Model:    model,
	}, nil
}
