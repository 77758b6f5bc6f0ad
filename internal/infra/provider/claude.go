package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"astrofeed/internal/domain/entity"
)

// ClaudeConfig configures the Anthropic Messages API backend.
type ClaudeConfig struct {
	APIKey string
	Model  string

	// MaxTokens is used when a request does not set its own budget.
	MaxTokens int

	// BaseURL and HTTPClient override the SDK defaults when set.
	BaseURL    string
	HTTPClient *http.Client
}

// Claude produces text through Anthropic's Claude models.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewClaude creates a Claude backend. The SDK's own retries are disabled.
func NewClaude(cfg ClaudeConfig) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	slog.Info("initialized text provider",
		slog.String("provider", "claude"),
		slog.String("model", cfg.Model))

	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name implements Backend.
func (c *Claude) Name() string { return "claude" }

// Generate implements Backend.
func (c *Claude) Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	if req.Kind != entity.ArtifactText {
		return entity.Artifact{}, entity.NewProviderError(c.Name(), entity.ErrProviderRejected,
			fmt.Errorf("unsupported artifact kind %q", req.Kind))
	}

	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if t := req.Options.Temperature; t > 0 {
		// Messages API accepts 0..1
		params.Temperature = anthropic.Float(min(t, 1))
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return entity.Artifact{}, fmt.Errorf("claude messages: %w", err)
	}

	if message.StopReason == "refusal" {
		return entity.Artifact{}, entity.NewProviderError(c.Name(), entity.ErrProviderRejected,
			fmt.Errorf("model refused the request"))
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return entity.Artifact{}, fmt.Errorf("claude messages: %w", errEmptyResponse)
	}

	return entity.Artifact{
		Kind:     entity.ArtifactText,
		Text:     sb.String(),
		MIME:     "text/plain",
		Provider: c.Name(),
		Model:    string(message.Model),
	}, nil
}
