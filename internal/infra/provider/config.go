package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	pkgconfig "astrofeed/internal/pkg/config"
	"astrofeed/internal/resilience/circuitbreaker"
)

// ErrImageDisabled is returned by NewImage when IMAGE_PROVIDER is "none".
var ErrImageDisabled = errors.New("image provider disabled")

// Text and image backend selectors.
const (
	TextOpenAI   = "openai"
	TextDeepSeek = "deepseek"
	TextClaude   = "claude"
	TextNoOp     = "noop"

	ImageRunware = "runware"
	ImageNoOp    = "noop"
	ImageNone    = "none"
)

// Config selects and configures the content providers.
type Config struct {
	TextProvider  string
	ImageProvider string

	OpenAIAPIKey string
	OpenAIModel  string

	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string

	AnthropicAPIKey string
	ClaudeModel     string

	RunwareAPIKey string
	RunwareModel  string

	// MaxTokens is the default completion budget for text backends.
	MaxTokens int

	// Timeout bounds a single provider call.
	Timeout time.Duration

	// Interval and Burst shape the per-backend rate limiter.
	Interval time.Duration
	Burst    int
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		TextProvider:    TextOpenAI,
		ImageProvider:   ImageNone,
		OpenAIModel:     "gpt-4o-mini",
		DeepSeekModel:   "deepseek-chat",
		DeepSeekBaseURL: DeepSeekBaseURL,
		ClaudeModel:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		RunwareModel:    "runware:100@1",
		MaxTokens:       1024,
		Timeout:         60 * time.Second,
		Interval:        500 * time.Millisecond,
		Burst:           3,
	}
}

// LoadConfigFromEnv reads TEXT_PROVIDER, IMAGE_PROVIDER, the API keys and
// model overrides, PROVIDER_TIMEOUT, PROVIDER_MIN_INTERVAL and PROVIDER_BURST.
// Invalid values fall back to defaults with a warning.
func LoadConfigFromEnv() (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	textRes := pkgconfig.LoadEnvWithFallback("TEXT_PROVIDER", cfg.TextProvider,
		oneOf(TextOpenAI, TextDeepSeek, TextClaude, TextNoOp))
	cfg.TextProvider = textRes.Value
	warnings = append(warnings, textRes.Warnings...)

	imageRes := pkgconfig.LoadEnvWithFallback("IMAGE_PROVIDER", cfg.ImageProvider,
		oneOf(ImageRunware, ImageNoOp, ImageNone))
	cfg.ImageProvider = imageRes.Value
	warnings = append(warnings, imageRes.Warnings...)

	cfg.OpenAIAPIKey = pkgconfig.LoadEnvString("OPENAI_API_KEY", "")
	cfg.OpenAIModel = pkgconfig.LoadEnvString("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.DeepSeekAPIKey = pkgconfig.LoadEnvString("DEEPSEEK_API_KEY", "")
	cfg.DeepSeekModel = pkgconfig.LoadEnvString("DEEPSEEK_MODEL", cfg.DeepSeekModel)
	cfg.DeepSeekBaseURL = pkgconfig.LoadEnvString("DEEPSEEK_BASE_URL", cfg.DeepSeekBaseURL)
	cfg.AnthropicAPIKey = pkgconfig.LoadEnvString("ANTHROPIC_API_KEY", "")
	cfg.ClaudeModel = pkgconfig.LoadEnvString("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.RunwareAPIKey = pkgconfig.LoadEnvString("RUNWARE_API_KEY", "")
	cfg.RunwareModel = pkgconfig.LoadEnvString("RUNWARE_MODEL", cfg.RunwareModel)

	timeout := pkgconfig.LoadEnvDuration("PROVIDER_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 10*time.Minute)
	})
	cfg.Timeout = timeout.Value
	warnings = append(warnings, timeout.Warnings...)

	interval := pkgconfig.LoadEnvDuration("PROVIDER_MIN_INTERVAL", cfg.Interval, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, 0, time.Minute)
	})
	cfg.Interval = interval.Value
	warnings = append(warnings, interval.Warnings...)

	burst := pkgconfig.LoadEnvInt("PROVIDER_BURST", cfg.Burst, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 20)
	})
	cfg.Burst = burst.Value
	warnings = append(warnings, burst.Warnings...)

	return cfg, warnings
}

// NewText builds the guarded text backend selected by cfg.TextProvider.
func NewText(cfg Config) (*Client, error) {
	var backend Backend
	switch cfg.TextProvider {
	case TextOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("text provider %q: OPENAI_API_KEY is required", cfg.TextProvider)
		}
		backend = NewOpenAICompatible(OpenAIConfig{
			Name:      TextOpenAI,
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			MaxTokens: cfg.MaxTokens,
		})
	case TextDeepSeek:
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("text provider %q: DEEPSEEK_API_KEY is required", cfg.TextProvider)
		}
		backend = NewOpenAICompatible(OpenAIConfig{
			Name:      TextDeepSeek,
			APIKey:    cfg.DeepSeekAPIKey,
			BaseURL:   cfg.DeepSeekBaseURL,
			Model:     cfg.DeepSeekModel,
			MaxTokens: cfg.MaxTokens,
		})
	case TextClaude:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("text provider %q: ANTHROPIC_API_KEY is required", cfg.TextProvider)
		}
		backend = NewClaude(ClaudeConfig{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.ClaudeModel,
			MaxTokens: cfg.MaxTokens,
		})
	case TextNoOp:
		backend = NewNoOp()
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.TextProvider)
	}

	return New(backend, Options{
		Timeout:  cfg.Timeout,
		Interval: cfg.Interval,
		Burst:    cfg.Burst,
		Breaker:  circuitbreaker.TextProviderConfig(backend.Name()),
	}), nil
}

// NewImage builds the guarded image backend selected by cfg.ImageProvider.
// It returns ErrImageDisabled when images are turned off.
func NewImage(cfg Config) (*Client, error) {
	var backend Backend
	switch cfg.ImageProvider {
	case ImageNone, "":
		return nil, ErrImageDisabled
	case ImageRunware:
		if cfg.RunwareAPIKey == "" {
			return nil, fmt.Errorf("image provider %q: RUNWARE_API_KEY is required", cfg.ImageProvider)
		}
		backend = NewRunware(RunwareConfig{
			APIKey: cfg.RunwareAPIKey,
			Model:  cfg.RunwareModel,
		})
	case ImageNoOp:
		backend = NewNoOp()
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.ImageProvider)
	}

	return New(backend, Options{
		Timeout:  cfg.Timeout,
		Interval: cfg.Interval,
		Burst:    1,
		Breaker:  circuitbreaker.ImageProviderConfig(backend.Name()),
	}), nil
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v, got %q", allowed, v)
	}
}
