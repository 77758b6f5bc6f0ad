package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPromptsConfig(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		validate    func(*testing.T, *PromptsConfig)
	}{
		{
			name: "override horoscope prompt only",
			configYAML: `horoscope:
  prompt: "Daily reading for {{.Sign}} on {{.Date}}."
`,
			validate: func(t *testing.T, c *PromptsConfig) {
				if c.Horoscope.Prompt != "Daily reading for {{.Sign}} on {{.Date}}." {
					t.Errorf("unexpected horoscope prompt %q", c.Horoscope.Prompt)
				}
				if c.Article.Prompt != DefaultPrompts().Article.Prompt {
					t.Errorf("expected article prompt to keep its default")
				}
			},
		},
		{
			name: "override every field",
			configYAML: `horoscope:
  system: "s1"
  prompt: "p1"
article:
  system: "s2"
  prompt: "p2"
  image: "i2"
`,
			validate: func(t *testing.T, c *PromptsConfig) {
				if c.Article.Image != "i2" || c.Horoscope.System != "s1" {
					t.Errorf("overrides not applied: %+v", c)
				}
			},
		},
		{
			name:        "broken template",
			configYAML:  "article:\n  prompt: \"{{.Writer.Name\"\n",
			expectError: true,
			errorMsg:    "article.prompt",
		},
		{
			name:        "blank template",
			configYAML:  "horoscope:\n  system: \"  \"\n",
			expectError: true,
			errorMsg:    "horoscope.system is required",
		},
		{
			name:        "invalid yaml",
			configYAML:  "horoscope: [unclosed",
			expectError: true,
			errorMsg:    "failed to parse prompts file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadPromptsConfig(writePrompts(t, tt.configYAML))

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, config)
			}
		})
	}
}

func TestLoadPromptsConfig_MissingFile(t *testing.T) {
	_, err := LoadPromptsConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read prompts file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadPromptsFromEnv(t *testing.T) {
	t.Setenv("PROMPTS_FILE", "")
	config, err := LoadPromptsFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Horoscope.Prompt != DefaultPrompts().Horoscope.Prompt {
		t.Error("expected defaults when PROMPTS_FILE is unset")
	}

	t.Setenv("PROMPTS_FILE", writePrompts(t, "article:\n  image: \"custom\"\n"))
	config, err = LoadPromptsFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Article.Image != "custom" {
		t.Errorf("expected image override, got %q", config.Article.Image)
	}
}

func TestDefaultPrompts_Valid(t *testing.T) {
	if err := DefaultPrompts().Validate(); err != nil {
		t.Fatalf("default prompts invalid: %v", err)
	}
}
