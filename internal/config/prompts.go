// Package config loads file-based configuration that does not fit in
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	pkgconfig "astrofeed/internal/pkg/config"
)

// PromptsConfig holds the text/template sources used to build provider
// requests. Missing fields keep their defaults.
type PromptsConfig struct {
	Horoscope struct {
		System string `yaml:"system"`
		Prompt string `yaml:"prompt"`
	} `yaml:"horoscope"`
	Article struct {
		System string `yaml:"system"`
		Prompt string `yaml:"prompt"`
		Image  string `yaml:"image"`
	} `yaml:"article"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *PromptsConfig {
	var c PromptsConfig
	c.Horoscope.System = "You are a warm, grounded astrologer writing a daily column. " +
		"Write in plain prose without headings, lists or markdown."
	c.Horoscope.Prompt = "Write the horoscope for {{.Sign}} for {{.Weekday}}, {{.Date}}. " +
		"Two or three short paragraphs covering mood, relationships and work."
	c.Article.System = "You are {{.Writer.Name}}. {{.Writer.Bio}} " +
		"Your writing style: {{.Writer.Style}}"
	c.Article.Prompt = "Write an original astrology article for {{.Date}}. " +
		"Put the title alone on the first line, then the body in four to six paragraphs. " +
		"Do not use markdown."
	c.Article.Image = "Editorial illustration for an astrology article titled \"{{.Title}}\". " +
		"Painterly, night sky palette, no text."
	return &c
}

// LoadPromptsConfig loads prompt templates from a YAML file over the defaults.
// The path parameter is expected to come from a trusted source (environment or CLI).
func LoadPromptsConfig(path string) (*PromptsConfig, error) {
	// #nosec G304 -- path comes from operator configuration, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	config := DefaultPrompts()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("prompts validation failed: %w", err)
	}

	return config, nil
}

// LoadPromptsFromEnv loads PROMPTS_FILE when set, otherwise the defaults.
func LoadPromptsFromEnv() (*PromptsConfig, error) {
	path := pkgconfig.LoadEnvString("PROMPTS_FILE", "")
	if path == "" {
		return DefaultPrompts(), nil
	}
	return LoadPromptsConfig(path)
}

// Validate checks that every template is present and parses.
func (c *PromptsConfig) Validate() error {
	fields := []struct {
		name string
		src  string
	}{
		{"horoscope.system", c.Horoscope.System},
		{"horoscope.prompt", c.Horoscope.Prompt},
		{"article.system", c.Article.System},
		{"article.prompt", c.Article.Prompt},
		{"article.image", c.Article.Image},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.src) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		if _, err := template.New(f.name).Parse(f.src); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}
