package generate

import (
	"fmt"
	"strings"
	"text/template"

	"astrofeed/internal/config"
	"astrofeed/internal/domain/entity"
)

// Prompts holds the compiled prompt templates.
type Prompts struct {
	horoscopeSystem *template.Template
	horoscopePrompt *template.Template
	articleSystem   *template.Template
	articlePrompt   *template.Template
	articleImage    *template.Template
}

// NewPrompts compiles cfg. A nil cfg uses config.DefaultPrompts.
func NewPrompts(cfg *config.PromptsConfig) (*Prompts, error) {
	if cfg == nil {
		cfg = config.DefaultPrompts()
	}

	var p Prompts
	for _, t := range []struct {
		dst  **template.Template
		name string
		src  string
	}{
		{&p.horoscopeSystem, "horoscope.system", cfg.Horoscope.System},
		{&p.horoscopePrompt, "horoscope.prompt", cfg.Horoscope.Prompt},
		{&p.articleSystem, "article.system", cfg.Article.System},
		{&p.articlePrompt, "article.prompt", cfg.Article.Prompt},
		{&p.articleImage, "article.image", cfg.Article.Image},
	} {
		tmpl, err := template.New(t.name).Option("missingkey=error").Parse(t.src)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t.name, err)
		}
		*t.dst = tmpl
	}
	return &p, nil
}

type promptData struct {
	Sign    string
	Date    string
	Weekday string
	Title   string
	Writer  entity.Writer
}

func newPromptData(period entity.Period) promptData {
	return promptData{
		Date:    period.Time().Format("January 2, 2006"),
		Weekday: period.Time().Weekday().String(),
	}
}

func render(t *template.Template, data promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
