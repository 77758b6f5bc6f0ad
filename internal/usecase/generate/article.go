package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/repository"
)

// ArticlePlan generates one article per active writer per period, with an
// optional illustration.
type ArticlePlan struct {
	writers  repository.Reader[entity.Writer]
	articles repository.Repository[entity.Article]
	text     Generator
	image    Generator
	prompts  *Prompts
	format   entity.ImageFormat
}

var _ Plan = (*ArticlePlan)(nil)

// ArticlePlanOption customizes an ArticlePlan.
type ArticlePlanOption func(*ArticlePlan)

// WithImages enables illustrations through image in the given format.
func WithImages(image Generator, format entity.ImageFormat) ArticlePlanOption {
	return func(p *ArticlePlan) {
		p.image = image
		p.format = format
	}
}

// NewArticlePlan creates an ArticlePlan. Images are off unless WithImages is given.
func NewArticlePlan(
	writers repository.Reader[entity.Writer],
	articles repository.Repository[entity.Article],
	text Generator,
	prompts *Prompts,
	opts ...ArticlePlanOption,
) *ArticlePlan {
	p := &ArticlePlan{
		writers:  writers,
		articles: articles,
		text:     text,
		prompts:  prompts,
		format:   entity.ImageWEBP,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind implements Plan.
func (p *ArticlePlan) Kind() entity.Kind { return entity.KindArticle }

// Units implements Plan: active writer keys in insertion order.
func (p *ArticlePlan) Units(ctx context.Context, _ entity.Period) ([]string, error) {
	writers, err := p.writers.List(ctx, repository.Filter{
		Equals: map[string]any{"active": repository.EncodeBool(true)},
	})
	if err != nil {
		return nil, err
	}
	units := make([]string, len(writers))
	for i, w := range writers {
		units[i] = w.Key
	}
	return units, nil
}

// Existing implements Plan.
func (p *ArticlePlan) Existing(ctx context.Context, period entity.Period) (map[string]bool, error) {
	stored, err := p.articles.List(ctx, repository.Filter{
		Equals: map[string]any{"period": period.String()},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(stored))
	for _, a := range stored {
		out[a.WriterKey] = true
	}
	return out, nil
}

// Generate implements Plan. An image failure is logged and the article is
// kept without one.
func (p *ArticlePlan) Generate(ctx context.Context, period entity.Period, unit string) (Draft, error) {
	writer, err := p.writers.GetByKey(ctx, unit)
	if err != nil {
		return Draft{}, fmt.Errorf("load writer %s: %w", unit, err)
	}

	data := newPromptData(period)
	data.Writer = writer

	system, err := render(p.prompts.articleSystem, data)
	if err != nil {
		return Draft{}, err
	}
	prompt, err := render(p.prompts.articlePrompt, data)
	if err != nil {
		return Draft{}, err
	}

	art, err := p.text.Generate(ctx, entity.GenerationRequest{
		Prompt: prompt,
		System: system,
		Kind:   entity.ArtifactText,
		Options: entity.GenerationOptions{
			MaxTokens:   1800,
			Temperature: 0.8,
		},
	})
	if err != nil {
		return Draft{}, err
	}

	title, body := splitTitle(art.Text)
	if title == "" || body == "" {
		return Draft{}, fmt.Errorf("article for writer %s: %w: missing title or body", unit, ErrMalformedDraft)
	}

	draft := Draft{
		Unit:     unit,
		Title:    title,
		Text:     body,
		Provider: art.Provider,
		Model:    art.Model,
	}

	if p.image != nil {
		data.Title = title
		draft.Image = p.illustrate(ctx, data)
	}

	return draft, nil
}

func (p *ArticlePlan) illustrate(ctx context.Context, data promptData) *entity.Artifact {
	logger := logging.FromContext(ctx)

	prompt, err := render(p.prompts.articleImage, data)
	if err != nil {
		logger.Warn("article image prompt failed, saving without image",
			slog.String("writer_key", data.Writer.Key),
			slog.Any("error", err))
		return nil
	}

	img, err := p.image.Generate(ctx, entity.GenerationRequest{
		Prompt:  prompt,
		Kind:    entity.ArtifactImage,
		Options: entity.GenerationOptions{Format: p.format},
	})
	if err != nil {
		logger.Warn("article image generation failed, saving without image",
			slog.String("writer_key", data.Writer.Key),
			slog.Any("error", err))
		return nil
	}
	return &img
}

// Persist implements Plan.
func (p *ArticlePlan) Persist(ctx context.Context, period entity.Period, d Draft) error {
	a := entity.Article{
		WriterKey: d.Unit,
		Period:    period,
		Title:     d.Title,
		Slug:      entity.Slugify(d.Title),
		Body:      d.Text,
		Attributes: map[string]string{
			"provider": d.Provider,
			"model":    d.Model,
		},
	}
	if d.Image != nil {
		a.Image = d.Image.Data
		a.ImageMIME = d.Image.MIME
	}
	_, err := p.articles.Upsert(ctx, a)
	return err
}

// splitTitle takes the first non-blank line as the title, minus markdown
// heading marks, quotes and a "Title:" label.
func splitTitle(s string) (title, body string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return "", ""
	}

	title = strings.TrimSpace(lines[0])
	title = strings.TrimLeft(title, "# ")
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"*“”`)
	title = strings.TrimSpace(title)

	body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return title, body
}
