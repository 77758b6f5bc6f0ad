package generate

import (
	"context"
	"fmt"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/repository"
)

// HoroscopePlan generates one horoscope per zodiac sign per period.
type HoroscopePlan struct {
	repo    repository.Repository[entity.Horoscope]
	text    Generator
	prompts *Prompts
}

var _ Plan = (*HoroscopePlan)(nil)

// NewHoroscopePlan creates a HoroscopePlan.
func NewHoroscopePlan(repo repository.Repository[entity.Horoscope], text Generator, prompts *Prompts) *HoroscopePlan {
	return &HoroscopePlan{repo: repo, text: text, prompts: prompts}
}

// Kind implements Plan.
func (p *HoroscopePlan) Kind() entity.Kind { return entity.KindHoroscope }

// Units implements Plan: the twelve signs in zodiac order.
func (p *HoroscopePlan) Units(_ context.Context, _ entity.Period) ([]string, error) {
	signs := entity.AllSigns()
	units := make([]string, len(signs))
	for i, s := range signs {
		units[i] = string(s)
	}
	return units, nil
}

// Existing implements Plan.
func (p *HoroscopePlan) Existing(ctx context.Context, period entity.Period) (map[string]bool, error) {
	stored, err := p.repo.List(ctx, repository.Filter{
		Equals: map[string]any{"period": period.String()},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(stored))
	for _, h := range stored {
		out[string(h.Sign)] = true
	}
	return out, nil
}

// Generate implements Plan.
func (p *HoroscopePlan) Generate(ctx context.Context, period entity.Period, unit string) (Draft, error) {
	sign := entity.Sign(unit)
	if !sign.IsValid() {
		return Draft{}, fmt.Errorf("unknown sign %q: %w", unit, entity.ErrInvalidInput)
	}

	data := newPromptData(period)
	data.Sign = sign.Title()

	system, err := render(p.prompts.horoscopeSystem, data)
	if err != nil {
		return Draft{}, err
	}
	prompt, err := render(p.prompts.horoscopePrompt, data)
	if err != nil {
		return Draft{}, err
	}

	art, err := p.text.Generate(ctx, entity.GenerationRequest{
		Prompt: prompt,
		System: system,
		Kind:   entity.ArtifactText,
		Options: entity.GenerationOptions{
			MaxTokens:   600,
			Temperature: 0.9,
		},
	})
	if err != nil {
		return Draft{}, err
	}

	return Draft{Unit: unit, Text: art.Text, Provider: art.Provider, Model: art.Model}, nil
}

// Persist implements Plan.
func (p *HoroscopePlan) Persist(ctx context.Context, period entity.Period, d Draft) error {
	_, err := p.repo.Upsert(ctx, entity.Horoscope{
		Sign:   entity.Sign(d.Unit),
		Period: period,
		Text:   d.Text,
	})
	return err
}
