// Package content implements the read path over generated content: random
// writer, daily horoscopes and articles.
package content

import (
	"context"
	"fmt"
	"sort"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/repository"
)

// Listing limits for ListArticles.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ArticleQuery narrows ListArticles. Zero fields do not filter.
type ArticleQuery struct {
	WriterKey string
	Period    entity.Period
	Limit     int
}

// Service provides the read use cases.
type Service struct {
	Writers    repository.Reader[entity.Writer]
	Articles   repository.Reader[entity.Article]
	Horoscopes repository.Reader[entity.Horoscope]
}

// RandomWriter returns one active writer chosen uniformly.
// Returns entity.ErrNotFound when no writer is active.
func (s *Service) RandomWriter(ctx context.Context) (entity.Writer, error) {
	w, err := s.Writers.Random(ctx, repository.Filter{
		Equals: map[string]any{"active": repository.EncodeBool(true)},
	})
	if err != nil {
		return entity.Writer{}, fmt.Errorf("random writer: %w", err)
	}
	return w, nil
}

// ListWriters returns every writer in insertion order.
func (s *Service) ListWriters(ctx context.Context) ([]entity.Writer, error) {
	writers, err := s.Writers.List(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list writers: %w", err)
	}
	return writers, nil
}

// GetWriter returns the writer stored under key.
func (s *Service) GetWriter(ctx context.Context, key string) (entity.Writer, error) {
	if key == "" {
		return entity.Writer{}, fmt.Errorf("get writer: %w: empty key", entity.ErrInvalidInput)
	}
	w, err := s.Writers.GetByKey(ctx, key)
	if err != nil {
		return entity.Writer{}, fmt.Errorf("get writer: %w", err)
	}
	return w, nil
}

// HoroscopesFor returns the horoscopes stored for period in zodiac order.
// Signs not generated yet are simply absent.
func (s *Service) HoroscopesFor(ctx context.Context, period entity.Period) ([]entity.Horoscope, error) {
	if period.IsZero() {
		return nil, fmt.Errorf("horoscopes: %w: period is required", entity.ErrInvalidInput)
	}
	list, err := s.Horoscopes.List(ctx, repository.Filter{
		Equals: map[string]any{"period": period.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("horoscopes for %s: %w", period, err)
	}

	order := make(map[entity.Sign]int, 12)
	for i, sign := range entity.AllSigns() {
		order[sign] = i
	}
	sort.SliceStable(list, func(i, j int) bool { return order[list[i].Sign] < order[list[j].Sign] })
	return list, nil
}

// Horoscope returns one sign's reading for period.
func (s *Service) Horoscope(ctx context.Context, sign entity.Sign, period entity.Period) (entity.Horoscope, error) {
	if !sign.IsValid() {
		return entity.Horoscope{}, fmt.Errorf("horoscope: %w: unknown sign %q", entity.ErrInvalidInput, sign)
	}
	if period.IsZero() {
		return entity.Horoscope{}, fmt.Errorf("horoscope: %w: period is required", entity.ErrInvalidInput)
	}
	list, err := s.Horoscopes.List(ctx, repository.Filter{
		Equals: map[string]any{"sign": string(sign), "period": period.String()},
		Limit:  1,
	})
	if err != nil {
		return entity.Horoscope{}, fmt.Errorf("horoscope %s %s: %w", sign, period, err)
	}
	if len(list) == 0 {
		return entity.Horoscope{}, fmt.Errorf("horoscope %s %s: %w", sign, period, entity.ErrNotFound)
	}
	return list[0], nil
}

// ListArticles returns the newest articles first. Limit defaults to
// DefaultLimit and is capped at MaxLimit.
func (s *Service) ListArticles(ctx context.Context, q ArticleQuery) ([]entity.Article, error) {
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	f := repository.Filter{
		Equals:  map[string]any{},
		OrderBy: "period",
		Desc:    true,
		Limit:   uint64(limit),
	}
	if q.WriterKey != "" {
		f.Equals["writer_key"] = q.WriterKey
	}
	if !q.Period.IsZero() {
		f.Equals["period"] = q.Period.String()
	}

	articles, err := s.Articles.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// GetArticle returns the article stored under key.
func (s *Service) GetArticle(ctx context.Context, key string) (entity.Article, error) {
	if key == "" {
		return entity.Article{}, fmt.Errorf("get article: %w: empty key", entity.ErrInvalidInput)
	}
	a, err := s.Articles.GetByKey(ctx, key)
	if err != nil {
		return entity.Article{}, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// CountArticles returns how many articles match q's writer and period.
func (s *Service) CountArticles(ctx context.Context, q ArticleQuery) (int, error) {
	f := repository.Filter{Equals: map[string]any{}}
	if q.WriterKey != "" {
		f.Equals["writer_key"] = q.WriterKey
	}
	if !q.Period.IsZero() {
		f.Equals["period"] = q.Period.String()
	}
	n, err := s.Articles.Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
