package sqlite

import (
	"astrofeed/internal/domain/entity"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/repository"
)

// Set holds one repository per kind, all built from the same registry.
type Set struct {
	Writers    *Repository[entity.Writer]
	Articles   *Repository[entity.Article]
	Horoscopes *Repository[entity.Horoscope]
}

// NewSet builds the repositories for every kind in reg. It panics if reg is
// missing a kind or holds it under another type.
func NewSet(h *db.Handle, reg *repository.Registry, opts ...Option) Set {
	return Set{
		Writers:    New(h, repository.For[entity.Writer](reg, entity.KindWriter), opts...),
		Articles:   New(h, repository.For[entity.Article](reg, entity.KindArticle), opts...),
		Horoscopes: New(h, repository.For[entity.Horoscope](reg, entity.KindHoroscope), opts...),
	}
}

// Counters returns the repositories keyed by the kind they serve.
func (s Set) Counters() map[entity.Kind]repository.Counter {
	return map[entity.Kind]repository.Counter{
		s.Writers.Kind():    s.Writers,
		s.Articles.Kind():   s.Articles,
		s.Horoscopes.Kind(): s.Horoscopes,
	}
}
