// Package content serves generated writers, horoscopes and articles over a
// read-only JSON API.
package content

import (
	"context"
	"net/http"
	"time"

	"astrofeed/internal/domain/entity"
	contentUC "astrofeed/internal/usecase/content"
)

// Reader is the read path the handlers depend on. *content.Service implements it.
type Reader interface {
	RandomWriter(ctx context.Context) (entity.Writer, error)
	ListWriters(ctx context.Context) ([]entity.Writer, error)
	GetWriter(ctx context.Context, key string) (entity.Writer, error)
	HoroscopesFor(ctx context.Context, period entity.Period) ([]entity.Horoscope, error)
	Horoscope(ctx context.Context, sign entity.Sign, period entity.Period) (entity.Horoscope, error)
	ListArticles(ctx context.Context, q contentUC.ArticleQuery) ([]entity.Article, error)
	GetArticle(ctx context.Context, key string) (entity.Article, error)
	CountArticles(ctx context.Context, q contentUC.ArticleQuery) (int, error)
}

// Clock resolves the "today" alias in date path segments.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) today() entity.Period {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return entity.PeriodOf(now(), loc)
}

// Register mounts the content routes on mux.
func Register(mux *http.ServeMux, svc Reader, clock Clock) {
	mux.Handle("GET /writers", ListWritersHandler{svc})
	mux.Handle("GET /writers/random", RandomWriterHandler{svc})
	mux.Handle("GET /writers/{key}", GetWriterHandler{svc})

	mux.Handle("GET /horoscopes/{date}", HoroscopesHandler{Svc: svc, Clock: clock})
	mux.Handle("GET /horoscopes/{date}/{sign}", HoroscopeHandler{Svc: svc, Clock: clock})

	mux.Handle("GET /articles", ListArticlesHandler{Svc: svc, Clock: clock})
	mux.Handle("GET /articles/{key}", GetArticleHandler{svc})
	mux.Handle("GET /articles/{key}/image", ArticleImageHandler{svc})
}
