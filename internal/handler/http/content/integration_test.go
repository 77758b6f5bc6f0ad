package content_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/handler/http/content"
	"astrofeed/internal/infra/adapter/persistence/sqlite"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/repository"
	contentUC "astrofeed/internal/usecase/content"
)

func TestReadAPI_AgainstSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := db.DefaultConfig()
	cfg.Path = db.MemoryPath
	h := db.NewHandle(cfg)
	t.Cleanup(func() { _ = h.Close() })

	pool, err := h.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(ctx, pool))
	require.NoError(t, db.Seed(ctx, pool))

	writers := sqlite.New(h, repository.WriterConfig())
	articles := sqlite.New(h, repository.ArticleConfig())
	horoscopes := sqlite.New(h, repository.HoroscopeConfig())
	svc := &contentUC.Service{Writers: writers, Articles: articles, Horoscopes: horoscopes}

	day := mustPeriod(t, "2026-10-17")
	_, err = horoscopes.Create(ctx, entity.Horoscope{Sign: entity.SignPisces, Period: day, Text: "Drift."})
	require.NoError(t, err)

	const rafael = "7f6c2a1e-4b3d-4c2a-9e1f-0d4e5f6a7b02"
	art, err := articles.Create(ctx, entity.Article{
		WriterKey: rafael, Period: day, Title: "Venus Takes the Evening",
		Slug: "venus-takes-the-evening", Body: "Calm seas.\n", Image: []byte{1, 2, 3}, ImageMIME: "image/png",
	})
	require.NoError(t, err)

	rr := serve(t, svc, "/writers")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]content.WriterDTO](t, rr), 4)

	rr = serve(t, svc, "/writers/"+rafael)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Rafael Quint", decode[content.WriterDTO](t, rr).Name)

	rr = serve(t, svc, "/horoscopes/2026-10-17/pisces")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Drift.", decode[content.HoroscopeDTO](t, rr).Text)

	rr = serve(t, svc, "/articles?writer="+rafael)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[content.ArticleListDTO](t, rr)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Articles, 1)
	assert.Equal(t, art.Key, list.Articles[0].Key)

	rr = serve(t, svc, "/articles/"+art.Key+"/image")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte{1, 2, 3}, rr.Body.Bytes())

	require.NoError(t, h.Close())
	rr = serve(t, svc, "/writers")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
