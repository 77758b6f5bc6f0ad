package content

import (
	"net/http"
	"strconv"

	"astrofeed/internal/handler/http/respond"
	contentUC "astrofeed/internal/usecase/content"
)

// ListArticlesHandler serves GET /articles?writer=&date=&limit=, newest first.
type ListArticlesHandler struct {
	Svc   Reader
	Clock Clock
}

func (h ListArticlesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	query := contentUC.ArticleQuery{WriterKey: q.Get("writer"), Limit: limit}
	if d := q.Get("date"); d != "" {
		if query.Period, err = parseDate(d, h.Clock); err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
	}

	articles, err := h.Svc.ListArticles(r.Context(), query)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	total, err := h.Svc.CountArticles(r.Context(), query)
	if err != nil {
		respond.Fail(w, err)
		return
	}

	out := ArticleListDTO{
		Articles: make([]ArticleDTO, 0, len(articles)),
		Total:    total,
		Limit:    effectiveLimit(limit),
	}
	for _, a := range articles {
		out.Articles = append(out.Articles, articleDTO(a))
	}
	respond.JSON(w, http.StatusOK, out)
}

// GetArticleHandler serves GET /articles/{key}.
type GetArticleHandler struct{ Svc Reader }

func (h GetArticleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a, err := h.Svc.GetArticle(r.Context(), r.PathValue("key"))
	if err != nil {
		respond.Fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, articleDTO(a))
}

// ArticleImageHandler serves GET /articles/{key}/image with the stored bytes.
type ArticleImageHandler struct{ Svc Reader }

func (h ArticleImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a, err := h.Svc.GetArticle(r.Context(), r.PathValue("key"))
	if err != nil {
		respond.Fail(w, err)
		return
	}
	if len(a.Image) == 0 {
		respond.JSON(w, http.StatusNotFound, map[string]string{"error": "article has no image"})
		return
	}

	mime := a.ImageMIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Image)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Image)
}
