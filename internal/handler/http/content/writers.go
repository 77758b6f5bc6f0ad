package content

import (
	"net/http"

	"astrofeed/internal/handler/http/respond"
)

// ListWritersHandler serves GET /writers.
type ListWritersHandler struct{ Svc Reader }

func (h ListWritersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writers, err := h.Svc.ListWriters(r.Context())
	if err != nil {
		respond.Fail(w, err)
		return
	}
	out := make([]WriterDTO, 0, len(writers))
	for _, wr := range writers {
		out = append(out, writerDTO(wr))
	}
	respond.JSON(w, http.StatusOK, out)
}

// RandomWriterHandler serves GET /writers/random: one active writer, chosen
// uniformly on every call.
type RandomWriterHandler struct{ Svc Reader }

func (h RandomWriterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wr, err := h.Svc.RandomWriter(r.Context())
	if err != nil {
		respond.Fail(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, writerDTO(wr))
}

// GetWriterHandler serves GET /writers/{key}.
type GetWriterHandler struct{ Svc Reader }

func (h GetWriterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wr, err := h.Svc.GetWriter(r.Context(), r.PathValue("key"))
	if err != nil {
		respond.Fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, writerDTO(wr))
}
