package content

import (
	"net/http"
	"strings"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/handler/http/respond"
)

// HoroscopesHandler serves GET /horoscopes/{date}. Signs that have not been
// generated yet are listed under "missing" rather than failing the request.
type HoroscopesHandler struct {
	Svc   Reader
	Clock Clock
}

func (h HoroscopesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	period, err := parseDate(r.PathValue("date"), h.Clock)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	list, err := h.Svc.HoroscopesFor(r.Context(), period)
	if err != nil {
		respond.Fail(w, err)
		return
	}

	have := make(map[entity.Sign]bool, len(list))
	out := HoroscopeListDTO{
		Date:       period.String(),
		Horoscopes: make([]HoroscopeDTO, 0, len(list)),
		Missing:    []string{},
	}
	for _, hs := range list {
		have[hs.Sign] = true
		out.Horoscopes = append(out.Horoscopes, horoscopeDTO(hs))
	}
	for _, sign := range entity.AllSigns() {
		if !have[sign] {
			out.Missing = append(out.Missing, string(sign))
		}
	}
	respond.JSON(w, http.StatusOK, out)
}

// HoroscopeHandler serves GET /horoscopes/{date}/{sign}.
type HoroscopeHandler struct {
	Svc   Reader
	Clock Clock
}

func (h HoroscopeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	period, err := parseDate(r.PathValue("date"), h.Clock)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	sign := entity.Sign(strings.ToLower(r.PathValue("sign")))

	hs, err := h.Svc.Horoscope(r.Context(), sign, period)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, horoscopeDTO(hs))
}
