package content

import (
	"time"

	"astrofeed/internal/domain/entity"
)

// WriterDTO is the JSON shape of a writer.
type WriterDTO struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Bio        string            `json:"bio"`
	Style      string            `json:"style,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Active     bool              `json:"active"`
	CreatedAt  time.Time         `json:"created_at"`
}

// HoroscopeDTO is the JSON shape of a horoscope.
type HoroscopeDTO struct {
	Key       string    `json:"key"`
	Sign      string    `json:"sign"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HoroscopeListDTO is the response of GET /horoscopes/{date}.
// Missing lists the signs with no reading for the date yet.
type HoroscopeListDTO struct {
	Date       string         `json:"date"`
	Horoscopes []HoroscopeDTO `json:"horoscopes"`
	Missing    []string       `json:"missing"`
}

// ArticleDTO is the JSON shape of an article. The image itself is served
// separately; ImageURL is empty when the article has none.
type ArticleDTO struct {
	Key        string            `json:"key"`
	WriterKey  string            `json:"writer_key"`
	Date       string            `json:"date"`
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Body       string            `json:"body"`
	ImageURL   string            `json:"image_url,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ArticleListDTO is the response of GET /articles.
type ArticleListDTO struct {
	Articles []ArticleDTO `json:"articles"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
}

func writerDTO(w entity.Writer) WriterDTO {
	return WriterDTO{
		Key:        w.Key,
		Name:       w.Name,
		Bio:        w.Bio,
		Style:      w.Style,
		Attributes: w.Attributes,
		Active:     w.Active,
		CreatedAt:  w.CreatedAt,
	}
}

func horoscopeDTO(h entity.Horoscope) HoroscopeDTO {
	return HoroscopeDTO{
		Key:       h.Key,
		Sign:      string(h.Sign),
		Date:      h.Period.String(),
		Text:      h.Text,
		CreatedAt: h.CreatedAt,
	}
}

func articleDTO(a entity.Article) ArticleDTO {
	out := ArticleDTO{
		Key:        a.Key,
		WriterKey:  a.WriterKey,
		Date:       a.Period.String(),
		Title:      a.Title,
		Slug:       a.Slug,
		Body:       a.Body,
		Attributes: a.Attributes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if len(a.Image) > 0 {
		out.ImageURL = "/articles/" + a.Key + "/image"
	}
	return out
}
