package repository

import (
	"astrofeed/internal/domain/entity"
)

// Physical table names.
const (
	WritersTable    = "writers"
	ArticlesTable   = "articles"
	HoroscopesTable = "horoscopes"

	keyColumn = "id"
)

// WriterConfig maps entity.Writer to the writers table.
func WriterConfig() Config[entity.Writer] {
	return Config[entity.Writer]{
		Kind:     entity.KindWriter,
		Table:    WritersTable,
		KeyField: keyColumn,
		Columns:  []string{"name", "bio", "style", "attributes", "active"},
		KeyOf:    func(w entity.Writer) string { return w.Key },
		Serialize: func(w entity.Writer) (Record, error) {
			attrs, err := EncodeStringMap(w.Attributes)
			if err != nil {
				return nil, err
			}
			return Record{
				"name":       w.Name,
				"bio":        w.Bio,
				"style":      w.Style,
				"attributes": attrs,
				"active":     EncodeBool(w.Active),
			}, nil
		},
		Deserialize: func(r Record) (entity.Writer, error) {
			var (
				w   entity.Writer
				err error
			)
			if w.Key, err = r.String(keyColumn); err != nil {
				return w, err
			}
			if w.Name, err = r.String("name"); err != nil {
				return w, err
			}
			if w.Bio, err = r.String("bio"); err != nil {
				return w, err
			}
			if w.Style, err = r.String("style"); err != nil {
				return w, err
			}
			if w.Attributes, err = r.StringMap("attributes"); err != nil {
				return w, err
			}
			if w.Active, err = r.Bool("active"); err != nil {
				return w, err
			}
			if w.CreatedAt, err = r.Time(CreatedAtColumn); err != nil {
				return w, err
			}
			w.UpdatedAt, err = r.Time(UpdatedAtColumn)
			return w, err
		},
		Validate: func(w entity.Writer) error { return w.Validate() },
	}
}

// ArticleConfig maps entity.Article to the articles table.
// (writer_key, period) is the natural key.
func ArticleConfig() Config[entity.Article] {
	return Config[entity.Article]{
		Kind:       entity.KindArticle,
		Table:      ArticlesTable,
		KeyField:   keyColumn,
		NaturalKey: []string{"writer_key", "period"},
		Columns:    []string{"writer_key", "period", "title", "slug", "body", "image", "image_mime", "attributes"},
		KeyOf:      func(a entity.Article) string { return a.Key },
		Serialize: func(a entity.Article) (Record, error) {
			attrs, err := EncodeStringMap(a.Attributes)
			if err != nil {
				return nil, err
			}
			var image any
			if len(a.Image) > 0 {
				image = a.Image
			}
			return Record{
				"writer_key": a.WriterKey,
				"period":     a.Period.String(),
				"title":      a.Title,
				"slug":       a.Slug,
				"body":       a.Body,
				"image":      image,
				"image_mime": a.ImageMIME,
				"attributes": attrs,
			}, nil
		},
		Deserialize: func(r Record) (entity.Article, error) {
			var (
				a   entity.Article
				err error
			)
			if a.Key, err = r.String(keyColumn); err != nil {
				return a, err
			}
			if a.WriterKey, err = r.String("writer_key"); err != nil {
				return a, err
			}
			if a.Period, err = periodColumn(r); err != nil {
				return a, err
			}
			if a.Title, err = r.String("title"); err != nil {
				return a, err
			}
			if a.Slug, err = r.String("slug"); err != nil {
				return a, err
			}
			if a.Body, err = r.String("body"); err != nil {
				return a, err
			}
			if a.Image, err = r.Bytes("image"); err != nil {
				return a, err
			}
			if a.ImageMIME, err = r.String("image_mime"); err != nil {
				return a, err
			}
			if a.Attributes, err = r.StringMap("attributes"); err != nil {
				return a, err
			}
			if a.CreatedAt, err = r.Time(CreatedAtColumn); err != nil {
				return a, err
			}
			a.UpdatedAt, err = r.Time(UpdatedAtColumn)
			return a, err
		},
		Validate: func(a entity.Article) error { return a.Validate() },
	}
}

// HoroscopeConfig maps entity.Horoscope to the horoscopes table.
// (sign, period) is the natural key.
func HoroscopeConfig() Config[entity.Horoscope] {
	return Config[entity.Horoscope]{
		Kind:       entity.KindHoroscope,
		Table:      HoroscopesTable,
		KeyField:   keyColumn,
		NaturalKey: []string{"sign", "period"},
		Columns:    []string{"sign", "period", "text"},
		KeyOf:      func(h entity.Horoscope) string { return h.Key },
		Serialize: func(h entity.Horoscope) (Record, error) {
			return Record{
				"sign":   string(h.Sign),
				"period": h.Period.String(),
				"text":   h.Text,
			}, nil
		},
		Deserialize: func(r Record) (entity.Horoscope, error) {
			var (
				h   entity.Horoscope
				err error
			)
			if h.Key, err = r.String(keyColumn); err != nil {
				return h, err
			}
			sign, err := r.String("sign")
			if err != nil {
				return h, err
			}
			h.Sign = entity.Sign(sign)
			if h.Period, err = periodColumn(r); err != nil {
				return h, err
			}
			if h.Text, err = r.String("text"); err != nil {
				return h, err
			}
			if h.CreatedAt, err = r.Time(CreatedAtColumn); err != nil {
				return h, err
			}
			h.UpdatedAt, err = r.Time(UpdatedAtColumn)
			return h, err
		},
		Validate: func(h entity.Horoscope) error { return h.Validate() },
	}
}

func periodColumn(r Record) (entity.Period, error) {
	s, err := r.String("period")
	if err != nil || s == "" {
		return entity.Period{}, err
	}
	return entity.ParsePeriod(s)
}

// NewDefaultRegistry returns a frozen registry holding the writer, article and
// horoscope configs.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	Register(r, WriterConfig())
	Register(r, ArticleConfig())
	Register(r, HoroscopeConfig())
	r.Freeze()
	return r
}
