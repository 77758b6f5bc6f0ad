package entity

import (
	"regexp"
	"strings"
	"time"
)

// Article is a generated piece attributed to a Writer.
// (WriterKey, Period) is its natural key: one article per writer per day.
type Article struct {
	Key        string
	WriterKey  string
	Period     Period
	Title      string
	Slug       string
	Body       string
	Image      []byte
	ImageMIME  string
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks required article fields.
func (a *Article) Validate() error {
	if a.WriterKey == "" {
		return &ValidationError{Field: "writer_key", Message: "is required"}
	}
	if a.Period.IsZero() {
		return &ValidationError{Field: "period", Message: "is required"}
	}
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(a.Body) == "" {
		return &ValidationError{Field: "body", Message: "is required"}
	}
	return nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a lowercase, dash-separated URL slug.
func Slugify(title string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	return s
}
