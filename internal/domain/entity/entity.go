// Package entity defines the core domain entities and validation logic for the application.
// It contains the persisted content kinds (Writer, Article, Horoscope), the calendar
// Period that generation is deduplicated on, the provider request/artifact contract,
// and the domain-specific errors shared by the repository and provider layers.
package entity

import (
	"fmt"
	"time"
)

// Kind names a persisted entity kind. Each kind has exactly one repository config.
type Kind string

const (
	KindWriter    Kind = "writer"
	KindArticle   Kind = "article"
	KindHoroscope Kind = "horoscope"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// periodLayout is the wire and storage format of a Period.
const periodLayout = "2006-01-02"

// Period is a UTC calendar date. Generation is deduplicated per Period.
// The zero value is not a valid period.
type Period struct {
	t time.Time
}

// NewPeriod returns the UTC calendar date containing t.
func NewPeriod(t time.Time) Period {
	u := t.UTC()
	return Period{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// PeriodOf returns the calendar date of t as observed in loc, expressed as a UTC Period.
// The scheduler uses it so a midnight firing in the configured timezone maps to that day.
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return Period{t: time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParsePeriod parses a YYYY-MM-DD date.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, &ValidationError{Field: "period", Message: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return Period{t: t}, nil
}

// String renders the period as YYYY-MM-DD.
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return p.t.Format(periodLayout)
}

// Time returns midnight UTC of the period.
func (p Period) Time() time.Time { return p.t }

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.t.IsZero() }

// Equal reports whether both periods name the same date.
func (p Period) Equal(o Period) bool { return p.t.Equal(o.t) }

// AddDays returns the period n days later (or earlier when n is negative).
func (p Period) AddDays(n int) Period { return Period{t: p.t.AddDate(0, 0, n)} }
