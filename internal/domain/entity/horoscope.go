package entity

import (
	"strings"
	"time"
)

// Sign is one of the twelve zodiac signs.
type Sign string

const (
	SignAries       Sign = "aries"
	SignTaurus      Sign = "taurus"
	SignGemini      Sign = "gemini"
	SignCancer      Sign = "cancer"
	SignLeo         Sign = "leo"
	SignVirgo       Sign = "virgo"
	SignLibra       Sign = "libra"
	SignScorpio     Sign = "scorpio"
	SignSagittarius Sign = "sagittarius"
	SignCapricorn   Sign = "capricorn"
	SignAquarius    Sign = "aquarius"
	SignPisces      Sign = "pisces"
)

// allSigns keeps the canonical zodiac order.
var allSigns = []Sign{
	SignAries, SignTaurus, SignGemini, SignCancer, SignLeo, SignVirgo,
	SignLibra, SignScorpio, SignSagittarius, SignCapricorn, SignAquarius, SignPisces,
}

// AllSigns returns the twelve signs in zodiac order. The returned slice is a copy.
func AllSigns() []Sign {
	out := make([]Sign, len(allSigns))
	copy(out, allSigns)
	return out
}

// IsValid reports whether s is one of the twelve signs.
func (s Sign) IsValid() bool {
	for _, v := range allSigns {
		if s == v {
			return true
		}
	}
	return false
}

// Title returns the capitalized sign name, used in prompts.
func (s Sign) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Horoscope is one sign's reading for one period.
// (Sign, Period) is its natural key: at most one Horoscope exists per pair.
type Horoscope struct {
	Key       string
	Sign      Sign
	Period    Period
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields the datastore cannot check itself.
func (h *Horoscope) Validate() error {
	if !h.Sign.IsValid() {
		return &ValidationError{Field: "sign", Message: "must be one of the twelve zodiac signs"}
	}
	if h.Period.IsZero() {
		return &ValidationError{Field: "period", Message: "is required"}
	}
	if strings.TrimSpace(h.Text) == "" {
		return &ValidationError{Field: "text", Message: "is required"}
	}
	return nil
}
