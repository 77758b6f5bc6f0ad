package entity

import (
	"strings"
	"time"
)

// Writer is a persona that articles are attributed to.
// Style is fed to the text provider as the writing voice.
type Writer struct {
	Key        string
	Name       string
	Bio        string
	Style      string
	Attributes map[string]string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks required writer fields.
func (w *Writer) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}
