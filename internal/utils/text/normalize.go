// Package text holds the pure text helpers used on generated content:
// paragraph normalization and rune-aware counting.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	lineBreakTag  = regexp.MustCompile(`(?i)<br\s*/?>`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// sentenceEnd holds the runes that close a sentence, closing quotes included.
const sentenceEnd = ".!?…:\"'”’)"

// NormalizeParagraphs formats generated text into blank-line separated paragraphs.
//
// Line endings are unified to \n and <br> tags become paragraph breaks. A single
// newline between a line ending a sentence (or ending in a lowercase letter) and
// a line starting with a capital letter becomes a paragraph break. Runs of three
// or more newlines collapse to two, trailing spaces on each line are dropped and
// the result is trimmed.
//
// It is idempotent: NormalizeParagraphs(NormalizeParagraphs(s)) == NormalizeParagraphs(s).
//
//	NormalizeParagraphs("Sentence one.\nSentence two.") // "Sentence one.\n\nSentence two."
//	NormalizeParagraphs("A\n\n\n\nB")                  // "A\n\nB"
func NormalizeParagraphs(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = lineBreakTag.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}

	var b strings.Builder
	b.Grow(len(s) + len(lines))
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
			if prev := lines[i-1]; prev != "" && line != "" && endsSentence(prev) && startsCapital(line) {
				b.WriteByte('\n')
			}
		}
		b.WriteString(line)
	}

	out := extraNewlines.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

// Document normalizes s and terminates multi-paragraph results with a newline.
// Single-paragraph text is returned without one.
func Document(s string) string {
	n := NormalizeParagraphs(s)
	if strings.Contains(n, "\n\n") {
		return n + "\n"
	}
	return n
}

// Paragraphs splits normalized text into its paragraphs.
func Paragraphs(s string) []string {
	n := NormalizeParagraphs(s)
	if n == "" {
		return nil
	}
	return strings.Split(n, "\n\n")
}

func endsSentence(line string) bool {
	r, _ := utf8.DecodeLastRuneInString(line)
	return strings.ContainsRune(sentenceEnd, r) || unicode.IsLower(r)
}

func startsCapital(line string) bool {
	trimmed := strings.TrimLeft(strings.TrimLeftFunc(line, unicode.IsSpace), "\"'“‘(")
	r, _ := utf8.DecodeRuneInString(trimmed)
	return unicode.IsUpper(r)
}
