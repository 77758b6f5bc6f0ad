package text

import "strings"

// CountRunes counts Unicode characters rather than bytes.
//
//	CountRunes("hello")   // 5
//	CountRunes("héllo")   // 5
//	CountRunes("")        // 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens text to at most max runes, cutting at the last space when
// one exists in the kept part. It never splits a multi-byte character.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	kept := string(runes[:max])
	if i := strings.LastIndexByte(kept, ' '); i > 0 {
		kept = kept[:i]
	}
	return strings.TrimSpace(kept)
}
