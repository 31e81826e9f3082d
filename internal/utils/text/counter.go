// Package text provides rune-aware helpers for length limits on extracted
// article text and notification payloads.
package text

import "unicode/utf8"

// CountRunes counts Unicode characters rather than bytes.
//
//	CountRunes("hello")     // 5
//	CountRunes("xin chào")  // 8
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// TruncateRunes returns at most max runes of text. It never splits a
// multi-byte character.
func TruncateRunes(text string, max int) string {
	if max <= 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == max {
			return text[:pos]
		}
		i++
	}
	return text
}
