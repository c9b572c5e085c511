package util

import (
	"strings"
	"unicode"
)

// CleanLine trims s and drops control and invisible characters.
func CleanLine(s string) string {
	return clean(s, false)
}

// CleanText is CleanLine but keeps newlines and tabs.
func CleanText(s string) string {
	return clean(s, true)
}

// HasHiddenRunes reports whether s contains control or invisible
// characters, which would let two visually identical names coexist.
func HasHiddenRunes(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			return true
		}
	}
	return false
}

func clean(s string, multiline bool) string {
	trimmed := strings.TrimSpace(s)

	builder := strings.Builder{}
	builder.Grow(len(trimmed))

	for _, char := range trimmed {
		if multiline && (char == '\n' || char == '\t') {
			builder.WriteRune(char)
			continue
		}
		if char == '\r' && multiline {
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	return strings.TrimSpace(builder.String())
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
