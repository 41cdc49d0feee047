// Package sanitize normalizes arbitrary Unicode text into the character
// subset the PDF renderer can draw. Every text value that reaches the
// renderer must pass through Sanitize first; the renderer itself trusts its
// input completely.
package sanitize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize maps text into the renderer-safe subset. It is a total function:
// empty input stays empty, and the transform is idempotent, so already-clean
// text passes through unchanged.
//
// Steps, in fixed order:
//  1. NFKC normalization
//  2. line-ending normalization, control and zero-width stripping
//  3. equivalence-table replacement; unmapped unsafe code points become
//     the placeholder glyph
//  4. whitespace collapse
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteByte('\n')
		case r == '\r':
			b.WriteByte('\n')
		case r == '\t':
			b.WriteByte(' ')
		case r < 0x20, r >= 0x7F && r < 0xA0:
			// remaining C0 and C1 controls, DEL
		default:
			if repl, ok := replacements[r]; ok {
				b.WriteString(repl)
				continue
			}
			if repl, ok := lookupRange(r); ok {
				b.WriteString(repl)
				continue
			}
			if safe(r) {
				b.WriteRune(r)
			} else {
				b.WriteString(Placeholder)
			}
		}
	}

	return collapseWhitespace(b.String())
}

// Safe reports whether every code point of s is in the renderer-safe subset.
func Safe(s string) bool {
	for _, r := range s {
		if !safe(r) {
			return false
		}
	}
	return true
}

// collapseWhitespace squeezes space runs introduced by replacement, trims
// spaces hugging line breaks, and caps consecutive blank lines at one.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
