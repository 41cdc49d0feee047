package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_Empty(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
}

func TestSanitize_PlainASCIIUnchanged(t *testing.T) {
	in := "Project kickoff: budget 42,000 USD (approved)."
	assert.Equal(t, in, Sanitize(in))
}

func TestSanitize_SmartPunctuation(t *testing.T) {
	cases := map[string]string{
		"Café — 2024":       "Café - 2024",
		"“quoted”":          `"quoted"`,
		"it’s fine":         "it's fine",
		"a – b":             "a - b",
		"one… two":          "one... two",
		"• first\n• next":   "- first\n- next",
		"price 100":         "price 100",
		"€50":               "EUR50",
		"brand™":            "brand(TM)",
		"3⁄4 done":          "3/4 done",
		"zero​width​gone":   "zerowidthgone",
		"soft­hyphen":       "softhyphen",
		"crlf\r\nline\rend": "crlf\nline\nend",
		"tab\tseparated":    "tab separated",
		"½ cup":             "1/2 cup",
		"temperature 20°C":  "temperature 20°C",
		"5 µm":              "5 um",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestSanitize_PlaceholderForUnmapped(t *testing.T) {
	assert.Equal(t, "launch ? party", Sanitize("launch \U0001F680 party"))
	assert.Equal(t, "?? grid", Sanitize("─│ grid"))
	// placeholder substitution must not swallow neighbours
	assert.Equal(t, "a?b", Sanitize("a☃b"))
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain ascii",
		"Café — 2024",
		"“smart” ‘quotes’ … • bullets",
		"emoji \U0001F600 and box ╔═╗",
		"already sanitized - nothing to do",
		"white   space\n\n\n\ncollapse",
		"¼ + ½ = ¾",
		"mixed éèê latin-1 accents",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		require.Equal(t, once, twice, "not idempotent for %q", in)
	}
}

func TestSanitize_OutputAlwaysSafe(t *testing.T) {
	inputs := []string{
		"Café — 2024",
		"emoji soup \U0001F355\U0001F37A\U0001F389",
		"中文 text",
		"رحلة rtl ‮text‬",
		"controls \x00\x01\x1f here",
		"\ufeffBOM lead",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		assert.True(t, Safe(out), "unsafe output %q for input %q", out, in)
	}
}

func TestSanitize_TableReplacementsAreSafe(t *testing.T) {
	for r, repl := range replacements {
		assert.True(t, Safe(repl), "replacement for U+%04X is not renderer-safe", r)
	}
	for _, rr := range ranges {
		assert.True(t, Safe(rr.repl), "range replacement %q is not renderer-safe", rr.repl)
	}
}

func TestSanitize_WhitespaceCollapse(t *testing.T) {
	assert.Equal(t, "a b", Sanitize("a      b"))
	assert.Equal(t, "a\nb", Sanitize("a   \n   b"))
	assert.Equal(t, "a\n\nb", Sanitize("a\n\n\n\n\nb"))
	assert.Equal(t, "padded", Sanitize("   padded   "))
}
