package sanitize

// TableVersion identifies the current revision of the equivalence table.
// Bump it whenever a new renderer-unsafe code point is mapped; every unsafe
// glyph found in the wild gets a table entry, never an ad-hoc patch.
const TableVersion = 4

// Placeholder stands in for any code point with no safe equivalent.
// It is never dropped silently, so surrounding content keeps its position.
const Placeholder = "?"

// replacements maps individual code points to their renderer-safe equivalent.
// An empty string means the code point is removed entirely (zero-width and
// directional marks only; they occupy no visual space).
var replacements = map[rune]string{
	// Latin-1 oddballs
	0x00A0: " ", // no-break space
	0x00AD: "",  // soft hyphen

	// Hyphens and dashes
	0x2010: "-", // hyphen
	0x2011: "-", // non-breaking hyphen
	0x2012: "-", // figure dash
	0x2013: "-", // en dash
	0x2014: "-", // em dash
	0x2015: "-", // horizontal bar
	0x2212: "-", // minus sign

	// Smart quotes and primes
	0x2018: "'",
	0x2019: "'",
	0x201A: "'",
	0x201B: "'",
	0x2032: "'",
	0x201C: `"`,
	0x201D: `"`,
	0x201E: `"`,
	0x201F: `"`,
	0x2033: `"`,
	0x2039: "<",
	0x203A: ">",

	// Bullets
	0x2022: "-", // bullet
	0x2023: "-", // triangular bullet
	0x2043: "-", // hyphen bullet
	0x25AA: "-", // black small square
	0x25CF: "-", // black circle
	0x25E6: "-", // white bullet

	// Other punctuation and symbols
	0x2026: "...", // ellipsis
	0x2044: "/",   // fraction slash (NFKC emits it for vulgar fractions)
	0x20AC: "EUR", // euro sign, outside Latin-1
	0x2122: "(TM)",
	0x2713: "x", // check mark
	0x2717: "x", // ballot x
	0x03BC: "u", // greek mu, NFKC output of the micro sign

	// Zero-width characters and directional marks
	0x200B: "",
	0x200C: "",
	0x200D: "",
	0x200E: "",
	0x200F: "",
	0x202A: "",
	0x202B: "",
	0x202C: "",
	0x202D: "",
	0x202E: "",
	0x2060: "",
	0x2066: "",
	0x2067: "",
	0x2068: "",
	0x2069: "",
	0xFEFF: "",
}

// rangeRepl rewrites a whole code-point range to one replacement.
type rangeRepl struct {
	lo, hi rune
	repl   string
}

// ranges is consulted after the exact map. Order matters: first match wins.
var ranges = []rangeRepl{
	{0x2000, 0x200A, " "}, // unicode space family
	{0x202F, 0x202F, " "}, // narrow no-break space
	{0x205F, 0x205F, " "}, // medium mathematical space
	{0x3000, 0x3000, " "}, // ideographic space
	{0xFE00, 0xFE0F, ""},  // variation selectors

	// Glyph families the renderer has no equivalents for.
	{0x2190, 0x21FF, Placeholder},   // arrows
	{0x2500, 0x257F, Placeholder},   // box drawing
	{0x2580, 0x259F, Placeholder},   // block elements
	{0x25A0, 0x25FF, Placeholder},   // geometric shapes not mapped above
	{0x2600, 0x27BF, Placeholder},   // misc symbols, dingbats
	{0x1F000, 0x1FAFF, Placeholder}, // emoji and pictographs
}

func lookupRange(r rune) (string, bool) {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return rr.repl, true
		}
	}
	return "", false
}

// safe reports whether a code point is in the renderer-safe subset:
// printable ASCII, newline, and Latin-1 0xA1..0xFF.
func safe(r rune) bool {
	if r == '\n' {
		return true
	}
	if r >= 0x20 && r <= 0x7E {
		return true
	}
	return r >= 0xA1 && r <= 0xFF
}
