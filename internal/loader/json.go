package loader

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// loadJSON turns each top-level key (or array element) into one segment,
// keeping the key path as the structural hint. Values are flattened into
// "Readable Key: value" lines so they retrieve and prompt well.
func loadJSON(data []byte) ([]Segment, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, nil
	}

	var segs []Segment
	add := func(hint, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		segs = append(segs, Segment{Ordinal: len(segs), Text: text, Hint: hint})
	}

	switch v := root.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, readableKey(k)+":\n"+flattenValue(v[k], "  "))
		}
	case []any:
		for i, item := range v {
			add(fmt.Sprintf("[%d]", i), flattenValue(item, ""))
		}
	default:
		add("", flattenValue(root, ""))
	}
	return segs, nil
}

// flattenValue renders a JSON value as indented readable text.
func flattenValue(v any, prefix string) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			switch child := t[k].(type) {
			case map[string]any, []any:
				lines = append(lines, prefix+readableKey(k)+":")
				lines = append(lines, flattenValue(child, prefix+"  "))
			default:
				lines = append(lines, prefix+readableKey(k)+": "+scalarString(child))
			}
		}
		return strings.Join(lines, "\n")
	case []any:
		if allScalars(t) {
			parts := make([]string, 0, len(t))
			for _, item := range t {
				parts = append(parts, scalarString(item))
			}
			return prefix + strings.Join(parts, ", ")
		}
		lines := make([]string, 0, len(t))
		for i, item := range t {
			lines = append(lines, fmt.Sprintf("%sItem %d:", prefix, i+1))
			lines = append(lines, flattenValue(item, prefix+"  "))
		}
		return strings.Join(lines, "\n")
	default:
		return prefix + scalarString(t)
	}
}

func allScalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// readableKey converts snake_case / kebab-case keys into title words.
func readableKey(k string) string {
	k = strings.ReplaceAll(k, "_", " ")
	k = strings.ReplaceAll(k, "-", " ")
	words := strings.Fields(k)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
