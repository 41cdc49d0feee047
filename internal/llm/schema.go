package llm

import "github.com/toladipo/docbrief/internal/form"

// BuildBatchJSONSchema returns a JSON-Schema (draft 2020-12 subset) for one
// extraction batch as a generic map. Every field is a string property: the
// model answers in plain text (or the Nil sentinel) and typed coercion
// happens afterwards, so Array and Object fields are still strings here.
func BuildBatchJSONSchema(fields []form.FlatField) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = map[string]any{"type": "string"}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
