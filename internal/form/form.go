// Package form models the caller-supplied target schema: a template of
// sections, field groups, and typed input fields to be auto-filled.
package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toladipo/docbrief/internal/common"
)

// Nil is the sentinel the extraction pipeline uses for "not found".
// It is translated to a null value plus a missing-fields entry before the
// response leaves the server; callers never see the sentinel itself.
const Nil = "Nil"

// Field is one fillable input.
type Field struct {
	InputName  string   `json:"inputName"`
	InputValue any      `json:"inputValue,omitempty"`
	DataType   string   `json:"dataType"`  // String, Date, Number, Array, Object
	FieldType  string   `json:"fieldType"` // presentation hint, passed through
	Options    []string `json:"options,omitempty"`
	HelperText []string `json:"helperText,omitempty"`
	Prompt     string   `json:"prompt,omitempty"`
}

// Group is a heading with its fields.
type Group struct {
	FieldsHeading string  `json:"fieldsHeading"`
	Fields        []Field `json:"fields"`
}

// Section is a named portion of the template.
type Section struct {
	SectionName string  `json:"sectionName"`
	InputFields []Group `json:"inputFields"`
}

// Template is the full target schema.
type Template struct {
	TemplateName string    `json:"templateName"`
	Sections     []Section `json:"sections"`
}

// Location addresses one field inside a template.
type Location struct {
	Section int
	Group   int
	Field   int
}

// FlatField is one field prepared for extraction: a stable name, the
// extraction prompt, the expected type, and where to write the value back.
type FlatField struct {
	Name     string
	Prompt   string
	DataType string
	Loc      Location
}

// Parse decodes and validates a template. An invalid template is a
// configuration error and fatal for the request.
func Parse(raw []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, common.NewAppError("SCHEMA_PARSE", "template is not valid JSON", err)
	}
	if len(t.Sections) == 0 {
		return nil, common.NewAppError("SCHEMA_PARSE", "template has no sections", common.ErrInvalidInput)
	}
	return &t, nil
}

// FlattenSection collects a section's fields in stable template order,
// synthesizing a prompt for fields that lack one and substituting the
// event name. The returned order is deterministic: retries over the same
// template always see the same grouping.
func (t *Template) FlattenSection(sectionIdx int, eventName string) []FlatField {
	section := t.Sections[sectionIdx]
	var flat []FlatField
	for gi, group := range section.InputFields {
		for fi, field := range group.Fields {
			name := field.InputName
			if name == "" {
				name = group.FieldsHeading
			}
			if name == "" {
				name = fmt.Sprintf("field_%d_%d", gi, fi)
			}

			prompt := field.Prompt
			if prompt == "" {
				if len(field.HelperText) > 0 {
					prompt = fmt.Sprintf("Extract information about '%s' for event '{event_name}': %s",
						name, strings.Join(field.HelperText, " "))
				} else {
					prompt = fmt.Sprintf("Extract information about '%s' for event '{event_name}'", name)
				}
			}
			prompt = strings.ReplaceAll(prompt, "{event_name}", eventName)

			flat = append(flat, FlatField{
				Name:     name,
				Prompt:   prompt,
				DataType: field.DataType,
				Loc:      Location{Section: sectionIdx, Group: gi, Field: fi},
			})
		}
	}
	return flat
}

// Assign writes an extracted value to a field, coercing it to the field's
// declared data type. The Nil sentinel clears the value.
func (t *Template) Assign(loc Location, value any) error {
	if loc.Section >= len(t.Sections) {
		return fmt.Errorf("assign: section %d out of range: %w", loc.Section, common.ErrInvalidInput)
	}
	section := &t.Sections[loc.Section]
	if loc.Group >= len(section.InputFields) {
		return fmt.Errorf("assign: group %d out of range: %w", loc.Group, common.ErrInvalidInput)
	}
	group := &section.InputFields[loc.Group]
	if loc.Field >= len(group.Fields) {
		return fmt.Errorf("assign: field %d out of range: %w", loc.Field, common.ErrInvalidInput)
	}
	field := &group.Fields[loc.Field]
	field.InputValue = coerce(field.DataType, value)
	return nil
}

// IsNil reports whether an extracted value is the missing sentinel.
func IsNil(value any) bool {
	s, ok := value.(string)
	return !ok && value == nil || ok && (s == "" || strings.EqualFold(s, Nil))
}

// coerce shapes a raw extracted value to the field's declared data type.
// Unparseable values degrade to the type's empty form rather than erroring;
// the orchestrator has already decided the value is present.
func coerce(dataType string, value any) any {
	if IsNil(value) {
		return nil
	}
	switch dataType {
	case "Array":
		switch v := value.(type) {
		case []any:
			return v
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out
		case string:
			if strings.Contains(v, ",") {
				parts := strings.Split(v, ",")
				out := make([]any, 0, len(parts))
				for _, p := range parts {
					if p = strings.TrimSpace(p); p != "" {
						out = append(out, p)
					}
				}
				return out
			}
			return []any{v}
		default:
			return []any{fmt.Sprintf("%v", v)}
		}
	case "Object":
		switch v := value.(type) {
		case map[string]any:
			return v
		case string:
			return parseContact(v)
		default:
			return map[string]any{"Name": fmt.Sprintf("%v", v), "Email": Nil}
		}
	default:
		// String, Date, Number: assign directly
		return value
	}
}

// parseContact splits "Name (email@example.com)" into its parts.
func parseContact(s string) map[string]any {
	open := strings.Index(s, "(")
	if open < 0 {
		return map[string]any{"Name": strings.TrimSpace(s), "Email": Nil}
	}
	name := strings.TrimSpace(s[:open])
	email := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s[open+1:]), ")"))
	if email == "" {
		email = Nil
	}
	return map[string]any{"Name": name, "Email": email}
}
