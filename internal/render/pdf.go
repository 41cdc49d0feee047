// Package render turns a filled template into a printable PDF brief.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/form"
	"github.com/toladipo/docbrief/internal/sanitize"
)

// Renderer lays out a template section by section with the core Helvetica
// fonts. Field values have already been through sanitization, so every rune
// is representable in the built-in cp1252 encoding; the translator maps the
// UTF-8 strings to that encoding before they reach the page.
type Renderer struct {
	logger *slog.Logger
}

// translator maps a UTF-8 string to the cp1252 bytes the core fonts expect.
type translator func(string) string

func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render produces the PDF bytes for a filled template.
func (r *Renderer) Render(tmpl *form.Template, eventName string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := translator(pdf.UnicodeTranslatorFromDescriptor(""))
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	title := tmpl.TemplateName
	if title == "" {
		title = "Document Brief"
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, safeText(tr, title), "", "L", false)
	if eventName != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 6, safeText(tr, eventName), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	for si := range tmpl.Sections {
		r.renderSection(pdf, tr, &tmpl.Sections[si])
	}

	if pdf.Error() != nil {
		r.logger.Error("render.failed", "template", tmpl.TemplateName, "error", pdf.Error())
		return nil, common.WrapError(common.ErrRenderFailed, "laying out "+tmpl.TemplateName, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.logger.Error("render.output_failed", "template", tmpl.TemplateName, "error", err)
		return nil, common.WrapError(common.ErrRenderFailed, "writing pdf", err)
	}

	r.logger.Info("render.done", "template", tmpl.TemplateName, "bytes", buf.Len(), "pages", pdf.PageCount())
	return buf.Bytes(), nil
}

func (r *Renderer) renderSection(pdf *fpdf.Fpdf, tr translator, section *form.Section) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, safeText(tr, section.SectionName), "", 1, "L", true, 0, "")
	pdf.Ln(2)

	for gi := range section.InputFields {
		group := &section.InputFields[gi]
		if group.FieldsHeading != "" && group.FieldsHeading != section.SectionName {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 6, safeText(tr, group.FieldsHeading), "", 1, "L", false, 0, "")
		}
		for fi := range group.Fields {
			renderField(pdf, tr, &group.Fields[fi])
		}
		pdf.Ln(2)
	}
}

func renderField(pdf *fpdf.Fpdf, tr translator, field *form.Field) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 5.5, safeText(tr, field.InputName), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	value := FormatValue(field.InputValue)
	if value == "" {
		pdf.SetTextColor(150, 150, 150)
		pdf.MultiCell(0, 5.5, "-", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		return
	}
	pdf.MultiCell(0, 5.5, safeText(tr, value), "", "L", false)
}

// FormatValue flattens a coerced field value for display: arrays join with
// commas, contacts render as "Name (email)", nil renders empty.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if form.IsNil(v) {
			return ""
		}
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := FormatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		name := FormatValue(v["Name"])
		email := FormatValue(v["Email"])
		if name == "" {
			return email
		}
		if email == "" {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, email)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// safeText sanitizes and re-encodes a string for the core fonts. Sanitizing
// here is a backstop: values normally arrive sanitized, but template names
// and headings come straight from the caller's schema. The translation to
// cp1252 is mandatory either way, since fpdf takes the bytes as-is.
func safeText(tr translator, s string) string {
	return tr(sanitize.Sanitize(s))
}
