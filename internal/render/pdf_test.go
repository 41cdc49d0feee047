package render

import (
	"bytes"
	"compress/zlib"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toladipo/docbrief/internal/form"
)

func filledTemplate() *form.Template {
	return &form.Template{
		TemplateName: "Event Brief",
		Sections: []form.Section{{
			SectionName: "Overview",
			InputFields: []form.Group{{
				FieldsHeading: "Basics",
				Fields: []form.Field{
					{InputName: "Event Name", DataType: "String", InputValue: "Summit 2026"},
					{InputName: "Speakers", DataType: "Array", InputValue: []any{"Ada", "Grace"}},
					{InputName: "Organizer", DataType: "Object", InputValue: map[string]any{"Name": "Jane", "Email": "jane@example.com"}},
					{InputName: "Venue", DataType: "String", InputValue: nil},
				},
			}},
		}},
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	r := NewRenderer(slog.Default())

	out, err := r.Render(filledTemplate(), "Summit 2026")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestRender_SmartPunctuationInHeadings(t *testing.T) {
	tmpl := filledTemplate()
	tmpl.TemplateName = "Café Brief — 2026"
	tmpl.Sections[0].InputFields[0].Fields[0].InputValue = "“Quoted” value • emoji \U0001F680"

	r := NewRenderer(slog.Default())
	out, err := r.Render(tmpl, "")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// contentStreams inflates every FlateDecode stream in the document and
// concatenates the results, so tests can look at the bytes the page
// actually draws.
func contentStreams(t *testing.T, doc []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	rest := doc
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream"):]
		rest = bytes.TrimPrefix(rest, []byte("\r\n"))
		rest = bytes.TrimPrefix(rest, []byte("\n"))
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			break
		}
		if zr, err := zlib.NewReader(bytes.NewReader(rest[:end])); err == nil {
			if data, err := io.ReadAll(zr); err == nil {
				out.Write(data)
			}
			_ = zr.Close()
		}
		rest = rest[end:]
	}
	return out.Bytes()
}

func TestRender_EncodesLatin1Glyphs(t *testing.T) {
	tmpl := filledTemplate()
	tmpl.Sections[0].InputFields[0].Fields[0].InputValue = "Café - 2024"

	r := NewRenderer(slog.Default())
	out, err := r.Render(tmpl, "")
	require.NoError(t, err)

	streams := contentStreams(t, out)
	require.NotEmpty(t, streams)
	// Core Helvetica reads cp1252, so é must land on the page as 0xE9 and
	// never as the raw UTF-8 pair 0xC3 0xA9 (which draws as "Ã©").
	assert.True(t, bytes.Contains(streams, []byte("Caf\xe9 - 2024")), "expected cp1252 text in content stream")
	assert.False(t, bytes.Contains(streams, []byte("Caf\xc3\xa9")), "raw UTF-8 must not reach the page")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "", FormatValue("Nil"))
	assert.Equal(t, "plain", FormatValue("plain"))
	assert.Equal(t, "a, b", FormatValue([]any{"a", "b"}))
	assert.Equal(t, "a", FormatValue([]any{"a", "Nil"}))
	assert.Equal(t, "Jane (jane@example.com)", FormatValue(map[string]any{"Name": "Jane", "Email": "jane@example.com"}))
	assert.Equal(t, "Jane", FormatValue(map[string]any{"Name": "Jane", "Email": "Nil"}))
	assert.Equal(t, "3", FormatValue(3))
}
