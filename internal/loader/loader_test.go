package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toladipo/docbrief/constants"
	"github.com/toladipo/docbrief/internal/common"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

const slideXML = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func TestSniff(t *testing.T) {
	docx := buildZip(t, map[string]string{"word/document.xml": docxBody})
	pptx := buildZip(t, map[string]string{"ppt/slides/slide1.xml": "<p:sld/>"})

	cases := []struct {
		name string
		data []byte
		want constants.Format
	}{
		{"pdf", []byte("%PDF-1.7\n%stub"), constants.PDF},
		{"docx", docx, constants.DOCX},
		{"pptx", pptx, constants.PPTX},
		{"json object", []byte(`{"title": "x"}`), constants.JSON},
		{"json array", []byte(`  [1, 2]`), constants.JSON},
	}
	for _, tc := range cases {
		got, err := Sniff(tc.data)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestSniff_Unsupported(t *testing.T) {
	// extension lies; content decides
	exe := []byte("MZ\x90\x00\x03\x00\x00\x00binary payload")
	_, err := Sniff(exe)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	plainZip := buildZip(t, map[string]string{"notes.txt": "hello"})
	_, err = Sniff(plainZip)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	text := []byte("just some prose, not json")
	_, err = Sniff(text)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestSniff_Empty(t *testing.T) {
	_, err := Sniff(nil)
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
}

func TestLoad_DOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": docxBody})
	res, err := Load(data, "brief.docx")
	require.NoError(t, err)
	assert.Equal(t, constants.DOCX, res.Format)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, "First paragraph.", res.Segments[0].Text)
	assert.Equal(t, "paragraph:1", res.Segments[0].Hint)
	assert.Equal(t, "Second paragraph.", res.Segments[1].Text)
	assert.Equal(t, 1, res.Segments[1].Ordinal)
}

func TestLoad_PPTX_SlideOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":   "<p:presentation/>",
		"ppt/slides/slide10.xml": sprintfSlide("tenth slide"),
		"ppt/slides/slide2.xml":  sprintfSlide("second slide"),
		"ppt/slides/slide1.xml":  sprintfSlide("first slide"),
	})
	res, err := Load(data, "deck.pptx")
	require.NoError(t, err)
	assert.Equal(t, constants.PPTX, res.Format)
	require.Len(t, res.Segments, 3)
	assert.Equal(t, "first slide", res.Segments[0].Text)
	assert.Equal(t, "second slide", res.Segments[1].Text)
	assert.Equal(t, "tenth slide", res.Segments[2].Text)
	assert.Equal(t, "slide:10", res.Segments[2].Hint)
}

func TestLoad_JSON_TopLevelKeys(t *testing.T) {
	data := []byte(`{
		"event_details": {"name": "Cloud Expo", "country": "Spain"},
		"contacts": [{"name": "Linda", "email": "linda@example.com"}],
		"budget": 42000
	}`)
	res, err := Load(data, "brief.json")
	require.NoError(t, err)
	assert.Equal(t, constants.JSON, res.Format)
	require.Len(t, res.Segments, 3)

	// keys are sorted for deterministic ordering
	assert.Equal(t, "budget", res.Segments[0].Hint)
	assert.Contains(t, res.Segments[0].Text, "Budget:")
	assert.Contains(t, res.Segments[0].Text, "42000")

	assert.Equal(t, "contacts", res.Segments[1].Hint)
	assert.Contains(t, res.Segments[1].Text, "linda@example.com")

	assert.Equal(t, "event_details", res.Segments[2].Hint)
	assert.Contains(t, res.Segments[2].Text, "Name: Cloud Expo")
	assert.Contains(t, res.Segments[2].Text, "Country: Spain")
}

func TestLoad_EmptyDocx(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?><w:document xmlns:w="x"><w:body></w:body></w:document>`,
	})
	_, err := Load(data, "empty.docx")
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
}

func sprintfSlide(text string) string {
	return fmt.Sprintf(slideXML, text)
}
