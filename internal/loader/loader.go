// Package loader converts raw document bytes into ordered text segments.
// The format is decided by content sniffing; the filename extension is a
// hint only and is never trusted.
package loader

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toladipo/docbrief/constants"
	"github.com/toladipo/docbrief/internal/common"
)

// Segment is one ordered unit of extracted text with provenance: a page for
// PDF, a paragraph for DOCX, a slide for PPTX, a top-level key for JSON.
// Segments are never mutated after creation.
type Segment struct {
	Ordinal int
	Text    string
	Hint    string
}

// Result carries the loaded segments plus the sniffed format.
type Result struct {
	Format   constants.Format
	Segments []Segment
}

// Load sniffs the format of data and extracts its segments in document
// order. It performs no disk or network writes.
//
// Errors: common.ErrUnsupportedFormat when the sniffed type is outside
// {pdf, docx, pptx, json}; common.ErrEmptyDocument when the file parses but
// yields no text (recoverable, callers may treat it as zero segments).
func Load(data []byte, nameHint string) (Result, error) {
	format, err := Sniff(data)
	if err != nil {
		return Result{}, err
	}

	var segs []Segment
	switch format {
	case constants.PDF:
		segs, err = loadPDF(data)
	case constants.DOCX:
		segs, err = loadDOCX(data)
	case constants.PPTX:
		segs, err = loadPPTX(data)
	case constants.JSON:
		segs, err = loadJSON(data)
	}
	if err != nil {
		return Result{Format: format}, err
	}
	if len(segs) == 0 {
		return Result{Format: format}, fmt.Errorf("%s: %w", nameHint, common.ErrEmptyDocument)
	}
	return Result{Format: format, Segments: segs}, nil
}

// Sniff decides the document format from its leading bytes.
func Sniff(data []byte) (constants.Format, error) {
	if len(data) == 0 {
		return constants.UNKNOWN, common.ErrEmptyDocument
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return constants.PDF, nil
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return sniffZip(data)
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 &&
		(trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(data) {
		return constants.JSON, nil
	}
	return constants.UNKNOWN, common.ErrUnsupportedFormat
}

// sniffZip distinguishes the OOXML container types. A zip that is neither a
// word nor a powerpoint package is unsupported, whatever its extension says.
func sniffZip(data []byte) (constants.Format, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return constants.UNKNOWN, fmt.Errorf("%w: truncated zip container", common.ErrEmptyDocument)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return constants.DOCX, nil
		}
		if strings.HasPrefix(f.Name, "ppt/slides/") || f.Name == "ppt/presentation.xml" {
			return constants.PPTX, nil
		}
	}
	return constants.UNKNOWN, common.ErrUnsupportedFormat
}
