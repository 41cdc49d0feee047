package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/toladipo/docbrief/internal/common"
)

// loadPDF extracts one segment per page. Pages with no extractable text
// (scanned images, broken encodings) are skipped rather than failing the
// whole document.
func loadPDF(data []byte) ([]Segment, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", common.ErrEmptyDocument)
	}

	var segs []Segment
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segs = append(segs, Segment{
			Ordinal: len(segs),
			Text:    text,
			Hint:    fmt.Sprintf("page:%d", i),
		})
	}
	return segs, nil
}
