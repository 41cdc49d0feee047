package index

import (
	"fmt"

	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/loader"
)

// Chunker splits sanitized segments into fixed-size overlapping windows.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk windows each segment independently so a chunk never straddles a
// page or slide boundary. Chunk ids are derived from the document id and
// the window's offset, so re-indexing the same bytes produces the same ids.
func (c *Chunker) Chunk(docID string, segments []loader.Segment) []docstore.Chunk {
	var chunks []docstore.Chunk
	for _, seg := range segments {
		runes := []rune(seg.Text)
		if len(runes) == 0 {
			continue
		}
		step := c.size - c.overlap
		for start := 0; start < len(runes); start += step {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, docstore.Chunk{
				ID:    fmt.Sprintf("%s:%d:%d", docID, seg.Ordinal, start),
				DocID: docID,
				Text:  string(runes[start:end]),
				Hint:  seg.Hint,
			})
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}
