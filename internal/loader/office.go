package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// documentXML mirrors the paragraph/run structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// loadDOCX extracts one segment per non-empty paragraph, in document order.
func loadDOCX(data []byte) ([]Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	content, err := readZipFile(zr, "word/document.xml")
	if err != nil || content == nil {
		return nil, err
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, nil
	}

	var segs []Segment
	for i, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		segs = append(segs, Segment{
			Ordinal: len(segs),
			Text:    text,
			Hint:    fmt.Sprintf("paragraph:%d", i+1),
		})
	}
	return segs, nil
}

var slideFileRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slideText collects every a:t run in a slide. The drawing namespace nests
// runs arbitrarily deep, so a token walk is simpler than a fixed struct.
func slideText(content []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var parts []string
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				if s := string(t); strings.TrimSpace(s) != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// loadPPTX extracts one segment per slide, ordered by slide number.
func loadPPTX(data []byte) ([]Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideFileRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var segs []Segment
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := slideText(content)
		if text == "" {
			continue
		}
		segs = append(segs, Segment{
			Ordinal: len(segs),
			Text:    text,
			Hint:    fmt.Sprintf("slide:%d", s.num),
		})
	}
	return segs, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}
