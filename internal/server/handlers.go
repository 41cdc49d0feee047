package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/toladipo/docbrief/constants"
	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/extract"
	"github.com/toladipo/docbrief/internal/form"
)

type documentSummary struct {
	DocID    string `json:"doc_id"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Chunks   int    `json:"chunks"`
	Skipped  bool   `json:"skipped"`
}

type skippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type autoFillResponse struct {
	EventName    string                 `json:"event_name"`
	Data         *form.Template         `json:"data"`
	Missing      []extract.MissingField `json:"missing"`
	Stats        extract.Stats          `json:"stats"`
	Documents    []documentSummary      `json:"documents"`
	SkippedFiles []skippedFile          `json:"skipped_files,omitempty"`
}

// handleAutoFill ingests the uploaded documents and fills the supplied
// template from them. Bad files are reported, not fatal: the run proceeds
// with whatever ingested cleanly.
func (s *Server) handleAutoFill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, r, s.logger, common.WrapError(common.ErrInvalidInput, "parsing multipart form", err))
		return
	}

	eventName := r.FormValue("event_name")

	rawSchema, err := s.readSchema(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	tmpl, err := form.Parse(rawSchema)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(w, r, s.logger, common.NewAppError("NO_FILES", "at least one document is required", common.ErrInvalidInput))
		return
	}

	var (
		docs        []documentSummary
		skipped     []skippedFile
		docIDs      []string
		jsonContext string
	)
	for _, fh := range uploads {
		data, err := readUpload(func() (io.ReadCloser, error) { return fh.Open() })
		if err != nil {
			skipped = append(skipped, skippedFile{Filename: fh.Filename, Reason: "read"})
			continue
		}
		res, err := s.ingestor.IngestBytes(r.Context(), fh.Filename, data)
		if err != nil {
			skipped = append(skipped, skippedFile{Filename: fh.Filename, Reason: ingestReason(err)})
			continue
		}
		docs = append(docs, documentSummary{
			DocID:    res.DocID,
			Filename: res.Filename,
			Format:   string(res.Format),
			Chunks:   res.Chunks,
			Skipped:  res.Skipped,
		})
		docIDs = append(docIDs, res.DocID)
		if res.Format == constants.JSON {
			// A structured upload carries the answers directly; hand its full
			// text to the model instead of retrieved excerpts.
			if jsonContext != "" {
				jsonContext += "\n\n"
			}
			jsonContext += res.Text
		}
	}
	if len(docs) == 0 {
		writeError(w, r, s.logger, common.NewAppError("NO_USABLE_FILES", "no uploaded document could be ingested", common.ErrUnsupportedFormat))
		return
	}

	result, err := s.filler.Run(r.Context(), tmpl, eventName, docIDs, jsonContext)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, autoFillResponse{
		EventName:    eventName,
		Data:         result.Template,
		Missing:      missingOrEmpty(result.Missing),
		Stats:        result.Stats,
		Documents:    docs,
		SkippedFiles: skipped,
	})
}

type renderRequest struct {
	EventName string         `json:"event_name"`
	Data      *form.Template `json:"data"`
}

func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRenderRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	out, err := s.renderer.Render(req.Data, req.EventName)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	sendAttachment(w, out, "application/pdf", attachmentName(req.Data.TemplateName, "pdf"))
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRenderRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	out, err := s.exporter.ExportXLSX(req.Data, req.EventName)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	sendAttachment(w, out,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		attachmentName(req.Data.TemplateName, "xlsx"))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	type row struct {
		DocID      string    `json:"doc_id"`
		Filename   string    `json:"filename"`
		Format     string    `json:"format"`
		FileSize   int       `json:"file_size"`
		ChunkCount int       `json:"chunk_count"`
		IndexedAt  time.Time `json:"indexed_at"`
	}
	rows := make([]row, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, row{
			DocID:      d.ID,
			Filename:   d.Filename,
			Format:     d.Format,
			FileSize:   d.FileSize,
			ChunkCount: d.ChunkCount,
			IndexedAt:  d.IndexedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": rows})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readSchema accepts the template either as an uploaded file part or as a
// plain form value, both named "schema".
func (s *Server) readSchema(r *http.Request) ([]byte, error) {
	if files := r.MultipartForm.File["schema"]; len(files) > 0 {
		return readUpload(func() (io.ReadCloser, error) { return files[0].Open() })
	}
	if v := r.FormValue("schema"); v != "" {
		return []byte(v), nil
	}
	return nil, common.NewAppError("NO_SCHEMA", "missing 'schema' part", common.ErrInvalidInput)
}

func decodeRenderRequest(r *http.Request) (*renderRequest, error) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, common.WrapError(common.ErrInvalidInput, "decoding request body", err)
	}
	if req.Data == nil || len(req.Data.Sections) == 0 {
		return nil, common.NewAppError("NO_TEMPLATE", "missing 'data' template", common.ErrInvalidInput)
	}
	return &req, nil
}

func readUpload(open func() (io.ReadCloser, error)) ([]byte, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func ingestReason(err error) string {
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		return "format"
	case errors.Is(err, common.ErrEmptyDocument):
		return "empty"
	case errors.Is(err, common.ErrIndexingFailed):
		return "indexing"
	default:
		return "ingest"
	}
}

func missingOrEmpty(missing []extract.MissingField) []extract.MissingField {
	if missing == nil {
		return []extract.MissingField{}
	}
	return missing
}

func sendAttachment(w http.ResponseWriter, body []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func attachmentName(templateName, ext string) string {
	name := strings.TrimSpace(templateName)
	if name == "" {
		name = "brief"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if name == "" {
		name = "brief"
	}
	return name + "." + ext
}
