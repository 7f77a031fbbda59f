// Package api exposes the question paper pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/extract"
	"github.com/p-n-ai/pai-papers/internal/paper"
	"github.com/p-n-ai/pai-papers/internal/pipeline"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
	"github.com/p-n-ai/pai-papers/internal/render"
	"github.com/p-n-ai/pai-papers/internal/session"
)

// SessionHeader carries the caller's session id. A new id is issued and
// echoed when the header is missing.
const SessionHeader = "X-Session-ID"

const (
	maxJSONBytes       = 1 << 20
	multipartMemory    = 8 << 20
	defaultUploadBytes = 16 << 20
)

var documentTypes = map[string]bool{
	"":              true,
	"syllabus":      true,
	"lecture_notes": true,
	"general":       true,
}

type sessionKey struct{}

// Handler serves the pipeline endpoints.
type Handler struct {
	svc            *pipeline.Service
	maxUploadBytes int64
	constraints    *gojsonschema.Schema
}

// New creates a handler. A non-positive maxUploadBytes uses 16 MiB.
func New(svc *pipeline.Service, maxUploadBytes int64) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is nil")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultUploadBytes
	}
	schema, err := compileConstraintsSchema()
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, constraints: schema}, nil
}

// Register adds the pipeline routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /documents", h.session(h.handleUpload))
	mux.Handle("GET /questions", h.session(h.handleQuestions))
	mux.Handle("DELETE /questions/{id}", h.session(h.handleDeleteQuestion))
	mux.Handle("GET /stats", h.session(h.handleStats))
	mux.Handle("POST /papers", h.session(h.handleGenerate))
	mux.Handle("GET /papers/current", h.session(h.handleCurrent))
	mux.Handle("POST /papers/current/questions/{id}/replace", h.session(h.handleReplace))
	mux.Handle("DELETE /papers/current/questions/{id}", h.session(h.handleRemove))
	mux.Handle("GET /papers/current/validation", h.session(h.handleValidation))
	mux.Handle("GET /papers/current/export", h.session(h.handleExport))
	mux.Handle("POST /reset", h.session(h.handleReset))
	mux.HandleFunc("GET /bloom/levels", h.handleBloomLevels)
}

// session resolves the caller's session id and echoes it on the response.
func (h *Handler) session(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}

	docType := r.FormValue("document_type")
	if !documentTypes[docType] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown document_type %q", docType))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	result, err := h.svc.Ingest(r.Context(), pipeline.IngestRequest{
		SessionID:    sessionID(r),
		Filename:     filepath.Base(header.Filename),
		DocumentType: docType,
		Data:         data,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := questionbank.Filter{Unit: q.Get("unit")}

	if v := q.Get("bloom_level"); v != "" {
		level, err := bloom.ParseLevel(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.BloomLevel = level
	}
	if v := q.Get("difficulty"); v != "" {
		d, err := bloom.ParseDifficulty(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Difficulty = d
	}
	if v := q.Get("marks"); v != "" {
		marks, err := strconv.Atoi(v)
		if err != nil || marks <= 0 {
			writeError(w, http.StatusBadRequest, "marks must be a positive integer")
			return
		}
		filter.Marks = marks
	}

	questions, err := h.svc.Questions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if questions == nil {
		questions = []questionbank.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"count":     len(questions),
	})
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	problems, err := validateBody(h.constraints, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid constraints",
			"details": problems,
		})
		return
	}

	var c paper.Constraints
	if err := json.Unmarshal(body, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.GeneratePaper(r.Context(), sessionID(r), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.CurrentPaper(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paperView(p))
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, replacement, err := h.svc.ReplaceQuestion(r.Context(), sessionID(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paper":       paperView(p),
		"replacement": replacement,
	})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.RemoveQuestion(r.Context(), sessionID(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paperView(p))
}

func (h *Handler) handleValidation(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.ValidatePaper(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(render.FormatPDF)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := h.svc.Export(r.Context(), sessionID(r), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type levelInfo struct {
	Level            bloom.Level `json:"level"`
	Description      string      `json:"description"`
	Keywords         []string    `json:"keywords"`
	SuggestedPercent float64     `json:"suggested_percent"`
}

// handleBloomLevels lists the taxonomy with a suggested percentage split for
// a paper of total_marks (default 100).
func (h *Handler) handleBloomLevels(w http.ResponseWriter, r *http.Request) {
	total := 100
	if v := r.URL.Query().Get("total_marks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "total_marks must be a positive integer")
			return
		}
		total = n
	}

	suggested := bloom.SuggestDistribution(total)
	out := make([]levelInfo, 0, len(bloom.Levels()))
	for _, l := range bloom.Levels() {
		out = append(out, levelInfo{
			Level:            l,
			Description:      bloom.Describe(l),
			Keywords:         bloom.Keywords(l),
			SuggestedPercent: suggested[l],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_marks": total,
		"levels":      out,
	})
}

func paperView(p *session.Paper) map[string]any {
	return map[string]any{
		"questions":    p.Questions,
		"constraints":  p.Constraints,
		"strategy":     p.Strategy,
		"total_marks":  paper.TotalMarks(p.Questions),
		"generated_at": p.GeneratedAt,
		"updated_at":   p.UpdatedAt,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "question id must be a positive integer")
		return 0, false
	}
	return id, true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrExtraction), errors.Is(err, paper.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, paper.ErrEmptyPool), errors.Is(err, paper.ErrNoAlternative):
		return http.StatusConflict
	case errors.Is(err, paper.ErrNotFound),
		errors.Is(err, questionbank.ErrNotFound),
		errors.Is(err, session.ErrNoPaper):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response failed", "error", err)
	}
}
