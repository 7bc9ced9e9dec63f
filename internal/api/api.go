// Package api exposes the analysis pipeline over a REST interface.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smartsdlc/sdlc/internal/archive"
	"github.com/smartsdlc/sdlc/internal/models"
	"github.com/smartsdlc/sdlc/internal/report"
	"github.com/smartsdlc/sdlc/internal/store"
)

// Pipeline runs one analysis request end to end.
type Pipeline interface {
	Run(ctx context.Context, op models.Operation, artifact models.SourceArtifact) *models.Report
}

// Server provides the REST API handlers.
type Server struct {
	engine      Pipeline
	store       store.Store
	renderer    *report.Renderer
	maxFileSize int64
}

// NewServer creates a new API server.
// The store may be nil when history persistence is disabled.
func NewServer(engine Pipeline, st store.Store, maxFileSize int64) *Server {
	return &Server{
		engine:      engine,
		store:       st,
		renderer:    report.NewRenderer(),
		maxFileSize: maxFileSize,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyses", s.createAnalysis)
	mux.HandleFunc("GET /api/v1/analyses", s.listAnalyses)
	mux.HandleFunc("GET /api/v1/analyses/{id}", s.getAnalysis)
	mux.HandleFunc("DELETE /api/v1/analyses", s.deleteAnalyses)

	mux.HandleFunc("GET /api/v1/operations", s.listOperations)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Analyses ---

// analyzeRequest is the JSON body for POST /api/v1/analyses. Plain source
// goes in "content"; ZIP uploads go base64-encoded in "content_base64".
type analyzeRequest struct {
	Operation     string `json:"operation"`
	FileName      string `json:"file_name"`
	Content       string `json:"content"`
	ContentBase64 string `json:"content_base64"`
}

// archiveResponse is returned for ZIP uploads: one report per contained
// file, plus the rendered project report for the report operation.
type archiveResponse struct {
	Reports  []*models.Report `json:"reports"`
	Rendered string           `json:"rendered,omitempty"`
}

func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	// Allow headroom for JSON framing and base64 expansion over the raw
	// file size limit.
	if s.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize*2+4096)
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	op, err := models.ParseOperation(req.Operation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.ContentBase64 != "" {
		s.analyzeArchive(w, r, op, req)
		return
	}

	if s.maxFileSize > 0 && int64(len(req.Content)) > s.maxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the size limit")
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "input.py"
	}

	rep := s.engine.Run(r.Context(), op, models.NewSourceArtifact(fileName, req.Content))
	s.persist(r.Context(), rep)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) analyzeArchive(w http.ResponseWriter, r *http.Request, op models.Operation, req analyzeRequest) {
	data, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content_base64 is not valid base64")
		return
	}

	artifacts, err := archive.ExtractArtifacts(data, s.maxFileSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := archiveResponse{}
	for _, artifact := range artifacts {
		rep := s.engine.Run(r.Context(), op, artifact)
		s.persist(r.Context(), rep)
		resp.Reports = append(resp.Reports, rep)
	}

	if op == models.OpGenerateReport {
		name := req.FileName
		if name == "" {
			name = "upload.zip"
		}
		resp.Rendered = s.renderer.Render(name, resp.Reports)
	}

	writeJSON(w, http.StatusOK, resp)
}

// persist records a finished report in history. Persistence failures are
// logged, never surfaced: the analysis result itself is the priority.
func (s *Server) persist(ctx context.Context, rep *models.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.CreateAnalysis(ctx, models.RecordFromReport(rep)); err != nil {
		slog.Warn("failed to persist analysis record", "file", rep.FileName, "error", err)
	}
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	filter := store.AnalysisListFilter{
		Operation: models.Operation(r.URL.Query().Get("operation")),
		Status:    models.ReportStatus(r.URL.Query().Get("status")),
	}
	records, err := s.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	id := r.PathValue("id")
	rec, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	before := r.URL.Query().Get("before")
	n, err := s.store.DeleteAnalyses(r.Context(), before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// --- Operations ---

type operationEntry struct {
	Operation   string `json:"operation"`
	Description string `json:"description"`
	Analyzable  bool   `json:"analyzable"`
}

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	ops := models.Operations()
	entries := make([]operationEntry, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, operationEntry{
			Operation:   string(op),
			Description: op.Description(),
			Analyzable:  op.Analyzable(),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
