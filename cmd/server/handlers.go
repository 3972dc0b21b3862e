package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liamcoop/creditreports/ingest"
	"github.com/liamcoop/creditreports/internal/logger"
	"github.com/liamcoop/creditreports/report"
	"github.com/liamcoop/creditreports/screening"
	"github.com/liamcoop/creditreports/xmltree"
)

// multipartOverhead is the slack allowed on top of the document limit for form framing.
const multipartOverhead = 64 << 10

// maxExpressionBodyBytes bounds the JSON body of an ad-hoc screening request.
const maxExpressionBodyBytes = 64 << 10

var errNoFile = errors.New("no file uploaded")

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Error:  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// Upload handler. Accepts a multipart form with a "file" field or a raw XML body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, errNoFile):
			respondError(w, http.StatusBadRequest, "No file uploaded", nil)
		case errors.As(err, &maxErr), errors.Is(err, ingest.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "File too large", err)
		default:
			respondError(w, http.StatusBadRequest, "Invalid upload", err)
		}
		return
	}

	rec, err := s.reports.Ingest(r.Context(), bytes.NewReader(data))
	if err != nil {
		status := ingestStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("failed to process uploaded report",
				"requestId", requestID(r), "error", err)
		}
		respondError(w, status, "Error processing file", err)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{
		Message: "Report processed successfully",
		ID:      rec.ID,
	})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return s.readNonEmpty(file)

	case "application/xml", "text/xml":
		return s.readNonEmpty(r.Body)

	default:
		return nil, errNoFile
	}
}

func (s *Server) readNonEmpty(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errNoFile
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, ingest.ErrTooLarge
	}
	return data, nil
}

// ingestStatus maps extraction and storage failures onto HTTP status codes.
func ingestStatus(err error) int {
	var parseErr *xmltree.ParseError
	var formatErr *xmltree.FormatError

	switch {
	case errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.As(err, &formatErr):
		return http.StatusBadRequest
	default:
		// *extract.ProcessingError and storage failures
		return http.StatusInternalServerError
	}
}

// List reports handler
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	list, err := s.reports.List(r.Context())
	if err != nil {
		logger.Error("failed to list reports", "requestId", requestID(r), "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports", err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// Get report handler
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Screening handler: evaluates every configured rule against one report
func (s *Server) handleScreenReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupReport(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, ScreeningResponse{
		ID:      rec.ID,
		Results: s.screener.EvaluateAll(&rec.Report),
	})
}

// Ad-hoc expression handler
func (s *Server) handleEvaluateExpression(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxExpressionBodyBytes)

	var req EvaluateExpressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Expression == "" {
		respondError(w, http.StatusBadRequest, "expression is required", nil)
		return
	}

	rec, ok := s.lookupReport(w, r)
	if !ok {
		return
	}

	result, err := s.screener.EvaluateExpression(req.Expression, &rec.Report)
	if err != nil {
		status := http.StatusInternalServerError
		if screening.IsCompileError(err) {
			status = http.StatusBadRequest
		}
		respondError(w, status, "failed to evaluate expression", err)
		return
	}

	respondJSON(w, http.StatusOK, EvaluateExpressionResponse{
		ID:     rec.ID,
		Result: result,
	})
}

// lookupReport writes the error response itself when the report cannot be loaded.
func (s *Server) lookupReport(w http.ResponseWriter, r *http.Request) (*report.Record, bool) {
	id := chi.URLParam(r, "id")

	rec, err := s.reports.Get(r.Context(), id)
	if errors.Is(err, report.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Report not found", nil)
		return nil, false
	}
	if err != nil {
		logger.Error("failed to fetch report", "id", id, "requestId", requestID(r), "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch report", err)
		return nil, false
	}
	return rec, true
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}
