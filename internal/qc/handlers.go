package qc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zombor/invoice-qc/internal/invoice"
	"github.com/zombor/invoice-qc/internal/report"
)

const (
	maxUploadSize = int64(50 << 20) // 50MB
	xlsxMimeType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError responds with a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeServiceError maps service failures onto status codes
func writeServiceError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, what+" not found", http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, "Request timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		writeError(w, "Request cancelled", http.StatusServiceUnavailable)
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex serves the web console
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleValidate validates a JSON batch of records
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		writeError(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	records, err := invoice.DecodeBatch(body)
	if err != nil {
		slog.Warn("Rejected batch", "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := s.service.ValidateRecords(records)
	if err != nil {
		writeServiceError(w, err, "Report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleExtract extracts and validates uploaded PDFs sent as multipart "files"
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "Upload is too large. Maximum size is 50MB."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, "No files were selected. Please choose at least one PDF.", http.StatusBadRequest)
		return
	}

	docs := make([]Document, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, fmt.Sprintf("Error opening %s", header.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		docs = append(docs, Document{Name: header.Filename, Data: data})
	}

	rep, err := s.service.ProcessDocuments(r.Context(), docs)
	if err != nil {
		writeServiceError(w, err, "Report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// reportListing is the archive index entry for one report
type reportListing struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Total     int       `json:"total_invoices"`
	Valid     int       `json:"valid_invoices"`
	Invalid   int       `json:"invalid_invoices"`
	Files     []string  `json:"files,omitempty"`
}

func listing(r *report.Report) reportListing {
	return reportListing{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Total:     r.Summary.TotalInvoices,
		Valid:     r.Summary.ValidInvoices,
		Invalid:   r.Summary.InvalidInvoices,
		Files:     r.Files,
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.service.ListReports()
	if err != nil {
		writeServiceError(w, err, "Reports")
		return
	}

	out := make([]reportListing, 0, len(reports))
	for _, rep := range reports {
		out = append(out, listing(rep))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.GetReport(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleGetReportXLSX(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.ReportXLSX(id)
	if err != nil {
		writeServiceError(w, err, "Report")
		return
	}

	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-qc-%s.xlsx"`, id))
	w.Write(data)
}

func (s *Server) handleGetSourceFile(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetSourceFile(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, err, "File")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReport(r.PathValue("id")); err != nil {
		writeServiceError(w, err, "Report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
