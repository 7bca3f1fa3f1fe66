package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// maxFormSize bounds upload parsing (50MB handles high-resolution phone photos)
const maxFormSize = int64(50 << 20)

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListInvoices returns stored records, optionally filtered to one day
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	records := s.service.Records()

	if date := r.URL.Query().Get("date"); date != "" {
		filtered := make([]*InvoiceRecord, 0, len(records))
		for _, rec := range records {
			if rec.Date == date {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// uploadResponse is the body returned by a successful batch upload
type uploadResponse struct {
	Added   int              `json:"added"`
	Records []*InvoiceRecord `json:"records"`
}

// handleUploadInvoices ingests a multipart batch of invoice files
func (s *Server) handleUploadInvoices(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "Upload is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	analysisDate := r.FormValue("date")
	if analysisDate == "" {
		jsonError(w, "Analysis date is required", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No files were selected. Please choose files to upload.", http.StatusBadRequest)
		return
	}

	files := make([]UploadedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening uploaded file", "filename", header.Filename, "error", err)
			jsonError(w, "Error reading files. Please try again.", http.StatusInternalServerError)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading file data", "filename", header.Filename, "error", err)
			jsonError(w, "Error reading files. Please try again.", http.StatusInternalServerError)
			return
		}

		files = append(files, UploadedFile{
			Filename:    header.Filename,
			ContentType: fileContentType(header.Filename, header.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	added, err := s.service.Ingest(files, analysisDate, func(current, total int) {
		slog.Info("Processing invoice file", "current", current, "total", total)
	})
	if err != nil {
		if errors.Is(err, ErrNoSupportedFiles) {
			jsonError(w, "Unsupported file type. Accepted: JPEG, PNG, WEBP, PDF.", http.StatusBadRequest)
			return
		}
		slog.Error("Error ingesting invoices", "error", err)
		jsonError(w, "Error saving invoices. Please try again.", http.StatusInternalServerError)
		return
	}

	if added == nil {
		added = []*InvoiceRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(uploadResponse{Added: len(added), Records: added}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDailyStats returns the statistics bundle for one analysis date
func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	analysisDate := r.URL.Query().Get("date")
	if analysisDate == "" {
		analysisDate = time.Now().Format("2006-01-02")
	}

	stats := s.service.DailyStats(analysisDate)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleAnnualSeries returns the three-year monthly comparison
func (s *Server) handleAnnualSeries(w http.ResponseWriter, r *http.Request) {
	series := s.service.AnnualSeries()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(series); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// fileContentType falls back to the filename extension when the part carries
// no Content-Type header
func fileContentType(filename, contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
