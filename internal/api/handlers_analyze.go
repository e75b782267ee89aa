package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/examscope/internal/parser"
	"github.com/dgallion1/examscope/internal/pipeline"
	"github.com/dgallion1/examscope/internal/report"
)

// formOverhead is the slack allowed on top of the upload limit for
// multipart framing and form fields.
const formOverhead = 1 << 20

type analyzeResponse struct {
	Success bool `json:"success"`
	*report.Report
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, err := report.ParseFormat(r.FormValue("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := readUpload(file, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), filename, data, pipeline.Options{UseAI: parseUseAI(r.FormValue("use_ai"))})
	if err != nil {
		s.analysisError(w, filename, err)
		return
	}

	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, analyzeResponse{Success: true, Report: rep})
		return
	}
	s.writeExport(w, rep, format, strings.TrimSuffix(filename, filepath.Ext(filename)))
}

func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*formOverhead)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var files []pipeline.File
	var rejected []map[string]string
	for _, fh := range headers {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			rejected = append(rejected, map[string]string{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": "failed to open file"})
			continue
		}
		data, err := readUpload(f, s.cfg.MaxUploadBytes)
		f.Close()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": err.Error()})
			continue
		}
		files = append(files, pipeline.File{Name: filename, Data: data})
	}

	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":  false,
			"error":    "no analyzable files in upload",
			"rejected": rejected,
		})
		return
	}

	job := pipeline.NewJob(files, parseUseAI(r.FormValue("use_ai")))
	if err := s.orchestrator.Submit(job); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":  true,
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"files":    len(files),
		"rejected": rejected,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) analysisError(w http.ResponseWriter, filename string, err error) {
	var corrupt *parser.CorruptDocumentError
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &corrupt):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("analysis failed", "filename", filename, "error", err)
		jsonError(w, "analysis failed", http.StatusInternalServerError)
	}
}

// formError maps a multipart parse failure to 413 or 400.
func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}

func readUpload(f multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", limit)
	}
	return data, nil
}

// parseUseAI defaults to true; only an explicit false value disables AI.
func parseUseAI(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if strings.EqualFold(v, "off") || strings.EqualFold(v, "no") {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
