package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/examscope/internal/pipeline"
	"github.com/dgallion1/examscope/internal/report"
)

type jobResponse struct {
	Success bool `json:"success"`
	pipeline.JobSnapshot
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Success: true, JobSnapshot: job.Snapshot()})
}

func (s *Server) handleJobExport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rep := job.Result()
	if rep == nil {
		jsonError(w, fmt.Sprintf("job %s has no report yet", jobID), http.StatusConflict)
		return
	}
	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, analyzeResponse{Success: true, Report: rep})
		return
	}
	s.writeExport(w, rep, format, "examscope-"+jobID)
}

func (s *Server) writeExport(w http.ResponseWriter, rep *report.Report, format report.Format, base string) {
	body, err := report.Render(rep, format)
	if err != nil {
		s.log.Error("export failed", "report_id", rep.ID, "format", format, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
