package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/examscope/internal/report"
)

// DocumentAnalyzer analyzes a single upload.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, filename string, data []byte, opts Options) (*report.Report, error)
}

// Worker processes a single batch job.
type Worker struct {
	analyzer    DocumentAnalyzer
	log         *slog.Logger
	sampleCount int
}

func NewWorker(analyzer DocumentAnalyzer, log *slog.Logger, sampleCount int) *Worker {
	return &Worker{analyzer: analyzer, log: log, sampleCount: sampleCount}
}

// Process analyzes every file of the job in upload order and merges the
// reports. Files with identical content are analyzed once.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	job.SetStatus(StatusAnalyzing, "analyzing")

	files := job.Files()
	seen := make(map[string]string, len(files))
	failed := 0

	for i, f := range files {
		if ctx.Err() != nil {
			job.AddError(fmt.Sprintf("%s: %s", f.Name, ctx.Err()))
			job.IncrFilesProcessed()
			failed++
			continue
		}

		hash := ContentHashHex(f.Data)
		if first, ok := seen[hash]; ok {
			log.Info("duplicate file, skipping", "filename", f.Name, "duplicate_of", first)
			job.IncrFilesSkipped()
			continue
		}
		seen[hash] = f.Name

		job.SetStatus(StatusAnalyzing, fmt.Sprintf("analyzing %d/%d", i+1, len(files)))
		rep, err := w.analyzer.Analyze(ctx, f.Name, f.Data, Options{UseAI: job.UseAI})
		if err != nil {
			log.Error("analysis failed", "filename", f.Name, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", f.Name, err))
			job.IncrFilesProcessed()
			failed++
			continue
		}
		job.AddReport(rep)
	}

	reports := job.Reports()
	if len(reports) == 0 {
		job.SetResult(nil)
		job.SetStatus(StatusFailed, "done")
		log.Warn("batch produced no reports", "files", len(files))
		return
	}

	merged := report.Merge(w.sampleCount, reports...)
	job.SetResult(merged)
	log.Info("batch complete",
		"files", len(files),
		"failed", failed,
		"questions", merged.TotalQuestions,
		"method", merged.Method,
	)
	if failed > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
