package pipeline

import (
	"context"
	"testing"

	"github.com/dgallion1/examscope/internal/report"
)

func TestWorker_CancelledJobCountsEveryFile(t *testing.T) {
	analyzer := &funcAnalyzer{fn: func(name string, _ []byte, _ Options) (*report.Report, error) {
		return &report.Report{Filename: name}, nil
	}}
	w := NewWorker(analyzer, testLogger(), 3)
	job := NewJob([]File{
		{Name: "a.pdf", Data: []byte("a")},
		{Name: "b.pdf", Data: []byte("b")},
	}, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed status, got %q", snap.Status)
	}
	if snap.Progress.FilesProcessed != snap.Progress.TotalFiles {
		t.Errorf("expected %d files processed, got %d", snap.Progress.TotalFiles, snap.Progress.FilesProcessed)
	}
	if len(snap.Progress.Errors) != 2 {
		t.Errorf("expected an error per cancelled file, got %v", snap.Progress.Errors)
	}
	if analyzer.calls.Load() != 0 {
		t.Errorf("expected no analysis after cancellation, got %d calls", analyzer.calls.Load())
	}
}
