package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/examscope/internal/report"
)

// JobStatus represents the state of a batch analysis job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusAnalyzing JobStatus = "analyzing"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// File is one uploaded document in a batch.
type File struct {
	Name string
	Data []byte
}

// Job tracks a multi-file analysis.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	UseAI  bool      `json:"use_ai"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	files   []File
	reports []*report.Report
	result  *report.Report
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalFiles     int      `json:"total_files"`
	FilesProcessed int      `json:"files_processed"`
	FilesSkipped   int      `json:"files_skipped"`
	Questions      int      `json:"questions"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for files.
func NewJob(files []File, useAI bool) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		UseAI:     useAI,
		Progress:  Progress{TotalFiles: len(files)},
		CreatedAt: now,
		UpdatedAt: now,
		files:     files,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddReport records a finished file.
func (j *Job) AddReport(r *report.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reports = append(j.reports, r)
	j.Progress.FilesProcessed++
	j.Progress.Questions += r.TotalQuestions
	j.UpdatedAt = time.Now()
}

// IncrFilesProcessed counts a file that produced no report.
func (j *Job) IncrFilesProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// IncrFilesSkipped counts a duplicate file.
func (j *Job) IncrFilesSkipped() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesProcessed++
	j.Progress.FilesSkipped++
	j.UpdatedAt = time.Now()
}

// Files returns the uploaded files.
func (j *Job) Files() []File {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// Reports returns the per-file reports in completion order.
func (j *Job) Reports() []*report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*report.Report(nil), j.reports...)
}

// SetResult stores the merged report and drops the upload bytes.
func (j *Job) SetResult(r *report.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.files = nil
	j.UpdatedAt = time.Now()
}

// Result returns the merged report, or nil while the job runs.
func (j *Job) Result() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Phase     string         `json:"phase"`
	UseAI     bool           `json:"use_ai"`
	Progress  Progress       `json:"progress"`
	Report    *report.Report `json:"report,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		UseAI:  j.UseAI,
		Progress: Progress{
			TotalFiles:     j.Progress.TotalFiles,
			FilesProcessed: j.Progress.FilesProcessed,
			FilesSkipped:   j.Progress.FilesSkipped,
			Questions:      j.Progress.Questions,
			Errors:         errs,
		},
		Report:    j.result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
