package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a batch classification job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusClassifying JobStatus = "classifying"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Item is one material to classify.
type Item struct {
	ID          string `json:"id"`
	Description string `json:"descritivo"`
}

// ItemResult is the outcome for one item. Error is set when the item could
// not be classified at all; an unresolved item is not an error.
type ItemResult struct {
	ID          string `json:"id"`
	Item        string `json:"descritivo"`
	Code        string `json:"codigo_final,omitempty"`
	Description string `json:"descricao_final,omitempty"`
	Resolved    bool   `json:"resolved"`
	RecordID    string `json:"record_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Job tracks the state of a single batch.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Model    string `json:"model"`
	Filename string `json:"filename,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	items   []Item
	results []ItemResult
	done    []bool
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	Total      int      `json:"total"`
	Processed  int      `json:"processed"`
	Resolved   int      `json:"resolved"`
	Unresolved int      `json:"unresolved"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// NewJob creates a queued job for items.
func NewJob(model, filename string, items []Item) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Model:     model,
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{Total: len(items)},
		CreatedAt: now,
		UpdatedAt: now,
		items:     items,
		results:   make([]ItemResult, len(items)),
		done:      make([]bool, len(items)),
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

// Cleanup removes expired jobs. Jobs still queued or running are kept.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		active := job.Status == StatusQueued || job.Status == StatusClassifying
		expired := !active && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a job-level error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Items returns the items to classify.
func (j *Job) Items() []Item {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.items
}

// SetResult stores the outcome of item i and advances the counters.
func (j *Job) SetResult(i int, r ItemResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[i] = r
	if j.done[i] {
		return
	}
	j.done[i] = true
	j.Progress.Processed++
	switch {
	case r.Error != "":
		j.Progress.Failed++
	case r.Resolved:
		j.Progress.Resolved++
	default:
		j.Progress.Unresolved++
	}
	j.UpdatedAt = time.Now()
}

// finish picks the terminal status from the counters.
func (j *Job) finish() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case j.Progress.Total > 0 && j.Progress.Failed == j.Progress.Total:
		j.Status = StatusFailed
	case j.Progress.Failed > 0 || j.Progress.Processed < j.Progress.Total:
		j.Status = StatusPartial
	default:
		j.Status = StatusCompleted
	}
	j.Phase = "done"
	j.UpdatedAt = time.Now()
	return j.Status
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string       `json:"job_id"`
	Model     string       `json:"model"`
	Filename  string       `json:"filename,omitempty"`
	Status    JobStatus    `json:"status"`
	Phase     string       `json:"phase"`
	Progress  Progress     `json:"progress"`
	Results   []ItemResult `json:"results"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state. Only processed items
// appear in Results, in input order.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	results := make([]ItemResult, 0, j.Progress.Processed)
	for i, r := range j.results {
		if j.done[i] {
			results = append(results, r)
		}
	}
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Model:     j.Model,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		Results:   results,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
