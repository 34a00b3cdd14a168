package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is one invocation of the tool. It keeps every log line so the
// journal and the final report can include them.
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Status    string    `json:"status"` // "running", "completed", "failed"
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"`
	Output    []string  `json:"output"`
	mu        sync.Mutex
}

// NewRun starts a run with a fresh UUID.
func NewRun(command string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Command:   command,
		Status:    "running",
		StartedAt: time.Now(),
		Output:    []string{},
	}
}

// AppendLog adds a log line to the run output.
func (r *Run) AppendLog(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Output = append(r.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (r *Run) LogsSince(offset int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.Output) {
		return nil
	}
	lines := make([]string, len(r.Output)-offset)
	copy(lines, r.Output[offset:])
	return lines
}

// Complete marks the run as completed.
func (r *Run) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = "completed"
}

// Fail marks the run as failed.
func (r *Run) Fail(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = "failed"
	r.Error = err
}
