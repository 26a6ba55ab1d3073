package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/thesisfmt/internal/validate"
)

// RunStatus is the stage a run is in.
type RunStatus string

const (
	StatusQueued       RunStatus = "queued"
	StatusAggregating  RunStatus = "aggregating"
	StatusTransforming RunStatus = "transforming"
	StatusAssembling   RunStatus = "assembling"
	StatusNormalizing  RunStatus = "normalizing"
	StatusWriting      RunStatus = "writing"
	StatusValidating   RunStatus = "validating"
	StatusCompleted    RunStatus = "completed"
	StatusFailed       RunStatus = "failed"
)

// RunKind tells build runs from validation runs.
type RunKind string

const (
	KindBuild    RunKind = "build"
	KindValidate RunKind = "validate"
)

// Run tracks one build or validation.
type Run struct {
	mu sync.Mutex

	ID     string    `json:"run_id"`
	Kind   RunKind   `json:"kind"`
	Status RunStatus `json:"status"`
	Phase  string    `json:"phase"`
	Source string    `json:"source"`
	Output string    `json:"output,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	notes  []string
	report *validate.Report
}

// Progress counts work done so far.
type Progress struct {
	Chapters     int      `json:"chapters"`
	ChaptersDone int      `json:"chapters_done"`
	Nodes        int      `json:"nodes"`
	Notes        []string `json:"notes"`
}

func NewRun(kind RunKind, source string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// AddNote records a recoverable problem.
func (r *Run) AddNote(note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
	r.Progress.Notes = r.notes
	r.UpdatedAt = time.Now()
}

func (r *Run) SetChapters(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Chapters = n
	r.UpdatedAt = time.Now()
}

func (r *Run) IncrChaptersDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.ChaptersDone++
	r.UpdatedAt = time.Now()
}

func (r *Run) SetNodes(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Nodes = n
	r.UpdatedAt = time.Now()
}

func (r *Run) setOutput(path, hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Output = path
	r.ContentHash = hash
	r.UpdatedAt = time.Now()
}

func (r *Run) setReport(rep *validate.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = rep
	r.UpdatedAt = time.Now()
}

// Report returns the validation report of a validation run, or nil.
func (r *Run) Report() *validate.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string           `json:"run_id"`
	Kind        RunKind          `json:"kind"`
	Status      RunStatus        `json:"status"`
	Phase       string           `json:"phase"`
	Source      string           `json:"source"`
	Output      string           `json:"output,omitempty"`
	ContentHash string           `json:"content_hash,omitempty"`
	Progress    Progress         `json:"progress"`
	Report      *validate.Report `json:"report,omitempty"`
}

func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes := make([]string, len(r.notes))
	copy(notes, r.notes)
	p := r.Progress
	p.Notes = notes
	return RunSnapshot{
		ID:          r.ID,
		Kind:        r.Kind,
		Status:      r.Status,
		Phase:       r.Phase,
		Source:      r.Source,
		Output:      r.Output,
		ContentHash: r.ContentHash,
		Progress:    p,
		Report:      r.report,
	}
}

// RunStore keeps finished runs in memory for a while so their reports can
// be fetched again.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		updated := run.UpdatedAt
		run.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.runs, id)
		}
	}
}

// Janitor runs Cleanup every interval until ctx is done.
func (s *RunStore) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
