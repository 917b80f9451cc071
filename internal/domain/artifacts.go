package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the overall outcome of a pipeline run.
type RunStatus string

const (
	RunSucceeded          RunStatus = "succeeded"
	RunPartiallySucceeded RunStatus = "partially_succeeded"
	RunFailed             RunStatus = "failed"
)

// ItemFailure records one per-item failure collected during a run. Failures
// never abort sibling items; they accumulate here for the status report.
type ItemFailure struct {
	Stage string `json:"stage"`
	Item  string `json:"item"`
	Err   string `json:"error"`
}

// WorkflowArtifacts is the result object for one pipeline run: output file
// paths plus the per-item failure list. Created at run start, populated
// incrementally, never mutated after the run completes.
type WorkflowArtifacts struct {
	RunID      uuid.UUID         `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Status     RunStatus         `json:"status"`
	Files      map[string]string `json:"files"`
	Failures   []ItemFailure     `json:"failures,omitempty"`

	DocumentsProcessed int `json:"documents_processed"`
	TermsExtracted     int `json:"terms_extracted"`
	CardsCreated       int `json:"cards_created"`
}

// NewWorkflowArtifacts creates the artifact set for a new run.
func NewWorkflowArtifacts() *WorkflowArtifacts {
	return &WorkflowArtifacts{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Files:     make(map[string]string),
	}
}

// RecordFailure appends one per-item failure.
func (a *WorkflowArtifacts) RecordFailure(stage, item string, err error) {
	a.Failures = append(a.Failures, ItemFailure{Stage: stage, Item: item, Err: err.Error()})
}

// Finalize stamps the finish time and derives the run status from the
// failure count. fatal forces RunFailed regardless of partial progress.
func (a *WorkflowArtifacts) Finalize(fatal bool) {
	a.FinishedAt = time.Now().UTC()
	switch {
	case fatal:
		a.Status = RunFailed
	case len(a.Failures) > 0:
		a.Status = RunPartiallySucceeded
	default:
		a.Status = RunSucceeded
	}
}
