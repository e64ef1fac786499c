package bulk

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resume-tailor/internal/scoring"
	"resume-tailor/resume/edits"
)

// Status is the lifecycle state of one job in a batch.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// JobSpec identifies one target description.
type JobSpec struct {
	Path    string
	ID      string
	Name    string
	Company string
}

func specFromPath(path string) JobSpec {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return JobSpec{Path: path, ID: stem, Name: stem}
}

// DisplayName is the name when set, else the ID.
func (s JobSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Outputs are the storage keys a successful job produced.
type Outputs struct {
	Dir    string
	Edits  string
	Resume string
}

// JobResult is the terminal record of one job.
type JobResult struct {
	Spec     JobSpec
	Status   Status
	Runtime  time.Duration
	Attempts int

	Edits         scoring.EditBreakdown
	Coverage      scoring.Coverage
	Validation    scoring.ValidationSummary
	FitScore      float64
	StuffingScore float64

	Outputs Outputs
	Err     string
}

// Result is a finished batch. Jobs are in discovery order.
type Result struct {
	RunID     string
	Resume    string
	Model     string
	Timestamp time.Time
	Finished  time.Time
	OutputDir string
	Settings  Settings
	Jobs      []JobResult
}

// Count returns the number of jobs with status s.
func (r Result) Count(s Status) int {
	n := 0
	for _, j := range r.Jobs {
		if j.Status == s {
			n++
		}
	}
	return n
}

// TotalRuntime sums job runtimes.
func (r Result) TotalRuntime() time.Duration {
	var d time.Duration
	for _, j := range r.Jobs {
		d += j.Runtime
	}
	return d
}

// Ranked returns successful jobs by fit score, highest first. Ties keep discovery order.
func (r Result) Ranked() []JobResult {
	var out []JobResult
	for _, j := range r.Jobs {
		if j.Status == StatusSuccess {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].FitScore > out[b].FitScore })
	return out
}

// Job is the unit of work handed to a Pipeline.
type Job struct {
	Spec JobSpec
	Text string
	// WorkDir is a local directory owned by this job alone.
	WorkDir string
	// Prefix is the storage key prefix for the job's artifacts.
	Prefix string
}

// Outcome is what a pipeline reports for a job it completed.
type Outcome struct {
	Set          edits.Set
	Warnings     []string
	TailoredText string
	EditsKey     string
	ResumeKey    string
}

// Pipeline runs generate, validate and apply for one job.
type Pipeline interface {
	Run(ctx context.Context, job Job) (Outcome, error)
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(ctx context.Context, job Job) (Outcome, error)

// Run calls f.
func (f PipelineFunc) Run(ctx context.Context, job Job) (Outcome, error) { return f(ctx, job) }

// Recorder persists finished batches.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}
