package runs

import "time"

// Run status values.
const (
	StatusCompleted             = "completed"
	StatusCompletedWithFailures = "completed_with_failures"
)

// Run is the persisted summary of one bulk batch.
type Run struct {
	ID         string
	OutputDir  string
	Model      string
	Risk       string
	OnError    string
	Parallel   int
	FailFast   bool
	ResumeHash string
	TotalJobs  int
	Succeeded  int
	Failed     int
	Skipped    int
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time

	// Jobs is populated by GetByID only.
	Jobs []Job
}

// Job is one row of a batch, in discovery order.
type Job struct {
	RunID        string
	JobID        string
	Position     int
	SourcePath   string
	Title        string
	Company      string
	Status       string
	FitScore     *float64
	EditCount    int
	WarningCount int
	Attempts     int
	Error        string
	DurationMs   float64
}
