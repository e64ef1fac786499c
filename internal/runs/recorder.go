package runs

import (
	"context"
	"os"

	"resume-tailor/internal/bulk"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

// Recorder persists finished bulk batches through a Repo.
type Recorder struct {
	Repo Repo
	Log  *telemetry.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo Repo, log *telemetry.Logger) *Recorder {
	return &Recorder{Repo: repo, Log: log}
}

// Record converts res and stores it.
func (r *Recorder) Record(ctx context.Context, res bulk.Result) error {
	run := FromResult(res)
	if data, err := os.ReadFile(res.Resume); err == nil {
		run.ResumeHash = util.ShortHash(data)
	}
	if err := r.Repo.Create(ctx, run); err != nil {
		return err
	}
	r.Log.Debug("runs.recorded", map[string]any{"run_id": run.ID, "jobs": run.TotalJobs, "status": run.Status})
	return nil
}

// FromResult maps a bulk result onto a Run. ResumeHash is left empty.
func FromResult(res bulk.Result) Run {
	run := Run{
		ID:        res.RunID,
		OutputDir: res.OutputDir,
		Model:     res.Model,
		Risk:      res.Settings.Risk,
		OnError:   res.Settings.OnError,
		Parallel:  res.Settings.Parallel,
		FailFast:  res.Settings.FailFast,
		TotalJobs: len(res.Jobs),
		Succeeded: res.Count(bulk.StatusSuccess),
		Failed:    res.Count(bulk.StatusFailed),
		Skipped:   res.Count(bulk.StatusSkipped),
		Status:    StatusCompleted,
		StartedAt: res.Timestamp,
	}
	if run.Failed > 0 || run.Skipped > 0 {
		run.Status = StatusCompletedWithFailures
	}
	if !res.Finished.IsZero() {
		t := res.Finished
		run.FinishedAt = &t
	}
	for i, jr := range res.Jobs {
		job := Job{
			RunID:        res.RunID,
			JobID:        jr.Spec.ID,
			Position:     i,
			SourcePath:   jr.Spec.Path,
			Title:        jr.Spec.Name,
			Company:      jr.Spec.Company,
			Status:       string(jr.Status),
			EditCount:    jr.Edits.Total,
			WarningCount: jr.Validation.TotalWarnings,
			Attempts:     jr.Attempts,
			Error:        jr.Err,
			DurationMs:   float64(jr.Runtime.Milliseconds()),
		}
		if jr.Status == bulk.StatusSuccess {
			fit := jr.FitScore
			job.FitScore = &fit
		}
		run.Jobs = append(run.Jobs, job)
	}
	return run
}

var _ bulk.Recorder = (*Recorder)(nil)
