package bulk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/scoring"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
)

const skippedFailFast = "skipped due to fail-fast"

// Config holds the options of one batch run.
type Config struct {
	Resume   string
	Model    string
	Risk     string
	OnError  string
	Parallel int
	FailFast bool
	// MaxIDLength bounds job IDs. Zero means DefaultMaxIDLength.
	MaxIDLength int
	// SectionsJSON maps resume lines to section names in the edit breakdown. Optional.
	SectionsJSON string
	// OutputDir is the local root for per-job work directories.
	OutputDir string
}

// Runner discovers jobs and drives each through a Pipeline.
type Runner struct {
	Config   Config
	Pipeline Pipeline
	Store    object.Store
	Retry    RetryPolicy

	// Recorder is optional.
	Recorder Recorder
	Log      *telemetry.Logger
	Metrics  *metrics.Registry

	// ReadJob loads a job's text. Defaults to extract.ReadText.
	ReadJob func(ctx context.Context, path string) (string, error)
	Now     func() time.Time
	NewID   func() string

	// OnJobStart and OnJobComplete report progress. Calls are serialized.
	OnJobStart    func(spec JobSpec, index, total int)
	OnJobComplete func(res JobResult, completed, total int)

	progressMu sync.Mutex
}

// Run executes the batch found at jobsPath. Job failures are recorded in the result; the returned error is
// reserved for failures of the batch itself (discovery, layout, run metadata, matrix files).
func (r *Runner) Run(ctx context.Context, jobsPath string) (Result, error) {
	specs, err := Discover(jobsPath)
	if err != nil {
		return Result{}, err
	}
	if len(specs) == 0 {
		return Result{}, fmt.Errorf("%w at %s", ErrNoJobs, jobsPath)
	}
	specs = Dedupe(specs, r.Config.MaxIDLength)

	started := r.now()
	layout := NewLayout(r.Config.OutputDir, started)
	if err := layout.Create(specs); err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:     r.newID(),
		Resume:    r.Config.Resume,
		Model:     r.Config.Model,
		Timestamp: started,
		OutputDir: layout.Prefix,
	}
	settings := r.settings()
	res.Settings = settings
	if err := writeRunMetadata(ctx, r.Store, layout, runMetadata{
		RunID:     res.RunID,
		Timestamp: started.Format(time.RFC3339),
		Resume:    r.Config.Resume,
		Model:     r.Config.Model,
		Settings:  settings,
	}, specs); err != nil {
		return Result{}, err
	}

	r.Log.Info("bulk.run.start", map[string]any{
		"run_id":   res.RunID,
		"jobs":     len(specs),
		"parallel": settings.Parallel,
		"output":   layout.Prefix,
	})

	if settings.Parallel > 1 {
		res.Jobs = r.runParallel(ctx, specs, layout)
	} else {
		res.Jobs = r.runSequential(ctx, specs, layout)
	}
	res.Finished = r.now()

	if err := writeMatrixFiles(ctx, r.Store, layout, res); err != nil {
		return res, err
	}
	if r.Recorder != nil {
		if err := r.Recorder.Record(ctx, res); err != nil {
			r.Log.Warn("bulk.run.record_failed", map[string]any{"run_id": res.RunID, "error": err.Error()})
		}
	}

	r.Log.Info("bulk.run.complete", map[string]any{
		"run_id":     res.RunID,
		"success":    res.Count(StatusSuccess),
		"failed":     res.Count(StatusFailed),
		"skipped":    res.Count(StatusSkipped),
		"runtime_ms": res.TotalRuntime().Milliseconds(),
	})
	return res, nil
}

func (r *Runner) runSequential(ctx context.Context, specs []JobSpec, layout Layout) []JobResult {
	results := make([]JobResult, 0, len(specs))
	for i, spec := range specs {
		r.jobStarted(spec, i+1, len(specs))
		res := r.process(ctx, spec, layout)
		results = append(results, res)
		r.jobCompleted(res, i+1, len(specs))

		if r.Config.FailFast && res.Status == StatusFailed {
			for _, rest := range specs[i+1:] {
				r.Metrics.IncJobSkipped()
				results = append(results, JobResult{Spec: rest, Status: StatusSkipped, Err: skippedFailFast})
			}
			r.Log.Warn("bulk.fail_fast", map[string]any{"job_id": spec.ID, "skipped": len(specs) - i - 1})
			break
		}
	}
	return results
}

// runParallel dispatches every job to a bounded pool. In-flight jobs always run to completion, so FailFast
// has no effect here. Results are returned in discovery order.
func (r *Runner) runParallel(ctx context.Context, specs []JobSpec, layout Layout) []JobResult {
	results := make([]JobResult, len(specs))
	var completed int

	var g errgroup.Group
	g.SetLimit(r.Config.Parallel)
	for i, spec := range specs {
		g.Go(func() error {
			r.jobStarted(spec, i+1, len(specs))
			results[i] = r.process(ctx, spec, layout)

			r.progressMu.Lock()
			completed++
			n := completed
			r.progressMu.Unlock()
			r.jobCompleted(results[i], n, len(specs))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) process(ctx context.Context, spec JobSpec, layout Layout) JobResult {
	start := r.now()
	res := JobResult{Spec: spec, Status: StatusRunning}
	r.Metrics.IncJobStarted()
	r.Log.Info("bulk.job.start", map[string]any{"job_id": spec.ID, "path": spec.Path})

	out, text, err := r.runJob(ctx, spec, layout, &res)
	res.Runtime = r.now().Sub(start)
	r.Metrics.ObserveJobDurationMs(float64(res.Runtime.Milliseconds()))

	if err != nil {
		res.Status = StatusFailed
		res.Err = err.Error()
		r.Metrics.IncJobFailed()
		r.Log.Warn("bulk.job.failed", map[string]any{
			"job_id":   spec.ID,
			"attempts": res.Attempts,
			"error":    res.Err,
		})
		return res
	}

	r.score(&res, text, out)
	res.Outputs = Outputs{Dir: layout.Key(spec.ID), Edits: out.EditsKey, Resume: out.ResumeKey}
	res.Status = StatusSuccess
	r.Metrics.IncJobSucceeded()
	r.Log.Info("bulk.job.complete", map[string]any{
		"job_id":      spec.ID,
		"fit_score":   res.FitScore,
		"edits":       res.Edits.Total,
		"attempts":    res.Attempts,
		"duration_ms": res.Runtime.Milliseconds(),
	})
	return res
}

func (r *Runner) runJob(ctx context.Context, spec JobSpec, layout Layout, res *JobResult) (Outcome, string, error) {
	text, err := r.readJob(ctx, spec.Path)
	if err != nil {
		return Outcome{}, "", fmt.Errorf("read job %s: %w", spec.Path, err)
	}
	if err := writeJobArtifacts(ctx, r.Store, layout, spec, text, jobMetadata{
		Model:     r.Config.Model,
		Timestamp: r.now().Format(time.RFC3339),
		Settings:  r.settings(),
	}); err != nil {
		return Outcome{}, "", err
	}

	job := Job{Spec: spec, Text: text, WorkDir: layout.WorkDir(spec.ID), Prefix: layout.Key(spec.ID)}
	out, attempts, err := retry(ctx, r.Retry, func(ctx context.Context) (Outcome, error) {
		return r.Pipeline.Run(ctx, job)
	}, func(attempt int, delay time.Duration, err error) {
		r.Metrics.IncJobRetry()
		r.Log.Warn("bulk.job.retry", map[string]any{
			"job_id":   spec.ID,
			"attempt":  attempt,
			"of":       max(r.Retry.Attempts, 1),
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	})
	res.Attempts = attempts
	return out, text, err
}

func (r *Runner) score(res *JobResult, jobText string, out Outcome) {
	required, preferred := scoring.ExtractKeywords(jobText)
	res.Edits = scoring.AnalyzeEdits(out.Set, r.Config.SectionsJSON)
	res.Validation = scoring.SummarizeValidation(out.Warnings, out.Set)
	res.Coverage = scoring.KeywordCoverage(out.TailoredText, required, preferred)
	res.StuffingScore = scoring.KeywordStuffing(out.TailoredText)
	res.FitScore = scoring.FitScore(res.Coverage, res.Edits.Total, res.Validation.TotalWarnings)
}

func (r *Runner) settings() Settings {
	return Settings{
		Risk:     r.Config.Risk,
		OnError:  r.Config.OnError,
		Parallel: max(r.Config.Parallel, 1),
		FailFast: r.Config.FailFast,
	}
}

func (r *Runner) jobStarted(spec JobSpec, index, total int) {
	if r.OnJobStart == nil {
		return
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.OnJobStart(spec, index, total)
}

func (r *Runner) jobCompleted(res JobResult, completed, total int) {
	if r.OnJobComplete == nil {
		return
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.OnJobComplete(res, completed, total)
}

func (r *Runner) readJob(ctx context.Context, path string) (string, error) {
	if r.ReadJob != nil {
		return r.ReadJob(ctx, path)
	}
	return extract.ReadText(ctx, path)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}
