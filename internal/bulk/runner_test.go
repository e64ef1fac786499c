package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/object/local"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestRunner(t *testing.T, p Pipeline, cfg Config) (*Runner, string) {
	t.Helper()
	out := t.TempDir()
	cfg.OutputDir = out
	cfg.Resume = "resume.txt"
	cfg.Model = "gpt-test"
	return &Runner{
		Config:   cfg,
		Pipeline: p,
		Store:    local.New(out),
		Retry:    RetryPolicy{Attempts: 3, Sleep: func(context.Context, time.Duration) error { return nil }},
		Log:      telemetry.NewNop(),
		Metrics:  metrics.New(),
		Now:      func() time.Time { return fixedNow },
		NewID:    func() string { return "run-1" },
	}, out
}

func jobsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n+".txt"), []byte("Requirements: Go and PostgreSQL\nNice to have: Kubernetes"), 0o644))
	}
	return dir
}

func okOutcome(job Job) Outcome {
	return Outcome{
		Set:          edits.Set{Version: 1, Ops: []edits.Op{edits.ReplaceLine(1, "Go engineer")}},
		TailoredText: "Go engineer with PostgreSQL",
		EditsKey:     job.Prefix + "/edits.json",
		ResumeKey:    job.Prefix + "/tailored_resume.txt",
	}
}

func statuses(res Result) []Status {
	out := make([]Status, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, j.Status)
	}
	return out
}

func TestRunSequentialFailFastSkipsRemaining(t *testing.T) {
	var ran []string
	p := PipelineFunc(func(_ context.Context, job Job) (Outcome, error) {
		ran = append(ran, job.Spec.ID)
		if job.Spec.ID == "j2" {
			return Outcome{}, errors.New("apply: line 40 not in resume")
		}
		return okOutcome(job), nil
	})
	r, _ := newTestRunner(t, p, Config{Parallel: 1, FailFast: true})

	res, err := r.Run(context.Background(), jobsDir(t, "j1", "j2", "j3", "j4"))
	require.NoError(t, err)

	assert.Equal(t, []string{"j1", "j2"}, ran)
	assert.Equal(t, []Status{StatusSuccess, StatusFailed, StatusSkipped, StatusSkipped}, statuses(res))
	assert.Equal(t, skippedFailFast, res.Jobs[2].Err)
	assert.InDelta(t, 0.6*1+0.2*0+0.1*0.2, res.Jobs[0].FitScore, 1e-9)
	assert.Equal(t, 1, res.Jobs[1].Attempts, "terminal errors are not retried")
	assert.Contains(t, r.Metrics.Render(), "tailor_jobs_skipped_total 2\n")
}

func TestRunSequentialWithoutFailFastContinues(t *testing.T) {
	p := PipelineFunc(func(_ context.Context, job Job) (Outcome, error) {
		if job.Spec.ID == "j1" {
			return Outcome{}, errors.New("boom")
		}
		return okOutcome(job), nil
	})
	r, _ := newTestRunner(t, p, Config{Parallel: 1})

	res, err := r.Run(context.Background(), jobsDir(t, "j1", "j2"))
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusFailed, StatusSuccess}, statuses(res))
	assert.Equal(t, []JobResult{res.Jobs[1]}, res.Ranked())
}

func TestRunParallelRestoresDiscoveryOrder(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	delays := map[string]time.Duration{"a": 40, "b": 30, "c": 20, "d": 10, "e": 0}

	var mu sync.Mutex
	inFlight, peak := 0, 0
	var completedOrder []string
	p := PipelineFunc(func(ctx context.Context, job Job) (Outcome, error) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()

		time.Sleep(delays[job.Spec.ID] * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		if job.Spec.ID == "c" {
			return Outcome{}, errors.New("boom")
		}
		return okOutcome(job), nil
	})
	r, _ := newTestRunner(t, p, Config{Parallel: 2, FailFast: true})
	r.OnJobComplete = func(res JobResult, completed, total int) {
		completedOrder = append(completedOrder, res.Spec.ID)
		assert.Equal(t, len(names), total)
	}

	res, err := r.Run(context.Background(), jobsDir(t, names...))
	require.NoError(t, err)

	assert.Equal(t, names, ids(specsOf(res)))
	assert.Equal(t, []Status{StatusSuccess, StatusSuccess, StatusFailed, StatusSuccess, StatusSuccess}, statuses(res),
		"fail-fast does not cancel parallel jobs")
	assert.LessOrEqual(t, peak, 2)
	assert.Len(t, completedOrder, len(names))
}

func specsOf(res Result) []JobSpec {
	out := make([]JobSpec, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, j.Spec)
	}
	return out
}

func TestRunRetriesRetryableFailures(t *testing.T) {
	calls := 0
	p := PipelineFunc(func(_ context.Context, job Job) (Outcome, error) {
		calls++
		if calls == 1 {
			return Outcome{}, errors.New("openai http status 429: slow down")
		}
		return okOutcome(job), nil
	})
	r, _ := newTestRunner(t, p, Config{Parallel: 1})

	res, err := r.Run(context.Background(), jobsDir(t, "only"))
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Jobs[0].Status)
	assert.Equal(t, 2, res.Jobs[0].Attempts)
	assert.Contains(t, r.Metrics.Render(), "tailor_job_retries_total 1\n")
}

func TestRunWritesLayout(t *testing.T) {
	var workDirs []string
	p := PipelineFunc(func(_ context.Context, job Job) (Outcome, error) {
		workDirs = append(workDirs, job.WorkDir)
		return okOutcome(job), nil
	})
	r, out := newTestRunner(t, p, Config{Parallel: 1, Risk: "med", OnError: "fail_soft"})
	rec := &memRecorder{}
	r.Recorder = rec

	res, err := r.Run(context.Background(), jobsDir(t, "acme"))
	require.NoError(t, err)

	root := filepath.Join(out, "bulk_2025-03-04_050607")
	assert.Equal(t, "bulk_2025-03-04_050607", res.OutputDir)
	assert.Equal(t, []string{filepath.Join(root, "acme")}, workDirs)
	for _, name := range []string{"run.json", "matrix.json", "matrix.md", "acme/job.json", "acme/job.txt"} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(name)))
	}

	var run map[string]any
	data, err := os.ReadFile(filepath.Join(root, "run.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, "run-1", run["run_id"])
	job := run["jobs"].(map[string]any)["acme"].(map[string]any)
	assert.Len(t, job["content_hash"], 16)
	assert.Equal(t, "fail_soft", run["settings"].(map[string]any)["on_error"])

	assert.Equal(t, "bulk_2025-03-04_050607/acme", res.Jobs[0].Outputs.Dir)
	require.Len(t, rec.results, 1)
	assert.Equal(t, "run-1", rec.results[0].RunID)
	assert.Equal(t, Settings{Risk: "med", OnError: "fail_soft", Parallel: 1}, rec.results[0].Settings)
	assert.Equal(t, fixedNow, rec.results[0].Finished)
}

func TestRunRejectsEmptyDiscovery(t *testing.T) {
	r, _ := newTestRunner(t, PipelineFunc(func(context.Context, Job) (Outcome, error) { return Outcome{}, nil }), Config{})
	_, err := r.Run(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoJobs)
}

type memRecorder struct {
	results []Result
}

func (m *memRecorder) Record(_ context.Context, res Result) error {
	m.results = append(m.results, res)
	return nil
}
