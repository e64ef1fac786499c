package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, output_dir, model, risk, on_error, parallel, fail_fast, resume_hash,
    total_jobs, succeeded, failed, skipped, status, started_at, finished_at`

// Create inserts a run and all of its jobs in one transaction.
func (r *PGRepo) Create(ctx context.Context, run Run) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRun = `
INSERT INTO bulk_runs (` + runColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err = tx.ExecContext(ctx, insertRun,
		run.ID,
		run.OutputDir,
		run.Model,
		run.Risk,
		run.OnError,
		run.Parallel,
		run.FailFast,
		run.ResumeHash,
		run.TotalJobs,
		run.Succeeded,
		run.Failed,
		run.Skipped,
		run.Status,
		run.StartedAt,
		run.FinishedAt,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	const insertJob = `
INSERT INTO bulk_jobs (
    run_id, job_id, position, source_path, title, company, status,
    fit_score, edit_count, warning_count, attempts, error, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for _, job := range run.Jobs {
		if _, err = tx.ExecContext(ctx, insertJob,
			run.ID,
			job.JobID,
			job.Position,
			job.SourcePath,
			job.Title,
			job.Company,
			job.Status,
			job.FitScore,
			job.EditCount,
			job.WarningCount,
			job.Attempts,
			job.Error,
			job.DurationMs,
		); err != nil {
			return fmt.Errorf("insert job %s/%s: %w", run.ID, job.JobID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns a run with its jobs ordered by position.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Run, error) {
	const query = `
SELECT ` + runColumns + `
FROM bulk_runs
WHERE id = $1
LIMIT 1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}

	const jobsQuery = `
SELECT run_id, job_id, position, source_path, title, company, status,
    fit_score, edit_count, warning_count, attempts, error, duration_ms
FROM bulk_jobs
WHERE run_id = $1
ORDER BY position ASC`
	rows, err := r.DB.QueryContext(ctx, jobsQuery, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			job Job
			fit sql.NullFloat64
		)
		if err := rows.Scan(
			&job.RunID,
			&job.JobID,
			&job.Position,
			&job.SourcePath,
			&job.Title,
			&job.Company,
			&job.Status,
			&fit,
			&job.EditCount,
			&job.WarningCount,
			&job.Attempts,
			&job.Error,
			&job.DurationMs,
		); err != nil {
			return Run{}, err
		}
		if fit.Valid {
			v := fit.Float64
			job.FitScore = &v
		}
		run.Jobs = append(run.Jobs, job)
	}
	return run, rows.Err()
}

// List lists runs ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT ` + runColumns + `
FROM bulk_runs
ORDER BY started_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		finished sql.NullTime
	)
	if err := row.Scan(
		&run.ID,
		&run.OutputDir,
		&run.Model,
		&run.Risk,
		&run.OnError,
		&run.Parallel,
		&run.FailFast,
		&run.ResumeHash,
		&run.TotalJobs,
		&run.Succeeded,
		&run.Failed,
		&run.Skipped,
		&run.Status,
		&run.StartedAt,
		&finished,
	); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

var _ Repo = (*PGRepo)(nil)
