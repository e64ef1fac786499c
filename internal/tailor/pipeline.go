package tailor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"resume-tailor/internal/bulk"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/resolve"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/resume/model"
	"resume-tailor/resume/service"
)

// BulkPipeline adapts Service to the batch orchestrator. Every job shares the resume; each gets its own
// work directory, so concurrent jobs never touch the same edits file.
type BulkPipeline struct {
	Service      *Service
	ResumePath   string
	Resume       model.Buffer
	SectionsJSON string
	Risk         service.Risk
	Policy       resolve.Policy
	// Store receives the edits, tailored document and diff under the job's prefix.
	Store object.Store
}

// Run tailors the resume to one job and publishes its artifacts.
func (p *BulkPipeline) Run(ctx context.Context, job bulk.Job) (bulk.Outcome, error) {
	ext := filepath.Ext(p.ResumePath)
	if ext == "" {
		ext = ".txt"
	}
	resumeName := "tailored_resume" + ext

	res, err := p.Service.Tailor(ctx, Request{
		ResumePath:   p.ResumePath,
		Resume:       p.Resume,
		JobText:      job.Text,
		SectionsJSON: p.SectionsJSON,
		EditsPath:    filepath.Join(job.WorkDir, "edits.json"),
		OutputPath:   filepath.Join(job.WorkDir, resumeName),
		Risk:         p.Risk,
		Policy:       p.Policy,
	})
	if err != nil {
		return bulk.Outcome{}, err
	}

	out := bulk.Outcome{
		Set:          res.Set,
		Warnings:     res.Warnings,
		TailoredText: res.Tailored.Text(),
		EditsKey:     path.Join(job.Prefix, "edits.json"),
		ResumeKey:    path.Join(job.Prefix, resumeName),
	}
	for key, local := range map[string]string{
		out.EditsKey:                         res.EditsPath,
		out.ResumeKey:                        res.OutputPath,
		path.Join(job.Prefix, DiffFileName): res.DiffPath,
	} {
		if err := publish(ctx, p.Store, key, local); err != nil {
			return bulk.Outcome{}, err
		}
	}
	return out, nil
}

// localPather is implemented by stores that map keys onto the local filesystem.
type localPather interface {
	Path(storageKey string) (string, error)
}

func publish(ctx context.Context, store object.Store, key, localPath string) error {
	if store == nil {
		return nil
	}
	if lp, ok := store.(localPather); ok {
		if dst, err := lp.Path(key); err == nil && sameFile(dst, localPath) {
			return nil
		}
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", localPath, err)
	}
	if _, err := store.SaveWithKey(ctx, key, extract.MimeForPath(localPath), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

var _ bulk.Pipeline = (*BulkPipeline)(nil)
