package tailor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/resolve"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
	"resume-tailor/resume/render"
	"resume-tailor/resume/service"
)

// DiffFileName is written next to the edits file.
const DiffFileName = "diff.patch"

// Request describes one tailoring job.
type Request struct {
	// ResumePath is the source document. A DOCX source is reused as the output template.
	ResumePath string
	Resume     model.Buffer
	JobText    string
	// SectionsJSON is optional prompt context.
	SectionsJSON string

	// EditsPath is the working edits file the resolution loop round-trips through.
	EditsPath string
	// OutputPath receives the tailored document. Its extension selects the format.
	OutputPath string

	Risk   service.Risk
	Policy resolve.Policy
	// UseExistingEdits skips generation and starts from the file at EditsPath.
	UseExistingEdits bool
}

// Result is a completed tailoring job.
type Result struct {
	Set        edits.Set
	Warnings   []string
	Iterations int
	Tailored   model.Buffer
	Diff       string

	EditsPath  string
	OutputPath string
	DiffPath   string
}

// Service runs the single-job pipeline: generate, persist, resolve, apply, write.
type Service struct {
	Generator *Generator
	// Interactor and Repairer are nil when no operator is attached.
	Interactor resolve.Interactor
	Repairer   resolve.Repairer
	// MaxIterations caps resolution rounds. Zero is unbounded.
	MaxIterations int

	Log     *telemetry.Logger
	Metrics *metrics.Registry
	Now     func() time.Time
}

// Tailor runs req to completion. Stages run strictly in order and nothing is written to OutputPath
// unless the edit set validated (or the operator accepted its warnings) and applied cleanly.
func (s *Service) Tailor(ctx context.Context, req Request) (Result, error) {
	if req.EditsPath == "" || req.OutputPath == "" {
		return Result{}, fmt.Errorf("%w: edits and output paths are required", ErrInvalidInput)
	}
	if req.Resume.Len() == 0 {
		return Result{}, fmt.Errorf("%w: resume is empty", ErrInvalidInput)
	}

	store := resolve.NewFileStore(req.EditsPath)
	in := llm.PromptInput{
		JobText:      req.JobText,
		Resume:       req.Resume,
		SectionsJSON: req.SectionsJSON,
		CreatedAt:    s.now(),
	}

	set, err := s.initialSet(ctx, store, in, req.UseExistingEdits)
	if err != nil {
		return Result{}, err
	}

	loop := resolve.Loop{
		Policy: req.Policy,
		Validate: func(set edits.Set) []string {
			return service.ValidateEdits(set, req.Resume, req.Risk)
		},
		Store:         store,
		Interactor:    s.Interactor,
		Repairer:      s.Repairer,
		MaxIterations: s.MaxIterations,
		Log:           s.Log,
		Metrics:       s.Metrics,
	}
	if s.Generator != nil {
		loop.Correct = s.Generator.Corrector(in)
	}

	outcome, err := loop.Run(ctx, set)
	if err != nil {
		return Result{}, err
	}

	tailored, err := service.ApplyEdits(req.Resume, outcome.Set)
	if err != nil {
		return Result{}, fmt.Errorf("apply edits: %w", err)
	}
	diff, err := service.Diff(req.Resume, tailored)
	if err != nil {
		return Result{}, fmt.Errorf("diff: %w", err)
	}

	if err := render.WriteFile(req.OutputPath, tailored, req.ResumePath); err != nil {
		return Result{}, err
	}
	diffPath := filepath.Join(filepath.Dir(req.EditsPath), DiffFileName)
	if err := os.WriteFile(diffPath, []byte(diff), 0o644); err != nil {
		return Result{}, fmt.Errorf("write diff: %w", err)
	}

	s.Log.Info("tailor.complete", map[string]any{
		"output":     req.OutputPath,
		"ops":        len(outcome.Set.Ops),
		"warnings":   len(outcome.Warnings),
		"iterations": outcome.Iterations,
		"lines_in":   req.Resume.Len(),
		"lines_out":  tailored.Len(),
	})
	return Result{
		Set:        outcome.Set,
		Warnings:   outcome.Warnings,
		Iterations: outcome.Iterations,
		Tailored:   tailored,
		Diff:       diff,
		EditsPath:  req.EditsPath,
		OutputPath: req.OutputPath,
		DiffPath:   diffPath,
	}, nil
}

// initialSet loads the operator's edits or generates and persists a fresh set. A failed generation is
// persisted as an empty placeholder so manual repair has a file to edit.
func (s *Service) initialSet(ctx context.Context, store *resolve.FileStore, in llm.PromptInput, existing bool) (edits.Set, error) {
	if existing {
		set, err := store.Load()
		if err != nil {
			return edits.Set{}, fmt.Errorf("load edits %s: %w", store.Path(), err)
		}
		return set, nil
	}
	if s.Generator == nil {
		return edits.Set{}, ErrNoGenerator
	}

	set := s.Generator.Generate(ctx, in)
	persisted := set
	if set.Failure != nil {
		persisted = edits.Placeholder(s.Generator.Model)
	}
	if err := store.Save(persisted); err != nil {
		return edits.Set{}, fmt.Errorf("persist edits: %w", err)
	}
	return set, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
