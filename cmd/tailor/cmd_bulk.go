package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/bulk"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/resolve"
	"resume-tailor/internal/runs"
	"resume-tailor/internal/tailor"
	"resume-tailor/resume/service"
)

func (c *cli) bulkCmd() *cobra.Command {
	var (
		resumePath   string
		jobsPath     string
		parallel     int
		failFast     bool
		outputDir    string
		onError      string
		risk         string
		sectionsPath string
		maxIDLength  int
	)
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Tailor one resume to many job descriptions and rank the results",
		Long: `--jobs accepts a directory (*.txt then *.md), a glob, a single file, or a YAML/JSON manifest:

  jobs:
    - path: backend.txt
      id: acme-backend
      name: Backend Engineer
      company: Acme

Each job gets its own directory under <output-dir>/bulk_<timestamp>/. Results are ranked by
fit score and written to matrix.json and matrix.md. Without --on-error, findings fail the
job softly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("parallel") {
				c.cfg.Parallel = parallel
			}
			if cmd.Flags().Changed("fail-fast") {
				c.cfg.FailFast = failFast
			}
			if cmd.Flags().Changed("max-id-length") {
				c.cfg.MaxIDLength = maxIDLength
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			outDir := orDefault(outputDir, c.cfg.OutputDir)

			riskLevel, err := service.ParseRisk(orDefault(risk, c.cfg.Risk))
			if err != nil {
				return err
			}
			policy := resolve.PolicyFailSoft
			if onError != "" {
				if policy, err = resolve.ParsePolicy(onError); err != nil {
					return err
				}
			}

			resume, err := extract.ReadResume(ctx, resumePath)
			if err != nil {
				return err
			}
			sections, err := readOptional(sectionsPath)
			if err != nil {
				return err
			}

			app, err := bootstrap.Build(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer app.Close()
			store, err := app.Store(ctx, outDir)
			if err != nil {
				return err
			}

			svc := &tailor.Service{
				Generator:     app.Generator(),
				MaxIterations: c.cfg.MaxResolveIterations,
				Log:           c.log,
				Metrics:       app.Metrics,
			}
			retry := bulk.DefaultRetryPolicy()
			retry.Attempts = c.cfg.RetryAttempts
			retry.BaseDelay = c.cfg.RetryBaseDelay

			runner := &bulk.Runner{
				Config: bulk.Config{
					Resume:       resumePath,
					Model:        c.cfg.LLMModel,
					Risk:         riskLevel.String(),
					OnError:      string(policy),
					Parallel:     c.cfg.Parallel,
					FailFast:     c.cfg.FailFast,
					MaxIDLength:  c.cfg.MaxIDLength,
					SectionsJSON: sections,
					OutputDir:    outDir,
				},
				Pipeline: &tailor.BulkPipeline{
					Service:      svc,
					ResumePath:   resumePath,
					Resume:       resume,
					SectionsJSON: sections,
					Risk:         riskLevel,
					Policy:       policy,
					Store:        store,
				},
				Store:    store,
				Retry:    retry,
				Recorder: runs.NewRecorder(app.Runs, c.log),
				Log:      c.log,
				Metrics:  app.Metrics,
				OnJobStart: func(spec bulk.JobSpec, index, total int) {
					fmt.Fprintf(c.out, "[%d/%d] %s\n", index, total, spec.DisplayName())
				},
				OnJobComplete: func(res bulk.JobResult, completed, total int) {
					line := fmt.Sprintf("[%d/%d] %s %s", completed, total, res.Spec.ID, res.Status)
					if res.Err != "" {
						line += ": " + firstLine(res.Err)
					}
					fmt.Fprintln(c.out, line)
				},
			}

			res, err := runner.Run(ctx, jobsPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out)
			fmt.Fprint(c.out, bulk.RenderSummary(res))
			if res.Count(bulk.StatusFailed) > 0 {
				return fmt.Errorf("%d of %d job(s) failed", res.Count(bulk.StatusFailed), len(res.Jobs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Resume file")
	cmd.Flags().StringVarP(&jobsPath, "jobs", "j", "", "Jobs directory, glob, file or manifest")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Concurrent jobs")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Skip remaining jobs after the first failure (sequential runs only)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output root (default from config)")
	cmd.Flags().StringVar(&onError, "on-error", "", "Resolution policy per job (default fail:soft)")
	cmd.Flags().StringVar(&risk, "risk", "", "Validation strictness: low, med, high, strict")
	cmd.Flags().StringVar(&sectionsPath, "sections", "", "Optional sections JSON")
	cmd.Flags().IntVar(&maxIDLength, "max-id-length", bulk.DefaultMaxIDLength, "Longest job ID")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("jobs")
	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
