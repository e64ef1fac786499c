package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/resolve"
	"resume-tailor/internal/tailor"
	"resume-tailor/resume/service"
)

func (c *cli) tailorCmd() *cobra.Command {
	var (
		resumePath   string
		jobPath      string
		editsPath    string
		outPath      string
		onError      string
		risk         string
		sectionsPath string
		useExisting  bool
		watch        bool
		maxIter      int
	)
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Generate, validate and apply edits for one job description",
		Long: `Runs the single-job pipeline: generate an edit set, persist it, resolve validation
findings according to --on-error (ask, retry, manual, fail:soft, fail:hard), apply it and
write the tailored resume plus diff.patch next to the edits file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			riskLevel, err := service.ParseRisk(orDefault(risk, c.cfg.Risk))
			if err != nil {
				return err
			}
			policy, err := resolve.ParsePolicy(orDefault(onError, c.cfg.OnError))
			if err != nil {
				return err
			}

			resume, err := extract.ReadResume(ctx, resumePath)
			if err != nil {
				return err
			}
			var jobText string
			if !useExisting {
				if jobPath == "" {
					return fmt.Errorf("--job is required unless --use-existing is set")
				}
				if jobText, err = extract.ReadText(ctx, jobPath); err != nil {
					return err
				}
			}
			sections, err := readOptional(sectionsPath)
			if err != nil {
				return err
			}

			if editsPath == "" {
				editsPath = filepath.Join(c.cfg.OutputDir, "edits.json")
			}
			if outPath == "" {
				outPath = filepath.Join(c.cfg.OutputDir, "tailored_resume"+extOr(resumePath, ".txt"))
			}
			if err := os.MkdirAll(filepath.Dir(editsPath), 0o755); err != nil {
				return fmt.Errorf("create edits dir: %w", err)
			}

			app, err := bootstrap.Build(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer app.Close()

			svc := &tailor.Service{
				Generator:     app.Generator(),
				MaxIterations: max(maxIter, c.cfg.MaxResolveIterations),
				Log:           c.log,
				Metrics:       app.Metrics,
			}
			if f, ok := c.in.(*os.File); ok && resolve.IsTerminal(f) {
				prompter := resolve.NewPrompter(c.in, c.out)
				svc.Interactor = prompter
				svc.Repairer = prompter
			}
			if watch {
				svc.Repairer = &resolve.FileWatcher{Out: c.out, Log: c.log}
			}

			res, err := svc.Tailor(ctx, tailor.Request{
				ResumePath:       resumePath,
				Resume:           resume,
				JobText:          jobText,
				SectionsJSON:     sections,
				EditsPath:        editsPath,
				OutputPath:       outPath,
				Risk:             riskLevel,
				Policy:           policy,
				UseExistingEdits: useExisting,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "wrote %s (%d op(s), %d resolution round(s))\n", res.OutputPath, len(res.Set.Ops), res.Iterations)
			fmt.Fprintf(c.out, "edits: %s\ndiff: %s\n", res.EditsPath, res.DiffPath)
			if len(res.Warnings) > 0 {
				fmt.Fprintf(c.out, "accepted with %d warning(s):\n", len(res.Warnings))
				for _, w := range res.Warnings {
					fmt.Fprintf(c.out, "  - %s\n", w)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Resume file")
	cmd.Flags().StringVarP(&jobPath, "job", "j", "", "Job description file")
	cmd.Flags().StringVarP(&editsPath, "edits", "e", "", "Working edits file (default <output-dir>/edits.json)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default <output-dir>/tailored_resume<ext>)")
	cmd.Flags().StringVar(&onError, "on-error", "", "Resolution policy: ask, retry, manual, fail:soft, fail:hard")
	cmd.Flags().StringVar(&risk, "risk", "", "Validation strictness: low, med, high, strict")
	cmd.Flags().StringVar(&sectionsPath, "sections", "", "Optional sections JSON")
	cmd.Flags().BoolVar(&useExisting, "use-existing", false, "Start from the edits file instead of generating")
	cmd.Flags().BoolVar(&watch, "watch", false, "Wait for the edits file to change during manual repair")
	cmd.Flags().IntVar(&maxIter, "max-iterations", 0, "Cap resolution rounds (0 = unbounded)")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func extOr(path, fallback string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return fallback
}
