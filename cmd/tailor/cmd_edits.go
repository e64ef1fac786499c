package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/tailor"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
	"resume-tailor/resume/render"
	"resume-tailor/resume/service"
)

type editsFlags struct {
	resume string
	edits  string
	risk   string
}

func (f *editsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.resume, "resume", "r", "", "Resume file (txt, md, tex, typ, docx, pdf)")
	cmd.Flags().StringVarP(&f.edits, "edits", "e", "", "Edits JSON file")
	cmd.Flags().StringVar(&f.risk, "risk", "", "Validation strictness: low, med, high, strict")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("edits")
}

func (c *cli) loadEdits(cmd *cobra.Command, f editsFlags) (model.Buffer, edits.Set, service.Risk, error) {
	risk, err := service.ParseRisk(orDefault(f.risk, c.cfg.Risk))
	if err != nil {
		return model.Buffer{}, edits.Set{}, risk, err
	}
	buf, err := extract.ReadResume(cmd.Context(), f.resume)
	if err != nil {
		return model.Buffer{}, edits.Set{}, risk, err
	}
	data, err := os.ReadFile(f.edits)
	if err != nil {
		return model.Buffer{}, edits.Set{}, risk, fmt.Errorf("read edits: %w", err)
	}
	set, err := edits.Decode(data)
	if err != nil {
		return model.Buffer{}, edits.Set{}, risk, fmt.Errorf("%s: %w", f.edits, err)
	}
	return buf, set, risk, nil
}

func (c *cli) printFindings(findings []string) {
	fmt.Fprintf(c.out, "%d finding(s):\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(c.out, "  - %s\n", f)
	}
}

func (c *cli) validateCmd() *cobra.Command {
	var f editsFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an edit set against a resume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, set, risk, err := c.loadEdits(cmd, f)
			if err != nil {
				return err
			}
			findings := service.ValidateEdits(set, buf, risk)
			c.log.Debug("cli.validate", map[string]any{"ops": len(set.Ops), "findings": len(findings), "risk": risk.String()})
			if len(findings) > 0 {
				c.printFindings(findings)
				return errFindings
			}
			fmt.Fprintf(c.out, "OK: %d op(s) valid against %d line(s) at risk %s\n", len(set.Ops), buf.Len(), risk)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) applyCmd() *cobra.Command {
	var (
		f     editsFlags
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Validate and apply an edit set, writing the tailored resume and a diff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, set, risk, err := c.loadEdits(cmd, f)
			if err != nil {
				return err
			}
			findings := service.ValidateEdits(set, buf, risk)
			if len(findings) > 0 {
				c.printFindings(findings)
				if !force {
					fmt.Fprintln(c.out, "refusing to apply; rerun with --force to apply anyway")
					return errFindings
				}
			}

			tailored, err := service.ApplyEdits(buf, set)
			if err != nil {
				return fmt.Errorf("apply edits: %w", err)
			}
			if err := render.WriteFile(out, tailored, f.resume); err != nil {
				return err
			}
			diff, err := service.Diff(buf, tailored)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			diffPath := filepath.Join(filepath.Dir(f.edits), tailor.DiffFileName)
			if err := os.WriteFile(diffPath, []byte(diff), 0o644); err != nil {
				return fmt.Errorf("write diff: %w", err)
			}

			c.log.Info("cli.apply.complete", map[string]any{"output": out, "ops": len(set.Ops), "forced": force && len(findings) > 0})
			fmt.Fprintf(c.out, "wrote %s (%d -> %d lines)\n", out, buf.Len(), tailored.Len())
			fmt.Fprintf(c.out, "diff: %s\n", diffPath)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; the extension selects the format")
	cmd.Flags().BoolVar(&force, "force", false, "Apply even when validation reports findings")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
