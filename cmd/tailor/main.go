// Command tailor validates, applies and generates line-oriented resume edits, one job at a time or in bulk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/telemetry"
)

// errFindings signals a non-zero exit after findings were already printed.
var errFindings = errors.New("validation findings")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	verbose  bool
	logLevel string

	cfg config.Config
	log *telemetry.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "tailor",
		Short: "Tailor a resume to job descriptions with validated line edits",
		Long: `tailor asks a model for line-oriented edits to a resume, validates them against the
resume's line numbering, resolves findings according to the --on-error policy and writes
the tailored document with a unified diff.

Configuration comes from the environment and an optional YAML file named by TAILOR_CONFIG
(default .tailor/config.yaml). Flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if c.logLevel != "" {
				level = c.logLevel
			}
			log, err := telemetry.New(level, c.verbose)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		c.validateCmd(),
		c.applyCmd(),
		c.tailorCmd(),
		c.bulkCmd(),
		c.cacheCmd(),
		c.serveCmd(),
	)
	return root
}

// orDefault returns flag when it was set, else fallback.
func orDefault(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
