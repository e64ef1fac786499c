package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-tailor/internal/llm"
)

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the model response cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.cache().Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "dir:      %s\n", s.Dir)
			fmt.Fprintf(c.out, "ttl:      %d day(s)\n", s.TTLDays)
			fmt.Fprintf(c.out, "entries:  %d (%d expired)\n", s.Entries, s.Expired)
			fmt.Fprintf(c.out, "size:     %.1f KiB\n", float64(s.SizeBytes)/1024)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := c.cache()
			var (
				n   int
				err error
			)
			if expiredOnly {
				n, err = cache.ClearExpired()
			} else {
				n, err = cache.Clear()
			}
			if err != nil {
				return err
			}
			c.log.Info("cli.cache.cleared", map[string]any{"removed": n, "expired_only": expiredOnly})
			fmt.Fprintf(c.out, "removed %d entr%s\n", n, plural(n, "y", "ies"))
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "Only remove expired or unreadable entries")

	cmd.AddCommand(stats, clearCmd)
	return cmd
}

func (c *cli) cache() *llm.Cache {
	return llm.NewCache(c.cfg.CacheDir, c.cfg.CacheTTL, llm.WithCacheLogger(c.log))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
