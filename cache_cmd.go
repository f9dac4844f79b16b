package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/tts"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	pruneOlderThan time.Duration

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the synthesized audio cache",
		Long:  paragraph(fmt.Sprintf("\n%s audio is kept so repeated phrases skip the engine.", keyword("Synthesized"))),
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openConfiguredCache()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			w := cmd.OutOrStdout()
			for _, s := range m.Stats() {
				if s.Level == cache.LevelMemory {
					// Memory is empty in a fresh process.
					continue
				}
				fmt.Fprintf(w, "%s %s of %s, %s\n",
					keyword(s.Level.String()+":"),
					humanize.IBytes(uint64(s.Size)),
					humanize.IBytes(uint64(s.Capacity)),
					entries(s.Items))
			}
			if d := m.Disk(); d != nil && d.Stats().Size > 0 {
				orig := d.OriginalSize()
				fmt.Fprintf(w, "%s %s uncompressed (%.1fx)\n",
					faint("audio:"),
					humanize.IBytes(uint64(orig)),
					float64(orig)/float64(d.Stats().Size))
			}
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openConfiguredCache()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			if err := m.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}

	cachePruneCmd = &cobra.Command{
		Use:     "prune",
		Short:   "Remove cached audio older than a given age",
		Example: paragraph("speak cache prune\nspeak cache prune --older-than 24h"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := tts.LoadConfigFromViper()
			if err != nil {
				return err
			}
			m, err := openConfiguredCache()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			age := cfg.Cache.MaxAge
			if cmd.Flags().Changed("older-than") {
				age = pruneOlderThan
			}
			d := m.Disk()
			if d == nil {
				return errDiskCacheDisabled
			}
			n := d.Prune(age)
			log.Debug("Pruned cache", "removed", n, "age", age)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s older than %s.\n", entries(n), age)
			return nil
		},
	}
)

var (
	errCacheDisabled     = errors.New("the audio cache is disabled (tts.cache.enabled)")
	errDiskCacheDisabled = errors.New("the disk cache is disabled (tts.cache.disk_mb)")
)

func openConfiguredCache() (*cache.Manager, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, errCacheDisabled
	}
	return openCache(cfg.Cache)
}

func entries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return humanize.Comma(int64(n)) + " entries"
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age limit (default tts.cache.max_age)")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
}
