package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/internal/resolver"
	"github.com/fenrow/prehook/pkg/config"
	"github.com/fenrow/prehook/pkg/exitcode"
	"github.com/fenrow/prehook/pkg/logger"
)

func newGcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune cached hook sources the current configuration no longer pins",
		Long: `Gc removes clone cache entries that no source in the hook document
references. Bumping a rev leaves the old pin's clone behind; gc reclaims
that space.`,
		RunE: runGc,
	}

	cmd.Flags().StringP("config", "c", hookcfg.DefaultFileName, "Path to the hook document")
	cmd.Flags().Bool("dry-run", false, "List stale entries without deleting them")
	return cmd
}

func runGc(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	settings, err := config.LoadSettings()
	if err != nil {
		return exitWith(exitcode.ConfigError, err)
	}
	cfg, err := hookcfg.Load(configPath)
	if err != nil {
		return exitWith(exitcode.ConfigError, err)
	}

	cacheDir, err := settings.ResolveCacheDir()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}

	live := make(map[string]bool)
	for _, inv := range cfg.Invocations {
		if !inv.Source.IsLocal() {
			live[resolver.CacheKey(inv.Source)] = true
		}
	}

	entries, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
		return nil
	}
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}

	pruned := 0
	for _, entry := range entries {
		if !entry.IsDir() || live[entry.Name()] {
			continue
		}
		path := filepath.Join(cacheDir, entry.Name())
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Would remove %s\n", path)
			pruned++
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return exitWith(exitcode.GeneralError, fmt.Errorf("cannot remove %s: %w", path, err))
		}
		logger.Debug("gc: removed stale cache entry", logger.String("path", path))
		pruned++
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d stale cache entries\n", pruned)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale cache entries\n", pruned)
	}
	return nil
}
