package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/internal/engine"
	"github.com/fenrow/prehook/internal/gitctx"
	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/internal/report"
	"github.com/fenrow/prehook/internal/resolver"
	"github.com/fenrow/prehook/internal/selector"
	"github.com/fenrow/prehook/pkg/config"
	"github.com/fenrow/prehook/pkg/exitcode"
	"github.com/fenrow/prehook/pkg/ignore"
	"github.com/fenrow/prehook/pkg/logger"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run configured hooks against staged files",
		Long: `Run resolves every hook source pinned in the hook document, selects the
files each hook applies to, and executes the hooks. Exit status is zero
only when every executed hook passes.`,
		RunE: runRun,
	}

	cmd.Flags().Bool("all-files", false, "Run against every tracked file instead of staged files")
	cmd.Flags().StringSlice("files", nil, "Run against an explicit file list (repo-relative paths)")
	cmd.Flags().StringP("config", "c", hookcfg.DefaultFileName, "Path to the hook document")
	cmd.Flags().String("hook-stage", "pre-commit", "Only run hooks declared for this stage")
	cmd.Flags().Bool("sequential", false, "Run hooks one at a time in declaration order")
	cmd.Flags().String("format", "", "Output format: pretty or json (default from settings)")
	cmd.Flags().String("junit", "", "Also write a JUnit XML report to this path")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	allFiles, _ := cmd.Flags().GetBool("all-files")
	explicitFiles, _ := cmd.Flags().GetStringSlice("files")
	configPath, _ := cmd.Flags().GetString("config")
	stage, _ := cmd.Flags().GetString("hook-stage")
	sequential, _ := cmd.Flags().GetBool("sequential")
	format, _ := cmd.Flags().GetString("format")
	junitPath, _ := cmd.Flags().GetString("junit")
	noColor, _ := cmd.Flags().GetBool("no-color")

	settings, err := config.LoadSettings()
	if err != nil {
		return exitWith(exitcode.ConfigError, err)
	}
	if format == "" {
		format = settings.Output.Format
	}

	root, err := os.Getwd()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}

	cfg, err := hookcfg.Load(configPath)
	if err != nil {
		return exitWith(exitcode.ConfigError, err)
	}

	files, meta, err := collectFiles(root, allFiles, explicitFiles)
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	logger.Debug("run: collected files", logger.Int("count", len(files)))

	invocations := stageInvocations(cfg.Invocations, stage)
	if len(invocations) == 0 {
		logger.Info("run: no hooks apply to this stage")
		return nil
	}

	cacheDir, err := settings.ResolveCacheDir()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	res := resolver.New(cacheDir)

	// Only sources referenced by in-stage hooks are fetched.
	sources := make([]hookcfg.HookSource, 0, len(invocations))
	for _, inv := range invocations {
		sources = append(sources, inv.Source)
	}
	if err := res.ResolveAll(cmd.Context(), sources); err != nil {
		return exitWith(exitcode.ResolutionError, err)
	}

	matcher, err := ignore.NewMatcher(root)
	if err != nil {
		logger.Warn("run: ignore rules unavailable", logger.Err(err))
		matcher = nil
	}
	sel := selector.New(root, files, selector.Options{
		GlobalExclude: cfg.Exclude,
		ExcludeGlobs:  settings.Run.ExcludeGlobs,
		IgnoreMatcher: matcher,
	})

	tasks, err := buildTasks(cmd, invocations, res, sel)
	if err != nil {
		return exitWith(exitcode.ResolutionError, err)
	}

	eng := engine.New(engine.Config{
		Root:           root,
		Workers:        settings.WorkerCount(runtime.NumCPU()),
		DefaultTimeout: settings.Run.HookTimeout,
		Sequential:     sequential || settings.Run.Sequential,
	})
	results := eng.Run(cmd.Context(), tasks)

	rep := report.New(report.Metadata{
		Root:   root,
		GitSHA: meta.GitSHA,
		Branch: meta.Branch,
	}, results)

	switch format {
	case "json":
		if err := rep.WriteJSON(cmd.OutOrStdout()); err != nil {
			return exitWith(exitcode.GeneralError, err)
		}
	default:
		color := settings.Output.Color && !noColor
		if err := rep.WritePretty(cmd.OutOrStdout(), color); err != nil {
			return exitWith(exitcode.GeneralError, err)
		}
	}

	if junitPath != "" {
		if err := writeJUnitFile(rep, junitPath); err != nil {
			return exitWith(exitcode.GeneralError, err)
		}
	}

	if code := runExitCode(results); code != exitcode.Success {
		return exitWith(code, nil)
	}
	return nil
}

// collectFiles decides the candidate file set: an explicit list wins, then
// --all-files, then the staged set. Git metadata rides along when available.
func collectFiles(root string, allFiles bool, explicit []string) ([]string, gitctx.ChangeContext, error) {
	var meta gitctx.ChangeContext
	if ctx, err := gitctx.CollectStaged(root); err == nil && ctx != nil {
		meta = *ctx
	}

	switch {
	case len(explicit) > 0:
		return explicit, meta, nil
	case allFiles:
		tracked, err := gitctx.CollectTracked(root)
		if err != nil {
			return nil, meta, fmt.Errorf("cannot list tracked files: %w", err)
		}
		return tracked, meta, nil
	default:
		return meta.StagedFiles, meta, nil
	}
}

// buildTasks resolves each invocation's definition and selects its files.
// A selection failure is scoped to its hook: the task is marked failed and
// the sibling hooks still run.
func buildTasks(cmd *cobra.Command, invocations []hookcfg.Invocation, res *resolver.Resolver, sel *selector.Selector) ([]engine.Task, error) {
	var tasks []engine.Task
	for _, inv := range invocations {
		var def resolver.Definition
		if inv.Source.IsLocal() {
			def = resolver.LocalDefinition(inv.Hook)
		} else {
			var err error
			def, err = res.LookupHook(cmd.Context(), inv.Source, inv.Hook.ID)
			if err != nil {
				return nil, err
			}
		}

		effective := effectiveInvocation(inv, def)
		task := engine.Task{Invocation: effective, Definition: def}

		selected, err := sel.ForHook(effective)
		if err != nil {
			var se *selector.SelectionError
			if !errors.As(err, &se) {
				return nil, err
			}
			task.SelectErr = err
		} else {
			task.Files = selected
			task.Mutating = engine.LikelyMutating(task)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// stageInvocations keeps the invocations whose hook declares the requested
// stage, so sources referenced only by out-of-stage hooks are never fetched.
func stageInvocations(invocations []hookcfg.Invocation, stage string) []hookcfg.Invocation {
	var kept []hookcfg.Invocation
	for _, inv := range invocations {
		if !stageMatches(inv.Hook.Stages, stage) {
			logger.Debug("run: hook out of stage", logger.String("hook", inv.Hook.ID), logger.String("stage", stage))
			continue
		}
		kept = append(kept, inv)
	}
	return kept
}

// effectiveInvocation fills invocation filters left empty from the manifest
// definition, so selection sees manifest defaults with config overrides.
func effectiveInvocation(inv hookcfg.Invocation, def resolver.Definition) hookcfg.Invocation {
	hook := inv.Hook
	if hook.Files == "" {
		hook.Files = def.Files
	}
	if hook.Exclude == "" {
		hook.Exclude = def.Exclude
	}
	if len(hook.Types) == 0 {
		hook.Types = def.Types
	}
	if len(hook.TypesOr) == 0 {
		hook.TypesOr = def.TypesOr
	}
	inv.Hook = hook
	return inv
}

// stageMatches treats hooks without declared stages as pre-commit hooks.
func stageMatches(stages []string, stage string) bool {
	if len(stages) == 0 {
		return stage == "pre-commit"
	}
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

func writeJUnitFile(rep *report.Report, path string) error {
	f, err := os.Create(path) // #nosec G304 -- user-specified output path
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return rep.WriteJUnit(f)
}

// runExitCode maps run results to the process exit code. Start failures,
// selection failures, and timeouts outrank ordinary hook failures so wrapper
// scripts can tell infrastructure problems from findings.
func runExitCode(results []engine.Result) int {
	code := exitcode.Success
	for _, r := range results {
		if r.Status != engine.StatusFailed {
			continue
		}
		switch r.Kind {
		case engine.KindExecutionError:
			return exitcode.ExecutionError
		case engine.KindSelectionError:
			code = exitcode.SelectionError
		case engine.KindTimeout:
			if code != exitcode.SelectionError {
				code = exitcode.TimeoutError
			}
		default:
			if code == exitcode.Success {
				code = exitcode.HooksFailed
			}
		}
	}
	return code
}
