package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/pkg/buildinfo"
	"github.com/fenrow/prehook/pkg/exitcode"
	"github.com/fenrow/prehook/pkg/logger"
)

// hookScriptMarker identifies scripts we wrote, so install and uninstall
// never clobber a hand-written hook.
const hookScriptMarker = "# managed by prehook"

const hookScriptTemplate = `#!/bin/sh
{{marker}}
# version: {{version}}
# installed: {{installedAt}}
#
# Runs the hooks declared in .prehook.yaml against staged files.
# Reinstall with: prehook install --force

exec prehook run --hook-stage pre-commit "$@"
`

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the git pre-commit hook script",
		RunE:  runInstall,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing pre-commit hook (after backing it up)")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the git pre-commit hook script",
		RunE:  runUninstall,
	}
}

func runInstall(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	hooksDir, err := gitHooksDir()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return exitWith(exitcode.GeneralError, fmt.Errorf("cannot create hooks dir: %w", err))
	}

	hookPath := filepath.Join(hooksDir, "pre-commit")
	if existing, err := os.ReadFile(hookPath); err == nil { // #nosec G304 -- path under .git/hooks
		if strings.Contains(string(existing), hookScriptMarker) {
			// Ours: safe to refresh in place.
		} else if force {
			backupPath := hookPath + ".backup"
			if err := os.Rename(hookPath, backupPath); err != nil {
				return exitWith(exitcode.GeneralError, fmt.Errorf("cannot back up existing hook: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up existing pre-commit hook to %s\n", backupPath)
		} else {
			return exitWith(exitcode.GeneralError,
				fmt.Errorf("a pre-commit hook already exists at %s; rerun with --force to replace it", hookPath))
		}
	}

	script, err := renderHookScript()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil { // #nosec G306 -- hook must be executable
		return exitWith(exitcode.GeneralError, fmt.Errorf("cannot write hook script: %w", err))
	}

	logger.Info("install: wrote pre-commit hook", logger.String("path", hookPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Installed pre-commit hook at %s\n", hookPath)
	return nil
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	hooksDir, err := gitHooksDir()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}

	hookPath := filepath.Join(hooksDir, "pre-commit")
	existing, err := os.ReadFile(hookPath) // #nosec G304 -- path under .git/hooks
	if os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook installed")
		return nil
	}
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	if !strings.Contains(string(existing), hookScriptMarker) {
		return exitWith(exitcode.GeneralError,
			fmt.Errorf("pre-commit hook at %s was not installed by prehook; not touching it", hookPath))
	}

	if err := os.Remove(hookPath); err != nil {
		return exitWith(exitcode.GeneralError, err)
	}

	// Restore a backup made by install --force, if one is waiting.
	backupPath := hookPath + ".backup"
	if _, err := os.Stat(backupPath); err == nil {
		if err := os.Rename(backupPath, hookPath); err != nil {
			return exitWith(exitcode.GeneralError, fmt.Errorf("cannot restore backed-up hook: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored previous pre-commit hook from %s\n", backupPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Removed pre-commit hook")
	return nil
}

func renderHookScript() (string, error) {
	out, err := raymond.Render(hookScriptTemplate, map[string]string{
		"marker":      hookScriptMarker,
		"version":     buildinfo.BinaryVersion,
		"installedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("cannot render hook script: %w", err)
	}
	return out, nil
}

// gitHooksDir locates .git/hooks for the current directory, following the
// gitdir pointer worktrees and submodules leave in place of a .git dir.
func gitHooksDir() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}

	gitPath := filepath.Join(root, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return "", fmt.Errorf("not a git repository (no .git in %s)", root)
	}

	if info.IsDir() {
		return filepath.Join(gitPath, "hooks"), nil
	}

	// .git is a file: "gitdir: <path>"
	data, err := os.ReadFile(gitPath) // #nosec G304 -- fixed .git path under cwd
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	target := strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))
	if target == "" {
		return "", fmt.Errorf("malformed .git file at %s", gitPath)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Join(target, "hooks"), nil
}
