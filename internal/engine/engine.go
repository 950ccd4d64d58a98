// Package engine runs selected hooks against their file sets with bounded
// parallelism, per-hook timeouts, and mutation tracking.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/internal/resolver"
	"github.com/fenrow/prehook/pkg/logger"
)

// Status is the lifecycle state of a hook run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FailureKind classifies why a hook run failed.
type FailureKind string

const (
	// KindHookFailure means the hook ran to completion and exited non-zero.
	KindHookFailure FailureKind = "hook_failure"
	// KindExecutionError means the hook process could not be started.
	KindExecutionError FailureKind = "execution_error"
	// KindTimeout means the hook exceeded its time budget and was killed.
	KindTimeout FailureKind = "timeout"
	// KindSelectionError means the hook's file filters could not be applied
	// (for example a malformed pattern) and the hook never ran.
	KindSelectionError FailureKind = "selection_error"
)

// DefaultTimeout bounds hooks that carry no timeout of their own.
const DefaultTimeout = 2 * time.Minute

// Task pairs a configured hook invocation with its resolved definition and
// the files selected for it.
type Task struct {
	Invocation hookcfg.Invocation
	Definition resolver.Definition
	Files      []string
	// Mutating marks hooks that may rewrite their input files (formatters,
	// fixers). Mutating tasks never run concurrently with anything else.
	Mutating bool
	// SelectErr carries a file-selection failure for this hook. A task with
	// SelectErr set is reported as failed without executing, so one bad
	// pattern does not stop the sibling hooks.
	SelectErr error
}

// Result is the outcome of one hook run.
type Result struct {
	HookID    string        `json:"hook_id"`
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Kind      FailureKind   `json:"failure_kind,omitempty"`
	ExitCode  int           `json:"exit_code"`
	FileCount int           `json:"file_count"`
	Mutated   bool          `json:"mutated,omitempty"`
	Output    string        `json:"output,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Config configures an engine run.
type Config struct {
	// Root is the working directory hooks execute in (typically repo root).
	Root string
	// Workers bounds parallel hook execution. Zero or negative means NumCPU.
	Workers int
	// DefaultTimeout applies to hooks without their own timeout.
	DefaultTimeout time.Duration
	// Sequential forces one-at-a-time execution in declaration order.
	Sequential bool
	// Progress, when set, receives each result as it completes. It may be
	// called from multiple worker goroutines.
	Progress func(Result)
	// Env overrides the process environment for hooks (nil inherits).
	Env []string
}

// Engine executes hook tasks.
type Engine struct {
	cfg Config
}

// New creates an Engine, applying defaults for unset config fields.
func New(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	return &Engine{cfg: cfg}
}

// Run executes every task and returns results in task order. Non-mutating
// tasks run on a bounded worker pool; mutating tasks run afterwards, one at
// a time, so formatters never race readers over the same files.
func (e *Engine) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	var parallel, serial []int
	for i, task := range tasks {
		if e.cfg.Sequential || task.Mutating {
			serial = append(serial, i)
		} else {
			parallel = append(parallel, i)
		}
	}

	logger.Debug("engine: starting run",
		logger.Int("tasks", len(tasks)),
		logger.Int("workers", e.cfg.Workers),
		logger.Int("serialized", len(serial)))

	if len(parallel) > 0 {
		indexChan := make(chan int, len(parallel))
		var wg sync.WaitGroup
		workers := e.cfg.Workers
		if workers > len(parallel) {
			workers = len(parallel)
		}
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexChan {
					results[i] = e.runTask(ctx, tasks[i])
					e.report(results[i])
				}
			}()
		}
		for _, i := range parallel {
			indexChan <- i
		}
		close(indexChan)
		wg.Wait()
	}

	for _, i := range serial {
		results[i] = e.runTask(ctx, tasks[i])
		e.report(results[i])
	}

	return results
}

func (e *Engine) report(result Result) {
	if e.cfg.Progress != nil {
		e.cfg.Progress(result)
	}
}

// runTask executes one hook with its timeout and classifies the outcome.
func (e *Engine) runTask(ctx context.Context, task Task) Result {
	hook := task.Invocation.Hook
	result := Result{
		HookID:    hook.ID,
		Name:      displayName(task),
		Status:    StatusRunning,
		FileCount: len(task.Files),
	}

	if task.SelectErr != nil {
		result.Status = StatusFailed
		result.Kind = KindSelectionError
		result.ExitCode = -1
		result.Output = task.SelectErr.Error()
		logger.Warn("engine: hook selection failed",
			logger.String("hook", hook.ID),
			logger.Err(task.SelectErr))
		return result
	}

	if len(task.Files) == 0 && !alwaysRuns(task) {
		result.Status = StatusSkipped
		logger.Debug("engine: hook skipped, no matching files", logger.String("hook", hook.ID))
		return result
	}

	argv, err := buildArgv(task)
	if err != nil {
		result.Status = StatusFailed
		result.Kind = KindExecutionError
		result.ExitCode = -1
		result.Output = err.Error()
		return result
	}

	timeout := e.timeoutFor(hook)
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	before := hashFiles(e.cfg.Root, task.Files)

	start := time.Now()
	// #nosec G204 -- argv comes from the checked-in hook document and the
	// resolved source manifest, the same trust level as a Makefile.
	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	cmd.Dir = e.cfg.Root
	if e.cfg.Env != nil {
		cmd.Env = e.cfg.Env
	} else {
		cmd.Env = os.Environ()
	}
	output, runErr := cmd.CombinedOutput()
	result.Duration = time.Since(start)
	result.Output = string(output)
	result.Mutated = before != hashFiles(e.cfg.Root, task.Files)

	switch {
	case cmdCtx.Err() == context.DeadlineExceeded:
		result.Status = StatusFailed
		result.Kind = KindTimeout
		result.ExitCode = -1
		result.Output = fmt.Sprintf("timed out after %s", timeout)
		logger.Warn("engine: hook timed out",
			logger.String("hook", hook.ID),
			logger.Duration("timeout", timeout))
	case runErr == nil:
		result.Status = StatusPassed
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		result.Status = StatusFailed
		if errors.As(runErr, &exitErr) {
			result.Kind = KindHookFailure
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Kind = KindExecutionError
			result.ExitCode = -1
			result.Output = runErr.Error()
		}
	}

	return result
}

// timeoutFor returns the hook's own timeout when set, the run default
// otherwise. Timeout strings are validated at config load time.
func (e *Engine) timeoutFor(hook hookcfg.HookEntry) time.Duration {
	if hook.Timeout != "" {
		if parsed, err := time.ParseDuration(hook.Timeout); err == nil {
			return parsed
		}
	}
	return e.cfg.DefaultTimeout
}

// buildArgv merges the entry command, manifest default args, invocation
// args, and the selected files into a single argv. Entries are split on
// whitespace; shell quoting is not interpreted.
func buildArgv(task Task) ([]string, error) {
	entry := task.Invocation.Hook.Entry
	if entry == "" {
		entry = task.Definition.Entry
	}
	argv := strings.Fields(entry)
	if len(argv) == 0 {
		return nil, fmt.Errorf("hook %s has an empty entry", task.Invocation.Hook.ID)
	}

	argv = append(argv, task.Definition.Args...)
	argv = append(argv, task.Invocation.Hook.Args...)

	if passesFilenames(task) {
		argv = append(argv, task.Files...)
	}
	return argv, nil
}

// passesFilenames applies the invocation override over the manifest default.
func passesFilenames(task Task) bool {
	if task.Invocation.Hook.PassFilenames != nil {
		return *task.Invocation.Hook.PassFilenames
	}
	return task.Definition.PassesFilenames()
}

func alwaysRuns(task Task) bool {
	return task.Invocation.Hook.AlwaysRun || task.Definition.AlwaysRun
}

func displayName(task Task) string {
	if task.Invocation.Hook.Name != "" {
		return task.Invocation.Hook.Name
	}
	if task.Definition.Name != "" {
		return task.Definition.Name
	}
	return task.Invocation.Hook.ID
}

// LikelyMutating reports whether a hook looks like a formatter or fixer
// that rewrites its input files, based on its entry and arguments. Callers
// use it to decide which tasks to serialize.
func LikelyMutating(task Task) bool {
	markers := []string{"--fix", "--write", "-w", "--in-place", "-i"}
	for _, arg := range append(append([]string{}, task.Definition.Args...), task.Invocation.Hook.Args...) {
		for _, marker := range markers {
			if arg == marker {
				return true
			}
		}
	}
	entry := task.Invocation.Hook.Entry
	if entry == "" {
		entry = task.Definition.Entry
	}
	for _, word := range []string{"format", "fmt", "fixer"} {
		if strings.Contains(entry, word) {
			return true
		}
	}
	return false
}

// hashFiles digests the content of the given files so a run can detect
// hooks that rewrote their inputs. Unreadable files hash as absent.
func hashFiles(root string, files []string) string {
	h := sha256.New()
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, rel))
		h.Write([]byte(rel))
		if err != nil {
			h.Write([]byte{0})
			continue
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
