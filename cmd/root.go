package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/pkg/buildinfo"
	"github.com/fenrow/prehook/pkg/exitcode"
	"github.com/fenrow/prehook/pkg/logger"
)

// exitError carries a process exit code out of a command's RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return exitcode.String(e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

// newRootCommand creates a fresh root command instance.
// The factory pattern lets tests build isolated command trees without
// shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prehook",
		Short: "Declarative git pre-commit hook runner",
		Long: `Prehook runs the hooks declared in .prehook.yaml against staged files.
Hook definitions are fetched from pinned source repositories and cached
locally, so a given configuration always runs the same hook code.

Examples:
   prehook run              # Run hooks against staged files
   prehook run --all-files  # Run hooks against every tracked file
   prehook install          # Install the git pre-commit hook script
   prehook validate         # Check .prehook.yaml against schema and pin policy`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("prehook {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// Called from init() for production and explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newUninstallCmd())
	cmd.AddCommand(newGcCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newEnvinfoCmd())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and maps command errors to exit codes.
// Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				logger.Error(ee.err.Error())
			}
			os.Exit(ee.code)
		}
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "prehook",
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}

func init() {
	registerSubcommands(rootCmd)
}
