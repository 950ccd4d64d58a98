// Package exitcode provides standardized exit codes for prehook
package exitcode

// Exit codes for the prehook CLI
const (
	Success         = 0
	HooksFailed     = 1
	ConfigError     = 2
	ResolutionError = 3
	SelectionError  = 4
	ExecutionError  = 5
	TimeoutError    = 6
	GeneralError    = 10
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case HooksFailed:
		return "One or more hooks failed"
	case ConfigError:
		return "Configuration error"
	case ResolutionError:
		return "Hook source resolution error"
	case SelectionError:
		return "File selection error"
	case ExecutionError:
		return "Hook execution error"
	case TimeoutError:
		return "Timeout error"
	case GeneralError:
		return "General error"
	default:
		return "Unknown error"
	}
}
