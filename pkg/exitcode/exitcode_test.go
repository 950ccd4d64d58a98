package exitcode

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{Success, "Success"},
		{HooksFailed, "One or more hooks failed"},
		{ConfigError, "Configuration error"},
		{ResolutionError, "Hook source resolution error"},
		{SelectionError, "File selection error"},
		{ExecutionError, "Hook execution error"},
		{TimeoutError, "Timeout error"},
		{GeneralError, "General error"},
		{42, "Unknown error"},
	}

	for _, tt := range tests {
		if got := String(tt.code); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCodesAreDistinct(t *testing.T) {
	codes := []int{Success, HooksFailed, ConfigError, ResolutionError, SelectionError, ExecutionError, TimeoutError, GeneralError}
	seen := make(map[int]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}
