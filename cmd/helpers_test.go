package cmd

import (
	"bytes"
	"errors"
	"testing"
)

// executeCommand runs a fresh command tree with the given args and returns
// captured output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	registerSubcommands(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// exitCodeOf unwraps the exit code a command error carries, zero for nil.
func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *exitError, got %T: %v", err, err)
	}
	return ee.code
}
