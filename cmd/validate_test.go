package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrow/prehook/pkg/exitcode"
)

const validDocument = `repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v4.6.0
    hooks:
      - id: trailing-whitespace
  - repo: local
    hooks:
      - id: pytest
        name: pytest
        entry: poetry run pytest
        language: system
        pass_filenames: false
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".prehook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateAcceptsPinnedDocument(t *testing.T) {
	path := writeDocument(t, validDocument)

	out, err := executeCommand(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateRejectsMovingRev(t *testing.T) {
	path := writeDocument(t, `repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: main
    hooks:
      - id: trailing-whitespace
`)

	out, err := executeCommand(t, "validate", "--config", path)
	assert.Equal(t, exitcode.ConfigError, exitCodeOf(t, err))
	assert.Contains(t, out, "moving revision")
}

func TestValidateRejectsMissingRev(t *testing.T) {
	path := writeDocument(t, `repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    hooks:
      - id: trailing-whitespace
`)

	_, err := executeCommand(t, "validate", "--config", path)
	assert.Equal(t, exitcode.ConfigError, exitCodeOf(t, err))
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	path := writeDocument(t, `repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v4.6.0
    hooks:
      - id: trailing-whitespace
        shell: /bin/bash
`)

	_, err := executeCommand(t, "validate", "--config", path)
	assert.Equal(t, exitcode.ConfigError, exitCodeOf(t, err))
}

func TestValidateMissingFile(t *testing.T) {
	_, err := executeCommand(t, "validate", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, exitcode.ConfigError, exitCodeOf(t, err))
}

func TestValidateCustomPolicy(t *testing.T) {
	docPath := writeDocument(t, validDocument)
	policyPath := filepath.Join(t.TempDir(), "strict.rego")
	require.NoError(t, os.WriteFile(policyPath, []byte(`package prehook.hooks

deny contains msg if {
	entry := input.repos[_]
	entry.repo == "local"
	msg := "local hooks forbidden"
}
`), 0o644))

	out, err := executeCommand(t, "validate", "--config", docPath, "--policy", policyPath)
	assert.Equal(t, exitcode.ConfigError, exitCodeOf(t, err))
	assert.Contains(t, out, "local hooks forbidden")
}
