package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrow/prehook/internal/engine"
)

func sampleResults() []engine.Result {
	return []engine.Result{
		{HookID: "trailing-whitespace", Name: "Trim Trailing Whitespace", Status: engine.StatusPassed, Duration: 120 * time.Millisecond, Mutated: true},
		{HookID: "gitleaks", Name: "Detect hardcoded secrets", Status: engine.StatusFailed, Kind: engine.KindHookFailure, ExitCode: 1, Output: "secret found in config.py\n", Duration: 300 * time.Millisecond},
		{HookID: "pytest", Name: "pytest", Status: engine.StatusSkipped},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Mutated)
	assert.Equal(t, 420*time.Millisecond, s.Duration)
	assert.True(t, s.HasFailures())
}

func TestSummaryCleanRun(t *testing.T) {
	s := Summarize([]engine.Result{
		{HookID: "a", Status: engine.StatusPassed},
		{HookID: "b", Status: engine.StatusSkipped},
	})
	assert.False(t, s.HasFailures(), "skipped hooks are neutral")
}

func TestWriteJSON(t *testing.T) {
	r := New(Metadata{GitSHA: "abc123", Branch: "main"}, sampleResults())

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "prehook", decoded.Metadata.Tool)
	assert.Equal(t, "abc123", decoded.Metadata.GitSHA)
	assert.Equal(t, 1, decoded.Summary.Failed)
	require.Len(t, decoded.Hooks, 3)
	assert.Equal(t, "gitleaks", decoded.Hooks[1].HookID)
}

func TestWritePretty(t *testing.T) {
	r := New(Metadata{}, sampleResults())

	var buf bytes.Buffer
	require.NoError(t, r.WritePretty(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "Trim Trailing Whitespace")
	assert.Contains(t, out, "Passed (modified files)")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Skipped")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped")
	// Failed hooks echo their captured output.
	assert.Contains(t, out, "secret found in config.py")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes without color")
}

func TestWritePrettyAlignsWideNames(t *testing.T) {
	results := []engine.Result{
		{HookID: "short", Name: "短", Status: engine.StatusPassed},
		{HookID: "long", Name: "a-much-longer-hook-name", Status: engine.StatusPassed},
	}
	r := New(Metadata{}, results)

	var buf bytes.Buffer
	require.NoError(t, r.WritePretty(&buf, false))

	lines := strings.Split(buf.String(), "\n")
	require.Greater(t, len(lines), 2)
	// The outcome column aligns on display width, not byte offset.
	col0 := runewidth.StringWidth(lines[1][:strings.Index(lines[1], "Passed")])
	col1 := runewidth.StringWidth(lines[2][:strings.Index(lines[2], "Passed")])
	assert.Equal(t, col0, col1, "outcome column must align across rows")
}

func TestWritePrettyColor(t *testing.T) {
	r := New(Metadata{}, sampleResults())

	var buf bytes.Buffer
	require.NoError(t, r.WritePretty(&buf, true))
	assert.Contains(t, buf.String(), ansiRed)
	assert.Contains(t, buf.String(), ansiGreen)
}

func TestWriteJUnit(t *testing.T) {
	r := New(Metadata{}, sampleResults())

	var buf bytes.Buffer
	require.NoError(t, r.WriteJUnit(&buf))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	suite := doc.FindElement("//testsuite")
	require.NotNil(t, suite)
	assert.Equal(t, "3", suite.SelectAttrValue("tests", ""))
	assert.Equal(t, "1", suite.SelectAttrValue("failures", ""))
	assert.Equal(t, "1", suite.SelectAttrValue("skipped", ""))

	cases := doc.FindElements("//testcase")
	require.Len(t, cases, 3)

	failure := doc.FindElement("//testcase[@name='gitleaks']/failure")
	require.NotNil(t, failure)
	assert.Contains(t, failure.SelectAttrValue("message", ""), "exit 1")
	assert.Contains(t, failure.Text(), "secret found")

	skipped := doc.FindElement("//testcase[@name='pytest']/skipped")
	assert.NotNil(t, skipped)
}
