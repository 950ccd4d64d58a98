// Package report aggregates hook run results and renders them for humans,
// machines, and CI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fenrow/prehook/internal/engine"
	"github.com/fenrow/prehook/pkg/buildinfo"
)

// Summary counts run outcomes.
type Summary struct {
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Mutated  int           `json:"mutated"`
	Duration time.Duration `json:"duration_ns"`
}

// HasFailures reports whether the run failed overall. Skipped hooks are
// neutral.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Metadata identifies the run that produced a report.
type Metadata struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Root        string    `json:"root,omitempty"`
	GitSHA      string    `json:"git_sha,omitempty"`
	Branch      string    `json:"branch,omitempty"`
}

// Report is the machine-readable run record.
type Report struct {
	Metadata Metadata        `json:"metadata"`
	Summary  Summary         `json:"summary"`
	Hooks    []engine.Result `json:"hooks"`
}

// New assembles a report from run results.
func New(meta Metadata, results []engine.Result) *Report {
	if meta.Tool == "" {
		meta.Tool = "prehook"
	}
	if meta.Version == "" {
		meta.Version = buildinfo.BinaryVersion
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}
	return &Report{Metadata: meta, Summary: Summarize(results), Hooks: results}
}

// Summarize tallies results into a Summary.
func Summarize(results []engine.Result) Summary {
	var s Summary
	s.Total = len(results)
	for _, r := range results {
		switch r.Status {
		case engine.StatusPassed:
			s.Passed++
		case engine.StatusFailed:
			s.Failed++
		case engine.StatusSkipped:
			s.Skipped++
		}
		if r.Mutated {
			s.Mutated++
		}
		s.Duration += r.Duration
	}
	return s
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// WritePretty renders the human summary table. Columns align on display
// width so wide runes in hook names do not skew the layout.
func (r *Report) WritePretty(w io.Writer, color bool) error {
	titler := cases.Title(language.Und)

	nameWidth := runewidth.StringWidth("Hook")
	for _, h := range r.Hooks {
		if w := runewidth.StringWidth(h.Name); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintf(w, "%s  %-9s %s\n", runewidth.FillRight("Hook", nameWidth), "Outcome", "Duration")
	for _, h := range r.Hooks {
		label := titler.String(string(h.Status))
		if h.Mutated {
			label += " (modified files)"
		}
		if color {
			label = colorize(h.Status) + label + ansiReset
		}
		fmt.Fprintf(w, "%s  %-9s %s\n", runewidth.FillRight(h.Name, nameWidth), label, h.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n", r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped)

	for _, h := range r.Hooks {
		if h.Status != engine.StatusFailed {
			continue
		}
		fmt.Fprintf(w, "\n--- %s (%s, exit %d)\n", h.HookID, failureLabel(h.Kind), h.ExitCode)
		out := strings.TrimRight(h.Output, "\n")
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return nil
}

func colorize(status engine.Status) string {
	switch status {
	case engine.StatusPassed:
		return ansiGreen
	case engine.StatusFailed:
		return ansiRed
	default:
		return ansiYellow
	}
}

func failureLabel(kind engine.FailureKind) string {
	switch kind {
	case engine.KindTimeout:
		return "timeout"
	case engine.KindExecutionError:
		return "could not start"
	case engine.KindSelectionError:
		return "bad file pattern"
	default:
		return "hook failed"
	}
}

// WriteJUnit renders the report as JUnit XML for CI consumption.
func (r *Report) WriteJUnit(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", r.Metadata.Tool)
	suite.CreateAttr("tests", fmt.Sprintf("%d", r.Summary.Total))
	suite.CreateAttr("failures", fmt.Sprintf("%d", r.Summary.Failed))
	suite.CreateAttr("skipped", fmt.Sprintf("%d", r.Summary.Skipped))
	suite.CreateAttr("time", fmt.Sprintf("%.3f", r.Summary.Duration.Seconds()))
	suite.CreateAttr("timestamp", r.Metadata.GeneratedAt.Format(time.RFC3339))

	for _, h := range r.Hooks {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", h.HookID)
		tc.CreateAttr("classname", r.Metadata.Tool)
		tc.CreateAttr("time", fmt.Sprintf("%.3f", h.Duration.Seconds()))

		switch h.Status {
		case engine.StatusFailed:
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", fmt.Sprintf("%s (exit %d)", failureLabel(h.Kind), h.ExitCode))
			failure.SetText(h.Output)
		case engine.StatusSkipped:
			tc.CreateElement("skipped")
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
