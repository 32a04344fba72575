// Package outcome defines the result record every scenario produces.
package outcome

import (
	"strings"
	"time"
)

// Status is the final state of one scenario.
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// Outcome is produced by the scenario harness, annotated by diagnostics capture
// and consumed by the reports.
type Outcome struct {
	TestName    string        `json:"testName"`
	Category    string        `json:"category,omitempty"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	// Messages holds assertion failures in the order they were reported, or the
	// reason a skipped scenario never started. Logf output goes to the logger only.
	Messages []string `json:"messages,omitempty"`
	// DiagnosticsPath is the local screenshot written on failure, if any.
	DiagnosticsPath string `json:"diagnosticsPath,omitempty"`
	// ArtifactURI is where the screenshot was mirrored, if a mirror is configured.
	ArtifactURI string `json:"artifactUri,omitempty"`
}

// Failed reports whether the scenario failed.
func (o *Outcome) Failed() bool { return o.Status == Failed }

// Summary joins the recorded messages into one block of text.
func (o *Outcome) Summary() string { return strings.Join(o.Messages, "\n") }
