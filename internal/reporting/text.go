// internal/reporting/text.go
package reporting

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

// TextReporter renders a human readable table followed by failure details.
type TextReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu       sync.Mutex
	outcomes []*outcome.Outcome
}

func NewTextReporter(writer io.WriteCloser, logger *zap.Logger) *TextReporter {
	return &TextReporter{writer: writer, logger: logger}
}

func (r *TextReporter) Write(o *outcome.Outcome) error {
	if o == nil {
		return fmt.Errorf("nil outcome")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	Render(&buf, r.outcomes)
	_, err := r.writer.Write(buf.Bytes())
	return finish(r.writer, err, r.logger)
}

// Render writes the table and failure details for outcomes to w.
func Render(w io.Writer, outcomes []*outcome.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCATEGORY\tSCENARIO\tDURATION")
	var passed, failed, skipped int
	for _, o := range outcomes {
		switch o.Status {
		case outcome.Passed:
			passed++
		case outcome.Failed:
			failed++
		case outcome.Skipped:
			skipped++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.ToUpper(string(o.Status)), o.Category, o.TestName, o.Duration.Round(time.Millisecond))
	}
	tw.Flush()

	for _, o := range outcomes {
		if o.Status != outcome.Failed {
			continue
		}
		fmt.Fprintf(w, "\n--- FAIL: %s\n", o.TestName)
		for _, msg := range o.Messages {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(msg, "\n", "\n    "))
		}
		if o.DiagnosticsPath != "" {
			fmt.Fprintf(w, "    screenshot: %s\n", o.DiagnosticsPath)
		}
		if o.ArtifactURI != "" {
			fmt.Fprintf(w, "    artifact: %s\n", o.ArtifactURI)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n", passed, failed, skipped)
}
