// internal/reporting/junit.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

// JUnitReporter buffers outcomes and writes a JUnit XML document on Close.
// Scenarios are grouped into one testsuite per category, which CI systems
// render as separate sections.
type JUnitReporter struct {
	writer    io.WriteCloser
	suiteName string
	logger    *zap.Logger

	mu       sync.Mutex
	outcomes []*outcome.Outcome
}

// NewJUnitReporter creates a reporter that owns writer.
func NewJUnitReporter(writer io.WriteCloser, suiteName string, logger *zap.Logger) *JUnitReporter {
	return &JUnitReporter{writer: writer, suiteName: suiteName, logger: logger}
}

func (r *JUnitReporter) Write(o *outcome.Outcome) error {
	if o == nil {
		return fmt.Errorf("nil outcome")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.document()
	_, err := doc.WriteTo(r.writer)
	if err := finish(r.writer, err, r.logger); err != nil {
		return err
	}
	r.logger.Info("Wrote JUnit report.", zap.Int("testcases", len(r.outcomes)))
	return nil
}

func (r *JUnitReporter) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", r.suiteName)

	var order []string
	byCategory := map[string][]*outcome.Outcome{}
	for _, o := range r.outcomes {
		cat := o.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		if _, seen := byCategory[cat]; !seen {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], o)
	}

	var total tally
	for _, cat := range order {
		suite := root.CreateElement("testsuite")
		var t tally
		for _, o := range byCategory[cat] {
			t.add(o)
			testcase(suite, r.suiteName, cat, o)
		}
		suite.CreateAttr("name", cat)
		t.attrs(suite)
		if first := byCategory[cat][0]; !first.StartedAt.IsZero() {
			suite.CreateAttr("timestamp", first.StartedAt.UTC().Format(time.RFC3339))
		}
		total.merge(t)
	}
	total.attrs(root)

	doc.Indent(2)
	return doc
}

func testcase(suite *etree.Element, suiteName, category string, o *outcome.Outcome) {
	tc := suite.CreateElement("testcase")
	tc.CreateAttr("name", o.TestName)
	classname := category
	if suiteName != "" {
		classname = suiteName + "." + category
	}
	tc.CreateAttr("classname", classname)
	tc.CreateAttr("time", seconds(o.Duration))

	switch o.Status {
	case outcome.Failed:
		f := tc.CreateElement("failure")
		f.CreateAttr("message", firstLine(o.Messages))
		f.CreateAttr("type", "AssertionFailure")
		f.SetText(o.Summary())
	case outcome.Skipped:
		s := tc.CreateElement("skipped")
		s.CreateAttr("message", firstLine(o.Messages))
	}

	var out []string
	if o.Description != "" {
		out = append(out, o.Description)
	}
	if o.DiagnosticsPath != "" {
		out = append(out, "screenshot: "+o.DiagnosticsPath)
	}
	if o.ArtifactURI != "" {
		out = append(out, "artifact: "+o.ArtifactURI)
	}
	if len(out) > 0 {
		tc.CreateElement("system-out").SetText(strings.Join(out, "\n"))
	}
}

type tally struct {
	tests, failures, skipped int
	duration                 time.Duration
}

func (t *tally) add(o *outcome.Outcome) {
	t.tests++
	t.duration += o.Duration
	switch o.Status {
	case outcome.Failed:
		t.failures++
	case outcome.Skipped:
		t.skipped++
	}
}

func (t *tally) merge(o tally) {
	t.tests += o.tests
	t.failures += o.failures
	t.skipped += o.skipped
	t.duration += o.duration
}

func (t tally) attrs(el *etree.Element) {
	el.CreateAttr("tests", fmt.Sprint(t.tests))
	el.CreateAttr("failures", fmt.Sprint(t.failures))
	el.CreateAttr("errors", "0")
	el.CreateAttr("skipped", fmt.Sprint(t.skipped))
	el.CreateAttr("time", seconds(t.duration))
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func firstLine(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(msgs[0], "\n")
	return line
}
