// internal/reporting/json.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReport is the document written by JSONReporter.
type JSONReport struct {
	Suite       string             `json:"suite"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Passed      int                `json:"passed"`
	Failed      int                `json:"failed"`
	Skipped     int                `json:"skipped"`
	Outcomes    []*outcome.Outcome `json:"outcomes"`
}

// JSONReporter buffers outcomes and writes one indented JSON document on Close.
type JSONReporter struct {
	writer    io.WriteCloser
	suiteName string
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	report JSONReport
}

func NewJSONReporter(writer io.WriteCloser, suiteName string, logger *zap.Logger) *JSONReporter {
	return &JSONReporter{
		writer:    writer,
		suiteName: suiteName,
		logger:    logger,
		now:       time.Now,
		report:    JSONReport{Suite: suiteName, Outcomes: []*outcome.Outcome{}},
	}
}

func (r *JSONReporter) Write(o *outcome.Outcome) error {
	if o == nil {
		return fmt.Errorf("nil outcome")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Outcomes = append(r.report.Outcomes, o)
	switch o.Status {
	case outcome.Passed:
		r.report.Passed++
	case outcome.Failed:
		r.report.Failed++
	case outcome.Skipped:
		r.report.Skipped++
	}
	return nil
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.GeneratedAt = r.now().UTC()
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := finish(r.writer, encoder.Encode(r.report), r.logger); err != nil {
		return err
	}
	r.logger.Info("Wrote JSON report.", zap.Int("outcomes", len(r.report.Outcomes)))
	return nil
}
