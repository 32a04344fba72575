// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

// Reporter defines the interface for writing scenario outcomes to an output.
type Reporter interface {
	// Write records a single outcome.
	Write(o *outcome.Outcome) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// Formats lists the supported report formats.
var Formats = []string{"junit", "json", "text"}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// suiteName labels the report as a whole.
func New(format, outputPath, suiteName string, logger *zap.Logger) (Reporter, error) {
	switch format {
	case "junit", "json", "text":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer, suiteName, logger)
}

// NewWithWriter builds a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, suiteName string, logger *zap.Logger) (Reporter, error) {
	logger = logger.Named("reporting").With(zap.String("format", format))
	switch format {
	case "junit":
		return NewJUnitReporter(writer, suiteName, logger), nil
	case "json":
		return NewJSONReporter(writer, suiteName, logger), nil
	case "text":
		return NewTextReporter(writer, logger), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Extension returns the conventional file extension for format.
func Extension(format string) string {
	switch format {
	case "junit":
		return ".xml"
	case "json":
		return ".json"
	default:
		return ".txt"
	}
}

// finish closes w and folds its error into the encoding error.
func finish(w io.Closer, encodeErr error, logger *zap.Logger) error {
	closeErr := w.Close()
	if encodeErr != nil {
		logger.Error("Failed to encode report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode report: %w", encodeErr)
	}
	if closeErr != nil {
		logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
