// Package diagnostics saves the browser's state when a scenario fails.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

const timestampLayout = "20060102_150405"

// maxCollisionSuffix bounds the search for a free file name.
const maxCollisionSuffix = 100

// defaultMirrorTimeout bounds one upload to the artifact sink.
const defaultMirrorTimeout = 30 * time.Second

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactSink mirrors a saved screenshot somewhere else and returns its location.
type ArtifactSink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Capturer writes failure screenshots. Its methods never return errors: every
// problem is logged and the scenario's own result stands.
type Capturer struct {
	enabled       bool
	dir           string
	sink          ArtifactSink
	mirrorTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewCapturer builds a Capturer. sink may be nil.
func NewCapturer(cfg config.DiagnosticsConfig, sink ArtifactSink, logger *zap.Logger) *Capturer {
	return &Capturer{
		enabled:       cfg.Enabled,
		dir:           cfg.Dir,
		sink:          sink,
		mirrorTimeout: defaultMirrorTimeout,
		logger:        logger.Named("diagnostics"),
		now:           time.Now,
	}
}

// CaptureIfFailed saves a screenshot of d when o has failed and d can take one,
// recording the file in o.DiagnosticsPath.
func (c *Capturer) CaptureIfFailed(ctx context.Context, o *outcome.Outcome, d browser.Driver) {
	if c == nil || !c.enabled || o == nil || !o.Failed() || d == nil {
		return
	}
	log := c.logger.With(zap.String("test", o.TestName))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Screenshot capture panicked.", zap.Any("panic", r))
		}
	}()

	shooter, ok := d.(browser.Screenshotter)
	if !ok {
		log.Debug("Session cannot take screenshots; skipping capture.")
		return
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Error("Failed to create screenshot directory.", zap.String("dir", c.dir), zap.Error(err))
		return
	}

	png, err := shooter.Screenshot(ctx)
	if err != nil {
		log.Error("Failed to take screenshot.", zap.Error(err))
		return
	}

	path, err := c.write(o.TestName, png)
	if err != nil {
		log.Error("Failed to save screenshot.", zap.Error(err))
		return
	}
	o.DiagnosticsPath = path
	log.Info("Saved failure screenshot.", zap.String("path", path))

	if c.sink == nil {
		return
	}
	putCtx, cancel := context.WithTimeout(ctx, c.mirrorTimeout)
	defer cancel()
	uri, err := c.sink.Put(putCtx, filepath.Base(path), png)
	if err != nil {
		log.Warn("Failed to mirror screenshot.", zap.Error(err))
		return
	}
	o.ArtifactURI = uri
}

// write stores png as {name}_{timestamp}.png, adding a numeric suffix if that file exists.
func (c *Capturer) write(testName string, png []byte) (string, error) {
	base := fmt.Sprintf("%s_%s", FileStem(testName), c.now().Format(timestampLayout))
	for i := 0; i < maxCollisionSuffix; i++ {
		name := base + ".png"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.png", base, i)
		}
		path := filepath.Join(c.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(png); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", base, maxCollisionSuffix)
}

// FileStem turns a test name such as "Suite/Valid login" into "Suite_Valid_login".
func FileStem(testName string) string {
	stem := unsafeNameChars.ReplaceAllString(testName, "_")
	if stem == "" || stem == "_" {
		return "scenario"
	}
	return stem
}
