// internal/scenario/t.go
package scenario

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/outcome"
)

// TB is the part of testing.TB the harness relies on. *testing.T satisfies it,
// as does T for runs driven from the command line. It also satisfies
// require.TestingT, so scenario bodies assert with testify.
type TB interface {
	Name() string
	Helper()
	Context() context.Context
	Cleanup(func())
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	FailNow()
	Failed() bool
	Logf(format string, args ...any)
}

// artifactRecorder is implemented by TBs that keep diagnostics on the outcome.
type artifactRecorder interface {
	RecordArtifact(path, uri string)
}

// T runs one scenario outside the go test runner. FailNow and Fatalf stop the
// calling goroutine with runtime.Goexit, as testing.T does.
type T struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu       sync.Mutex
	failed   bool
	messages []string
	cleanups []func()
	path     string
	uri      string
}

var _ TB = (*T)(nil)

func (t *T) Name() string             { return t.name }
func (t *T) Helper()                  {}
func (t *T) Context() context.Context { return t.ctx }

func (t *T) Cleanup(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, f)
}

func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.logger.Debug("Scenario assertion failed.", zap.String("message", msg))
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.messages = append(t.messages, msg)
}

func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	runtime.Goexit()
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) Logf(format string, args ...any) {
	t.logger.Debug(fmt.Sprintf(format, args...))
}

// RecordArtifact attaches a diagnostics file to the outcome.
func (t *T) RecordArtifact(path, uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path, t.uri = path, uri
}

// runGuarded calls f on its own goroutine so Goexit and panics stay contained.
func (t *T) runGuarded(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("panic: %v", r)
			}
		}()
		f()
	}()
	<-done
}

// Run executes fn as a scenario named name and returns its outcome once fn and
// every registered cleanup have finished. Cleanups run last in first out after
// the scenario's context is canceled.
func Run(ctx context.Context, name string, logger *zap.Logger, fn func(t *T)) *outcome.Outcome {
	tctx, cancel := context.WithCancel(ctx)
	t := &T{
		name:   name,
		ctx:    tctx,
		cancel: cancel,
		logger: logger.With(zap.String("test", name)),
	}
	start := time.Now()

	t.runGuarded(func() { fn(t) })
	t.cancel()

	for {
		t.mu.Lock()
		n := len(t.cleanups)
		if n == 0 {
			t.mu.Unlock()
			break
		}
		f := t.cleanups[n-1]
		t.cleanups = t.cleanups[:n-1]
		t.mu.Unlock()
		t.runGuarded(f)
	}

	o := &outcome.Outcome{
		TestName:  name,
		Status:    outcome.Passed,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failed {
		o.Status = outcome.Failed
	}
	o.Messages = append(o.Messages, t.messages...)
	o.DiagnosticsPath = t.path
	o.ArtifactURI = t.uri
	return o
}
