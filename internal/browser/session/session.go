// internal/browser/session/session.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	k8swait "k8s.io/apimachinery/pkg/util/wait"

	"github.com/xkilldash9x/loginprobe/internal/browser"
)

const implicitPollInterval = 100 * time.Millisecond

// Session is one live Chrome tab driven over the DevTools protocol.
type Session struct {
	id            string
	ctx           context.Context
	cancel        context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
	navTimeout    time.Duration
	logger        *zap.Logger

	implicit  atomic.Int64
	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var (
	_ browser.Driver        = (*Session)(nil)
	_ browser.Screenshotter = (*Session)(nil)
)

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// run executes actions on the tab, bounded by both ctx and the session lifetime.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return browser.ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return s.classify(runCtx, err)
	}
	return nil
}

// act is run with the per action timeout applied.
func (s *Session) act(ctx context.Context, actions ...chromedp.Action) error {
	return s.withTimeout(ctx, s.actionTimeout, actions...)
}

func (s *Session) withTimeout(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return s.run(ctx, actions...)
}

func (s *Session) classify(runCtx context.Context, err error) error {
	if s.closed.Load() || s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", browser.ErrSessionClosed, err)
	}
	if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if navigating(err) {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}

// navigationErrors are protocol messages seen while the document is being replaced.
var navigationErrors = []string{
	"Execution context was destroyed",
	"Cannot find default execution context",
	"Cannot find context with specified id",
	"Inspected target navigated or closed",
	"No node with given id found",
}

func navigating(err error) bool {
	msg := err.Error()
	for _, m := range navigationErrors {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// evaluate runs script and decodes its JSON result into out.
func (s *Session) evaluate(ctx context.Context, script string, out interface{}) error {
	var raw json.RawMessage
	err := s.act(ctx, chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithSilent(true)
	}))
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return errNull
	}
	return json.Unmarshal(raw, out)
}

var errNull = errors.New("script returned null")

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	return s.withTimeout(ctx, s.navTimeout, chromedp.Navigate(url))
}

func (s *Session) Back(ctx context.Context) error {
	return s.withTimeout(ctx, s.navTimeout, chromedp.NavigateBack())
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.act(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// SetImplicitWait makes FindElement poll for up to d before reporting ErrNotFound.
func (s *Session) SetImplicitWait(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.implicit.Store(int64(d))
}

func (s *Session) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	sel := loc.Selector()
	present := func(ctx context.Context) (bool, error) {
		var found bool
		err := s.evaluate(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, jsonEncode(sel)), &found)
		return found, err
	}

	implicit := time.Duration(s.implicit.Load())
	if implicit == 0 {
		found, err := present(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, loc)
		}
		return &element{session: s, loc: loc, selector: sel}, nil
	}

	var lastErr error
	err := k8swait.PollUntilContextTimeout(ctx, implicitPollInterval, implicit, true, func(ctx context.Context) (bool, error) {
		found, err := present(ctx)
		if errors.Is(err, browser.ErrSessionClosed) {
			return false, err
		}
		lastErr = err
		return found, nil
	})
	if err == nil {
		return &element{session: s, loc: loc, selector: sel}, nil
	}
	if k8swait.Interrupted(err) {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", browser.ErrNotFound, loc, lastErr)
		}
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, loc)
	}
	return nil, err
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.act(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Quit closes the tab and the browser process. Later calls return the first
// result without doing anything.
func (s *Session) Quit(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown(ctx)
		s.logger.Info("Browser session closed.")
	})
	return s.closeErr
}

func (s *Session) shutdown(ctx context.Context) error {
	s.closed.Store(true)
	if !s.started.Load() {
		// chromedp.Cancel waits for a browser exit that never comes when the
		// launch failed, so release the contexts directly.
		s.allocCancel()
		s.cancel()
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser did not close in time: %w", ctx.Err())
	}
	s.cancel()
	s.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
