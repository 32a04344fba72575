// internal/wait/engine.go
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	k8swait "k8s.io/apimachinery/pkg/util/wait"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/config"
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("wait: timed out")

// TimeoutError reports a condition that did not hold within its budget.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	// Last is the most recent transient error seen while polling, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
	if e.Last != nil {
		msg += " (last error: " + e.Last.Error() + ")"
	}
	return msg
}

// Is makes errors.Is(err, ErrTimeout) hold. Last is not unwrapped: transient
// lookup failures surface only as a timeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

var errCheckFailed = errors.New("wait: condition failed")

// IsTimeout reports whether err is a wait timeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// Engine polls conditions against a session until they hold or a budget runs out.
// It is stateless and may be shared by any number of page objects.
type Engine struct {
	timeout  time.Duration
	interval time.Duration
	optional time.Duration
	logger   *zap.Logger
}

// New builds an Engine from the wait section of the configuration.
func New(cfg config.WaitConfig, logger *zap.Logger) *Engine {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Engine{
		timeout:  cfg.Timeout,
		interval: interval,
		optional: cfg.OptionalTimeout,
		logger:   logger.Named("wait"),
	}
}

// Timeout is the budget used by Until.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// OptionalTimeout is the budget for elements that may never appear.
func (e *Engine) OptionalTimeout() time.Duration { return e.optional }

// Until waits for cond using the engine's default budget.
func (e *Engine) Until(ctx context.Context, d browser.Driver, cond Condition) (browser.Element, error) {
	return e.UntilWithin(ctx, d, cond, e.timeout)
}

// UntilWithin waits for cond for at most timeout. The first check runs immediately.
//
// It returns the satisfying element (nil for conditions that carry none), a
// *TimeoutError when the budget is exhausted, the context's error when ctx ends
// first, or the first non-transient error produced by cond.
func (e *Engine) UntilWithin(ctx context.Context, d browser.Driver, cond Condition, timeout time.Duration) (browser.Element, error) {
	var (
		found   browser.Element
		lastErr error
		failure error
		polls   int
	)
	start := time.Now()

	err := k8swait.PollUntilContextTimeout(ctx, e.interval, timeout, true, func(pollCtx context.Context) (bool, error) {
		polls++
		el, ok, checkErr := cond.Check(pollCtx, d)
		if checkErr != nil {
			// A check cut short by the expiring budget, or by its own per-action
			// deadline, is indistinguishable from a slow page.
			if browser.IsTransient(checkErr) || pollCtx.Err() != nil || errors.Is(checkErr, context.DeadlineExceeded) {
				lastErr = checkErr
				return false, nil
			}
			// Returned through a sentinel so the poller cannot mistake it for its own timeout.
			failure = checkErr
			return false, errCheckFailed
		}
		if ok {
			found = el
		}
		return ok, nil
	})

	switch {
	case failure != nil:
		return nil, fmt.Errorf("waiting for %s: %w", cond.Name, failure)
	case err == nil:
		e.logger.Debug("Condition satisfied.",
			zap.String("condition", cond.Name),
			zap.Int("polls", polls),
			zap.Duration("elapsed", time.Since(start)))
		return found, nil
	case k8swait.Interrupted(err) && ctx.Err() != nil:
		return nil, fmt.Errorf("waiting for %s: %w", cond.Name, ctx.Err())
	case k8swait.Interrupted(err):
		e.logger.Debug("Condition timed out.",
			zap.String("condition", cond.Name),
			zap.Int("polls", polls),
			zap.Duration("timeout", timeout),
			zap.NamedError("last_error", lastErr))
		return nil, &TimeoutError{Condition: cond.Name, Timeout: timeout, Last: lastErr}
	default:
		return nil, fmt.Errorf("waiting for %s: %w", cond.Name, err)
	}
}
