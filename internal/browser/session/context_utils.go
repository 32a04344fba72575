// internal/browser/session/context_utils.go
package session

import (
	"context"
	"time"
)

// CombineContext returns a context that carries primary's values (the chromedp
// target) and is canceled when either primary or op is done. When op ends first,
// context.Cause on the result reports op's error, so a per action deadline can be
// told apart from the session closing.
func CombineContext(primary, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(primary)
	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that keeps ctx's values but never expires. The
// browser process is bound to the context it was allocated with, so it must not
// inherit the caller's provisioning deadline.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
