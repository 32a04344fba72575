// internal/browser/errors.go
package browser

import "errors"

var (
	// ErrNotFound means no element currently matches the locator.
	ErrNotFound = errors.New("browser: element not found")
	// ErrNotInteractable means the element exists but is hidden, disabled or covered.
	ErrNotInteractable = errors.New("browser: element not interactable")
	// ErrStaleElement means the handle belongs to a document that has been replaced.
	ErrStaleElement = errors.New("browser: stale element reference")
	// ErrSessionClosed means the session was quit or the browser went away.
	ErrSessionClosed = errors.New("browser: session closed")
)

// IsTransient reports whether err is a rendering race that a wait may retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotInteractable) ||
		errors.Is(err, ErrStaleElement)
}
