// internal/browser/driver.go
package browser

import (
	"context"
	"time"
)

// Driver is one exclusively owned browser-automation session.
// Implementations are not required to be safe for concurrent use.
type Driver interface {
	// Navigate loads url in the current tab.
	Navigate(ctx context.Context, url string) error
	// Back navigates one step back in the tab's history.
	Back(ctx context.Context) error
	// CurrentURL reports the address of the loaded document.
	CurrentURL(ctx context.Context) (string, error)
	// FindElement returns a handle for the first match of loc, or ErrNotFound.
	FindElement(ctx context.Context, loc Locator) (Element, error)
	// SetImplicitWait makes FindElement keep looking for up to d before giving up.
	SetImplicitWait(d time.Duration)
	// Quit ends the session. Calling it more than once is a no-op.
	Quit(ctx context.Context) error
}

// Element is a handle to a located element. A handle goes stale when the page
// it was found on is replaced; operations then return ErrStaleElement.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	// Attribute returns the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Text(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
}

// Screenshotter is implemented by drivers able to capture the viewport as PNG.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}
