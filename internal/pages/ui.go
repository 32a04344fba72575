// internal/pages/ui.go
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/wait"
)

// ui is the interaction capability every page object holds. It does not own the driver.
type ui struct {
	driver browser.Driver
	waiter *wait.Engine
	logger *zap.Logger
}

// click waits for the first clickable locator among locs and clicks it. The click
// happens inside the wait so a re-render between lookup and click is retried.
func (u ui) click(ctx context.Context, locs ...browser.Locator) error {
	target := wait.AnyVisible(locs...)
	cond := wait.Condition{
		Name: "click on " + strings.TrimPrefix(target.Name, "visibility of "),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			el, ok, err := target.Check(ctx, d)
			if !ok || err != nil {
				return nil, false, err
			}
			enabled, err := el.IsEnabled(ctx)
			if err != nil || !enabled {
				return nil, false, err
			}
			if err := el.Click(ctx); err != nil {
				return nil, false, err
			}
			return el, true, nil
		},
	}
	if len(locs) == 1 {
		cond.Name = "click on " + locs[0].String()
	}

	if _, err := u.waiter.Until(ctx, u.driver, cond); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	u.logger.Debug("Clicked.", zap.String("target", cond.Name))
	return nil
}

// typeInto waits for loc to be visible and sends text, clearing it first when asked.
func (u ui) typeInto(ctx context.Context, loc browser.Locator, text string, clearFirst bool) error {
	el, err := u.waiter.Until(ctx, u.driver, wait.VisibilityOf(loc))
	if err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	if clearFirst {
		if err := el.Clear(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", loc, err)
		}
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// isVisible waits up to timeout for loc to be displayed. A timeout is a plain false.
func (u ui) isVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) (bool, error) {
	_, err := u.waiter.UntilWithin(ctx, u.driver, wait.VisibilityOf(loc), timeout)
	switch {
	case err == nil:
		return true, nil
	case wait.IsTimeout(err):
		return false, nil
	default:
		return false, err
	}
}

// textOf waits for loc to be visible and returns its trimmed text.
func (u ui) textOf(ctx context.Context, loc browser.Locator) (string, error) {
	el, err := u.waiter.Until(ctx, u.driver, wait.VisibilityOf(loc))
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", loc, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}

// showing is isVisible for boolean queries: errors are logged and read as false.
func (u ui) showing(ctx context.Context, loc browser.Locator, timeout time.Duration) bool {
	ok, err := u.isVisible(ctx, loc, timeout)
	if err != nil {
		u.logger.Warn("Visibility check failed.", zap.Stringer("locator", loc), zap.Error(err))
	}
	return ok
}
