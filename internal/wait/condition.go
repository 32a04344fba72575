// internal/wait/condition.go
package wait

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/loginprobe/internal/browser"
)

// Condition is a predicate evaluated against the live session on every poll.
// Check returns ok=true once satisfied, optionally with the element that satisfied it.
// Transient browser errors returned by Check are retried; any other error ends the wait.
type Condition struct {
	Name  string
	Check func(ctx context.Context, d browser.Driver) (el browser.Element, ok bool, err error)
}

// PresenceOf is satisfied once loc matches an element, visible or not.
func PresenceOf(loc browser.Locator) Condition {
	return Condition{
		Name: "presence of " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			el, err := d.FindElement(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return el, true, nil
		},
	}
}

// VisibilityOf is satisfied once loc matches a displayed element.
func VisibilityOf(loc browser.Locator) Condition {
	return Condition{
		Name: "visibility of " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			return visible(ctx, d, loc)
		},
	}
}

// ElementToBeClickable is satisfied once loc matches a displayed, enabled element.
func ElementToBeClickable(loc browser.Locator) Condition {
	return Condition{
		Name: "clickability of " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			el, ok, err := visible(ctx, d, loc)
			if !ok || err != nil {
				return nil, false, err
			}
			enabled, err := el.IsEnabled(ctx)
			if err != nil || !enabled {
				return nil, false, err
			}
			return el, true, nil
		},
	}
}

// InvisibilityOf is satisfied once loc matches nothing or only a hidden element.
func InvisibilityOf(loc browser.Locator) Condition {
	return Condition{
		Name: "invisibility of " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			_, ok, err := visible(ctx, d, loc)
			switch {
			case err == nil:
				return nil, !ok, nil
			case browser.IsTransient(err):
				return nil, true, nil
			default:
				return nil, false, err
			}
		},
	}
}

// AnyVisible is satisfied by the first locator, in argument order, whose element is displayed.
func AnyVisible(locs ...browser.Locator) Condition {
	names := make([]string, len(locs))
	for i, loc := range locs {
		names[i] = loc.String()
	}
	return Condition{
		Name: fmt.Sprintf("visibility of any of [%s]", strings.Join(names, ", ")),
		Check: func(ctx context.Context, d browser.Driver) (browser.Element, bool, error) {
			for _, loc := range locs {
				el, ok, err := visible(ctx, d, loc)
				if err != nil && !browser.IsTransient(err) {
					return nil, false, err
				}
				if ok {
					return el, true, nil
				}
			}
			return nil, false, nil
		},
	}
}

func visible(ctx context.Context, d browser.Driver, loc browser.Locator) (browser.Element, bool, error) {
	el, err := d.FindElement(ctx, loc)
	if err != nil {
		return nil, false, err
	}
	shown, err := el.IsDisplayed(ctx)
	if err != nil || !shown {
		return nil, false, err
	}
	return el, true, nil
}
