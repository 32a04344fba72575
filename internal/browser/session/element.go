// internal/browser/session/element.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/loginprobe/internal/browser"
)

// element is re-resolved by selector on every call, so a handle follows the
// page across re-renders and only fails once the node is gone.
type element struct {
	session  *Session
	loc      browser.Locator
	selector string
}

type nodeState struct {
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

const stateScript = `(function(sel) {
	const node = document.querySelector(sel);
	if (!node) return null;
	const rect = node.getBoundingClientRect();
	const style = window.getComputedStyle(node);
	return {
		visible: rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0',
		enabled: !node.disabled && node.getAttribute('aria-disabled') !== 'true',
		text: (node.innerText || node.textContent || '').trim()
	};
})(%s)`

type attributeValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

// attributeScript reads live properties for value and checked, which the
// attribute only holds as the initial state.
const attributeScript = `(function(sel, name) {
	const node = document.querySelector(sel);
	if (!node) return null;
	if ((name === 'value' || name === 'checked') && name in node) {
		return {present: true, value: String(node[name])};
	}
	if (!node.hasAttribute(name)) return {present: false, value: ''};
	return {present: true, value: node.getAttribute(name)};
})(%s, %s)`

func (e *element) stale(err error) error {
	if errors.Is(err, errNull) {
		return fmt.Errorf("%w: %s", browser.ErrStaleElement, e.loc)
	}
	return err
}

func (e *element) state(ctx context.Context) (nodeState, error) {
	var st nodeState
	err := e.session.evaluate(ctx, fmt.Sprintf(stateScript, jsonEncode(e.selector)), &st)
	return st, e.stale(err)
}

func (e *element) interactable(ctx context.Context) error {
	st, err := e.state(ctx)
	if err != nil {
		return err
	}
	if !st.Visible || !st.Enabled {
		return fmt.Errorf("%w: %s (visible=%t enabled=%t)", browser.ErrNotInteractable, e.loc, st.Visible, st.Enabled)
	}
	return nil
}

func (e *element) perform(ctx context.Context, action chromedp.Action) error {
	if err := e.interactable(ctx); err != nil {
		return err
	}
	err := e.session.act(ctx, action)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", browser.ErrNotInteractable, e.loc, err)
	}
	return err
}

func (e *element) Click(ctx context.Context) error {
	return e.perform(ctx, chromedp.Click(e.selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.perform(ctx, chromedp.SendKeys(e.selector, text, chromedp.ByQuery, chromedp.NodeVisible))
}

func (e *element) Clear(ctx context.Context) error {
	return e.perform(ctx, chromedp.Clear(e.selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var attr attributeValue
	err := e.session.evaluate(ctx, fmt.Sprintf(attributeScript, jsonEncode(e.selector), jsonEncode(name)), &attr)
	if err != nil {
		return "", false, e.stale(err)
	}
	return attr.Value, attr.Present, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	st, err := e.state(ctx)
	return st.Text, err
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	st, err := e.state(ctx)
	return st.Visible, err
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	st, err := e.state(ctx)
	return st.Enabled, err
}
