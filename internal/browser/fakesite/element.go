package fakesite

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/pages"
)

// element is a handle bound to the document generation it was found in.
type element struct {
	site       *Site
	loc        browser.Locator
	generation int
}

var _ browser.Element = (*element)(nil)

// current returns the element's state, or the error a real driver would raise for
// a handle on a closed session, a replaced document or a removed node.
// Must be called with site.mu held.
func (e *element) current() (elementState, error) {
	s := e.site
	if s.closed {
		return elementState{}, browser.ErrSessionClosed
	}
	if e.generation != s.generation {
		return elementState{}, fmt.Errorf("%s: %w", e.loc, browser.ErrStaleElement)
	}
	st, ok := s.state(e.loc)
	if !ok {
		return elementState{}, fmt.Errorf("%s: %w", e.loc, browser.ErrStaleElement)
	}
	return st, nil
}

func (e *element) Click(context.Context) error {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	st, err := e.current()
	if err != nil {
		return err
	}
	if !st.displayed {
		return fmt.Errorf("click %s: %w", e.loc, browser.ErrNotInteractable)
	}
	e.site.click(e.loc)
	return nil
}

func (e *element) SendKeys(_ context.Context, text string) error {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	st, err := e.current()
	if err != nil {
		return err
	}
	if !st.displayed {
		return fmt.Errorf("type into %s: %w", e.loc, browser.ErrNotInteractable)
	}
	switch e.loc {
	case pages.UsernameField:
		e.site.usernameValue += text
	case pages.PasswordField:
		e.site.passwordValue += text
	default:
		return fmt.Errorf("type into %s: %w", e.loc, browser.ErrNotInteractable)
	}
	e.site.record("type " + e.loc.String())
	return nil
}

func (e *element) Clear(context.Context) error {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	if _, err := e.current(); err != nil {
		return err
	}
	switch e.loc {
	case pages.UsernameField:
		e.site.usernameValue = ""
	case pages.PasswordField:
		e.site.passwordValue = ""
	default:
		return fmt.Errorf("clear %s: %w", e.loc, browser.ErrNotInteractable)
	}
	return nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	st, err := e.current()
	if err != nil {
		return "", false, err
	}
	v, ok := st.attrs[name]
	return v, ok, nil
}

func (e *element) Text(context.Context) (string, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	st, err := e.current()
	if err != nil {
		return "", err
	}
	return st.text, nil
}

func (e *element) IsDisplayed(context.Context) (bool, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	st, err := e.current()
	if err != nil {
		return false, err
	}
	return st.displayed, nil
}

func (e *element) IsEnabled(context.Context) (bool, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	if _, err := e.current(); err != nil {
		return false, err
	}
	return true, nil
}
