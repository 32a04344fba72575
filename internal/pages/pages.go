// Package pages holds the page objects for the login flow. Each page object
// wraps a non-owning driver reference plus the wait engine, and exposes
// semantic actions and queries built from the locators in locators.go.
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/wait"
)

// Set is the three page objects bound to one session.
type Set struct {
	Entry         *EntryPage
	Credentials   *CredentialsPage
	Authenticated *AuthenticatedPage
}

// NewSet binds all page objects to d. The caller keeps ownership of d.
func NewSet(d browser.Driver, waiter *wait.Engine, logger *zap.Logger) Set {
	named := func(name string) ui {
		return ui{driver: d, waiter: waiter, logger: logger.Named("pages." + name)}
	}
	return Set{
		Entry:         &EntryPage{ui: named("entry")},
		Credentials:   &CredentialsPage{ui: named("credentials")},
		Authenticated: &AuthenticatedPage{ui: named("authenticated")},
	}
}

// EntryPage is the public landing page shown to signed-out visitors.
type EntryPage struct {
	ui ui
}

// IsLoggedOut reports whether the login entry control becomes visible.
func (p *EntryPage) IsLoggedOut(ctx context.Context) bool {
	return p.ui.showing(ctx, LoginSelectButton, p.ui.waiter.Timeout())
}

// StartLogin opens the login menu and picks the provider, leaving the browser
// on the username step.
func (p *EntryPage) StartLogin(ctx context.Context) error {
	if err := p.ui.click(ctx, LoginSelectButton); err != nil {
		return fmt.Errorf("start login: %w", err)
	}
	if err := p.ui.click(ctx, LoginProviderIcon); err != nil {
		return fmt.Errorf("start login: %w", err)
	}
	return nil
}

// CredentialsPage is the two-step username/password form.
type CredentialsPage struct {
	ui ui
}

// SetUsername replaces the username field's content with username.
func (p *CredentialsPage) SetUsername(ctx context.Context, username string) error {
	return p.ui.typeInto(ctx, UsernameField, username, true)
}

// SetPassword types password into the password field without clearing it.
func (p *CredentialsPage) SetPassword(ctx context.Context, password string) error {
	return p.ui.typeInto(ctx, PasswordField, password, false)
}

// Submit presses the continue button of whichever step is showing.
func (p *CredentialsPage) Submit(ctx context.Context) error {
	return p.ui.click(ctx, ContinueButton)
}

// IsPasswordMasked reports whether the password input's type is "password".
// A missing password field is an error, not an unmasked result.
func (p *CredentialsPage) IsPasswordMasked(ctx context.Context) (bool, error) {
	el, err := p.ui.waiter.Until(ctx, p.ui.driver, wait.VisibilityOf(PasswordField))
	if err != nil {
		return false, fmt.Errorf("password masking: %w", err)
	}
	kind, _, err := el.Attribute(ctx, "type")
	if err != nil {
		return false, fmt.Errorf("password masking: %w", err)
	}
	return kind == "password", nil
}

// ToggleShowPassword flips password visibility. Two calls restore the original state.
func (p *CredentialsPage) ToggleShowPassword(ctx context.Context) error {
	return p.ui.click(ctx, ShowPasswordToggle, HidePasswordToggle)
}

// EditUsername returns the flow from the password step to the username step.
func (p *CredentialsPage) EditUsername(ctx context.Context) error {
	return p.ui.click(ctx, EditUsernameLink)
}

// IsOnUsernameStep reports whether the username field becomes visible.
func (p *CredentialsPage) IsOnUsernameStep(ctx context.Context) bool {
	return p.ui.showing(ctx, UsernameField, p.ui.waiter.Timeout())
}

// IsOnPasswordStep reports whether the password field becomes visible.
func (p *CredentialsPage) IsOnPasswordStep(ctx context.Context) bool {
	return p.ui.showing(ctx, PasswordField, p.ui.waiter.Timeout())
}

// AcceptCookieConsentIfPresent clicks the cookie banner's accept button if it shows
// up within the optional-element budget. It reports whether a click happened and
// never fails: the banner is absent on repeat visits.
func (p *CredentialsPage) AcceptCookieConsentIfPresent(ctx context.Context) bool {
	el, err := p.ui.waiter.UntilWithin(ctx, p.ui.driver, wait.ElementToBeClickable(CookieAcceptButton), p.ui.waiter.OptionalTimeout())
	if err != nil {
		if !wait.IsTimeout(err) {
			p.ui.logger.Warn("Cookie consent lookup failed.", zap.Error(err))
		}
		return false
	}
	if err := el.Click(ctx); err != nil {
		p.ui.logger.Warn("Cookie consent click failed.", zap.Error(err))
		return false
	}
	p.ui.logger.Debug("Cookie consent accepted.")
	return true
}

// ValidationMessage returns the text of the displayed validation error, or "" when
// none shows up within the wait budget. Errors are inspected in a fixed priority
// order (username required, email invalid, password required, password incorrect)
// and the first displayed one wins.
func (p *CredentialsPage) ValidationMessage(ctx context.Context) (string, error) {
	el, err := p.ui.waiter.Until(ctx, p.ui.driver, wait.AnyVisible(validationPriority...))
	if err != nil {
		if wait.IsTimeout(err) {
			return "", nil
		}
		return "", fmt.Errorf("validation message: %w", err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("validation message: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// AuthenticatedPage is the member area reached after a successful login.
type AuthenticatedPage struct {
	ui ui
}

// IsLoggedIn reports whether the user identity element becomes visible within
// the wait budget. Not seeing it is a normal negative result.
func (p *AuthenticatedPage) IsLoggedIn(ctx context.Context) bool {
	return p.ui.showing(ctx, UserDisplayName, p.ui.waiter.Timeout())
}

// DisplayName returns the signed-in user's name as shown in the navigation bar.
func (p *AuthenticatedPage) DisplayName(ctx context.Context) (string, error) {
	return p.ui.textOf(ctx, UserDisplayName)
}

// Logout opens the user menu and signs out.
func (p *AuthenticatedPage) Logout(ctx context.Context) error {
	if err := p.ui.click(ctx, UserDisplayName); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := p.ui.click(ctx, LogoutLink); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
