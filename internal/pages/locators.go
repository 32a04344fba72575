// internal/pages/locators.go
package pages

import "github.com/xkilldash9x/loginprobe/internal/browser"

// Entry page.
var (
	LoginSelectButton = browser.CSS("[data-qa-id='login-select']")
	LoginProviderIcon = browser.CSS("[data-qa-id='login-hudl']")
)

// Credentials page. The continue button serves both the username and password steps.
var (
	UsernameField          = browser.ID("username")
	PasswordField          = browser.ID("password")
	ContinueButton         = browser.ClassName("c6397d3dd")
	ShowPasswordToggle     = browser.AriaLabel("Show password")
	HidePasswordToggle     = browser.AriaLabel("Hide password")
	EditUsernameLink       = browser.CSS("[data-link-name='edit-username']")
	CookieAcceptButton     = browser.ID("onetrust-accept-btn-handler")
	UsernameRequiredError  = browser.ID("error-cs-username-required")
	EmailInvalidError      = browser.ID("error-cs-email-invalid")
	PasswordRequiredError  = browser.ID("error-cs-password-required")
	PasswordIncorrectError = browser.ID("error-element-password")
)

// validationPriority is the order ValidationMessage inspects error elements in.
var validationPriority = []browser.Locator{
	UsernameRequiredError,
	EmailInvalidError,
	PasswordRequiredError,
	PasswordIncorrectError,
}

// Authenticated page.
var (
	UserDisplayName = browser.CSS(".hui-globaluseritem__display-name")
	LogoutLink      = browser.CSS("[data-qa-id='webnav-usermenu-logout']")
)
