// internal/scenario/catalog.go
package scenario

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Category groups scenarios for selection and reporting.
type Category string

const (
	Smoke      Category = "Smoke"
	Security   Category = "Security"
	Functional Category = "Functional"
	Negative   Category = "Negative"
	Validation Category = "Validation"
)

// Categories lists every category in reporting order.
func Categories() []Category {
	return []Category{Smoke, Security, Functional, Negative, Validation}
}

// ParseCategory matches name case-insensitively.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}

// Scenario is one end to end behavioral check.
type Scenario struct {
	Name        string
	Category    Category
	Description string
	Run         func(h *Harness)
}

// Catalog returns every scenario in a stable order.
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:        "ValidLogin_ShouldRedirectToHome",
			Category:    Smoke,
			Description: "Verifies that a user can login with valid credentials",
			Run: func(h *Harness) {
				h.FullLogin(h.Credentials.ValidUsername, h.Credentials.ValidPassword)
				assert.True(h.T, h.Pages.Authenticated.IsLoggedIn(h.Ctx), "User should be logged in with valid credentials.")
			},
		},
		{
			Name:        "ValidLoginUsernameInCaps_ShouldRedirectToHome",
			Category:    Smoke,
			Description: "Verifies that the username ignores casing during login",
			Run: func(h *Harness) {
				h.FullLogin(strings.ToUpper(h.Credentials.ValidUsername), h.Credentials.ValidPassword)
				assert.True(h.T, h.Pages.Authenticated.IsLoggedIn(h.Ctx), "User should be logged in even with an uppercase username.")
			},
		},
		{
			Name:        "ValidLogin_UserCanLogout",
			Category:    Smoke,
			Description: "Verifies that a logged-in user can successfully logout",
			Run: func(h *Harness) {
				h.FullLogin(h.Credentials.ValidUsername, h.Credentials.ValidPassword)
				require.True(h.T, h.Pages.Authenticated.IsLoggedIn(h.Ctx), "User should be logged in.")
				require.NoError(h.T, h.Pages.Authenticated.Logout(h.Ctx), "logout")
				assert.True(h.T, h.Pages.Entry.IsLoggedOut(h.Ctx), "User should be logged out.")
			},
		},
		{
			Name:        "ValidLogin_PasswordShouldBeMasked",
			Category:    Security,
			Description: "Verifies that the password field is masked by default",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				require.NoError(h.T, h.Pages.Credentials.SetPassword(h.Ctx, h.Credentials.ValidPassword))
				requireMasked(h, true, "Password field should be masked.")
			},
		},
		{
			Name:        "ToggleShowPassword_ShouldUnmaskPassword",
			Category:    Security,
			Description: "Verifies that the show password toggle reveals the password",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				require.NoError(h.T, h.Pages.Credentials.SetPassword(h.Ctx, h.Credentials.ValidPassword))
				requireMasked(h, true, "Password field should be masked initially.")
				require.NoError(h.T, h.Pages.Credentials.ToggleShowPassword(h.Ctx))
				requireMasked(h, false, "Password field should be unmasked after toggle.")
			},
		},
		{
			Name:        "ToggleShowHidePassword_ShouldMaskPasswordAgain",
			Category:    Security,
			Description: "Verifies that toggling show password twice masks the password again",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				require.NoError(h.T, h.Pages.Credentials.SetPassword(h.Ctx, h.Credentials.ValidPassword))
				require.NoError(h.T, h.Pages.Credentials.ToggleShowPassword(h.Ctx))
				requireMasked(h, false, "Password field should be unmasked after the first toggle.")
				require.NoError(h.T, h.Pages.Credentials.ToggleShowPassword(h.Ctx))
				requireMasked(h, true, "Password field should be masked again after toggling twice.")
			},
		},
		{
			Name:        "SessionExpiry_ShouldNotAllowBackNavigationAfterLogout",
			Category:    Security,
			Description: "Verifies that a user cannot reach member content with browser back after logout",
			Run: func(h *Harness) {
				h.FullLogin(h.Credentials.ValidUsername, h.Credentials.ValidPassword)
				require.NoError(h.T, h.Pages.Authenticated.Logout(h.Ctx), "logout")
				require.True(h.T, h.Pages.Entry.IsLoggedOut(h.Ctx), "User should be logged out.")
				require.NoError(h.T, h.Driver.Back(h.Ctx), "navigate back")
				assert.False(h.T, h.Pages.Authenticated.IsLoggedIn(h.Ctx),
					"User should not see member content after navigating back after logout.")
			},
		},
		{
			Name:        "EditUsername_ShouldAllowChangingUsername",
			Category:    Functional,
			Description: "Verifies that a user can edit their username and login with correct credentials",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.TestUsername)
				require.NoError(h.T, h.Pages.Credentials.EditUsername(h.Ctx), "edit username")
				h.SubmitUsername(h.Credentials.ValidUsername)
				h.SubmitPassword(h.Credentials.ValidPassword)
				assert.True(h.T, h.Pages.Authenticated.IsLoggedIn(h.Ctx), "Valid user can login after username edit.")
			},
		},
		{
			Name:        "InvalidPassword_ShouldShowErrorMessage",
			Category:    Negative,
			Description: "Verifies an error message appears for an invalid password",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				h.SubmitPassword(h.Credentials.InvalidPassword)
				requireMessage(h, "password is incorrect", "Error message should appear for an invalid password.")
			},
		},
		{
			Name:        "InvalidPasswordInCaps_ShouldShowErrorMessage",
			Category:    Negative,
			Description: "Verifies that password validation is case-sensitive",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				h.SubmitPassword(strings.ToUpper(h.Credentials.ValidPassword))
				requireMessage(h, "password is incorrect", "An uppercased valid password should be rejected.")
			},
		},
		{
			Name:        "InvalidUsername_ShouldShowError",
			Category:    Negative,
			Description: "Verifies an error message for a non-existent user",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.TestUsername)
				h.SubmitPassword(h.Credentials.ValidPassword)
				requireMessage(h, "password is incorrect", "Error should appear for a non-existent user.")
			},
		},
		{
			Name:        "EmptyPassword_ShouldShowValidationError",
			Category:    Validation,
			Description: "Verifies the validation error for an empty password field",
			Run: func(h *Harness) {
				h.NavigateToPasswordStep(h.Credentials.ValidUsername)
				h.SubmitPassword("")
				requireMessage(h, "Enter your password", "Validation message should appear when the password is empty.")
			},
		},
		{
			Name:        "InvalidEmailFormat_ShouldShowValidationError",
			Category:    Validation,
			Description: "Verifies the validation error for an invalid email format",
			Run: func(h *Harness) {
				h.OpenLogin()
				h.SubmitUsername(h.Credentials.InvalidEmail)
				requireMessage(h, "Enter a valid email.", "Validation message should appear for an invalid email format.")
			},
		},
	}
}

// Lookup finds a scenario by exact name.
func Lookup(name string) (Scenario, bool) {
	for _, sc := range Catalog() {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

func requireMasked(h *Harness, want bool, msg string) {
	h.T.Helper()
	masked, err := h.Pages.Credentials.IsPasswordMasked(h.Ctx)
	require.NoError(h.T, err, "read password field type")
	require.Equal(h.T, want, masked, msg)
}

func requireMessage(h *Harness, want, msg string) {
	h.T.Helper()
	text, err := h.Pages.Credentials.ValidationMessage(h.Ctx)
	require.NoError(h.T, err, "read validation message")
	assert.Contains(h.T, text, want, msg)
}
