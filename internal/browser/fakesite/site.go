// Package fakesite is an in-memory stand-in for the target login flow. It implements
// browser.Driver with the same locators, step sequence and validation rules as the
// real site, plus configurable rendering latency, so the wait engine, page objects
// and scenarios can be exercised without a browser.
package fakesite

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/pages"
)

// Addresses of the simulated pages.
const (
	HomeURL     = "https://fake.test/en_gb/"
	LoginURL    = "https://fake.test/login"
	PasswordURL = "https://fake.test/login/password"
	MemberURL   = "https://fake.test/home"
)

// Messages shown by the simulated validation errors.
const (
	MsgUsernameRequired  = "Enter an email address."
	MsgEmailInvalid      = "Enter a valid email."
	MsgPasswordRequired  = "Enter your password."
	MsgPasswordIncorrect = "Your email or password is incorrect. Try again."
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is a registered account.
type User struct {
	Password    string
	DisplayName string
}

// Options configures a Site.
type Options struct {
	// Users maps email to account. Emails match case-insensitively.
	Users map[string]User
	// Latency delays the appearance of a freshly rendered page and of validation errors.
	Latency time.Duration
	// CookieBanner shows the consent banner on the first visit to the login form.
	CookieBanner bool
	// BackRestoresSession makes history navigation after logout show the member
	// page again, reproducing a cached-session defect.
	BackRestoresSession bool
	// ScreenshotErr is returned by Screenshot when set.
	ScreenshotErr error
}

type pageID int

const (
	pageHome pageID = iota
	pageUsername
	pagePassword
	pageMember
)

var pageURLs = map[pageID]string{
	pageHome:     HomeURL,
	pageUsername: LoginURL,
	pagePassword: PasswordURL,
	pageMember:   MemberURL,
}

// Site is one simulated browser session. It is safe for concurrent use.
type Site struct {
	mu   sync.Mutex
	opts Options

	page       pageID
	generation int
	renderedAt time.Time
	history    []pageID

	loginMenuOpen bool
	userMenuOpen  bool
	cookieShown   bool
	cookieDone    bool

	usernameValue     string
	passwordValue     string
	submittedUsername string
	passwordVisible   bool
	activeError       *browser.Locator
	errorAt           time.Time

	loggedInAs string
	implicit   time.Duration
	closed     bool
	quits      int
	events     []string
}

var (
	_ browser.Driver        = (*Site)(nil)
	_ browser.Screenshotter = (*Site)(nil)
)

// New returns a session sitting on the home page.
func New(opts Options) *Site {
	users := make(map[string]User, len(opts.Users))
	for email, u := range opts.Users {
		users[strings.ToLower(email)] = u
	}
	opts.Users = users

	s := &Site{opts: opts}
	s.render(pageHome)
	return s
}

// WithoutScreenshots hides the Screenshot capability of s.
func (s *Site) WithoutScreenshots() browser.Driver {
	return struct{ browser.Driver }{s}
}

// Events lists the actions performed on the site, in order.
func (s *Site) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// Quits counts calls to Quit, including repeated ones.
func (s *Site) Quits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quits
}

// Closed reports whether the session has been quit.
func (s *Site) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Navigate loads url. Unknown addresses land on the home page.
func (s *Site) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.record("navigate " + url)
	for id, u := range pageURLs {
		if u == url {
			s.visit(id)
			return nil
		}
	}
	s.visit(pageHome)
	return nil
}

// Back returns to the previous page in history.
func (s *Site) Back(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	s.record("back")
	if len(s.history) == 0 {
		return nil
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	if prev == pageMember && s.loggedInAs == "" && !s.opts.BackRestoresSession {
		prev = pageHome
	}
	s.render(prev)
	return nil
}

// CurrentURL returns the address of the current page.
func (s *Site) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", browser.ErrSessionClosed
	}
	return pageURLs[s.page], nil
}

// SetImplicitWait makes FindElement poll for up to d.
func (s *Site) SetImplicitWait(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.implicit = d
}

// FindElement looks loc up on the current page.
func (s *Site) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	s.mu.Lock()
	implicit := s.implicit
	s.mu.Unlock()

	deadline := time.Now().Add(implicit)
	for {
		el, err := s.lookup(loc)
		if err == nil || !browser.IsTransient(err) || !time.Now().Before(deadline) {
			return el, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *Site) lookup(loc browser.Locator) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	if _, ok := s.state(loc); !ok {
		return nil, browser.ErrNotFound
	}
	return &element{site: s, loc: loc, generation: s.generation}, nil
}

// Screenshot returns a PNG-signed byte slice naming the current page.
func (s *Site) Screenshot(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	if s.opts.ScreenshotErr != nil {
		return nil, s.opts.ScreenshotErr
	}
	s.record("screenshot")
	png := []byte("\x89PNG\r\n\x1a\n")
	return append(png, pageURLs[s.page]...), nil
}

// Quit closes the session. Repeated calls are no-ops.
func (s *Site) Quit(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	if s.closed {
		return nil
	}
	s.closed = true
	s.record("quit")
	return nil
}

// -- page model --

// elementState describes an element present on the current page.
type elementState struct {
	displayed bool
	text      string
	attrs     map[string]string
}

// state reports whether loc is present on the current page and how it looks.
// Must be called with s.mu held.
func (s *Site) state(loc browser.Locator) (elementState, bool) {
	now := time.Now()
	if now.Before(s.renderedAt.Add(s.opts.Latency)) {
		return elementState{}, false
	}

	switch s.page {
	case pageHome:
		switch loc {
		case pages.LoginSelectButton:
			return elementState{displayed: true, text: "Log in"}, true
		case pages.LoginProviderIcon:
			return elementState{displayed: s.loginMenuOpen, text: "Hudl"}, true
		}
	case pageUsername:
		switch loc {
		case pages.UsernameField:
			return elementState{displayed: true, attrs: map[string]string{"id": "username", "type": "text", "value": s.usernameValue}}, true
		case pages.ContinueButton:
			return elementState{displayed: true, text: "Continue"}, true
		case pages.CookieAcceptButton:
			if s.cookieShown {
				return elementState{displayed: true, text: "Accept All Cookies"}, true
			}
		}
	case pagePassword:
		switch loc {
		case pages.PasswordField:
			kind := "password"
			if s.passwordVisible {
				kind = "text"
			}
			return elementState{displayed: true, attrs: map[string]string{"id": "password", "type": kind, "value": s.passwordValue}}, true
		case pages.ContinueButton:
			return elementState{displayed: true, text: "Continue"}, true
		case pages.EditUsernameLink:
			return elementState{displayed: true, text: "Edit"}, true
		case pages.ShowPasswordToggle:
			if !s.passwordVisible {
				return elementState{displayed: true, attrs: map[string]string{"aria-label": "Show password"}}, true
			}
		case pages.HidePasswordToggle:
			if s.passwordVisible {
				return elementState{displayed: true, attrs: map[string]string{"aria-label": "Hide password"}}, true
			}
		case pages.CookieAcceptButton:
			if s.cookieShown {
				return elementState{displayed: true, text: "Accept All Cookies"}, true
			}
		}
	case pageMember:
		switch loc {
		case pages.UserDisplayName:
			return elementState{displayed: true, text: s.displayName()}, true
		case pages.LogoutLink:
			return elementState{displayed: s.userMenuOpen, text: "Log Out"}, true
		}
	}

	if s.activeError != nil && *s.activeError == loc && !now.Before(s.errorAt) {
		return elementState{displayed: true, text: errorMessages[loc]}, true
	}
	return elementState{}, false
}

var errorMessages = map[browser.Locator]string{
	pages.UsernameRequiredError:  MsgUsernameRequired,
	pages.EmailInvalidError:      MsgEmailInvalid,
	pages.PasswordRequiredError:  MsgPasswordRequired,
	pages.PasswordIncorrectError: MsgPasswordIncorrect,
}

func (s *Site) displayName() string {
	user, ok := s.opts.Users[s.loggedInAs]
	if !ok {
		// A cached member page still shows the last name it rendered.
		return "Member"
	}
	if user.DisplayName == "" {
		return s.loggedInAs
	}
	return user.DisplayName
}

// click applies the effect of clicking loc. Must be called with s.mu held.
func (s *Site) click(loc browser.Locator) {
	s.record("click " + loc.String())
	switch loc {
	case pages.LoginSelectButton:
		s.loginMenuOpen = true
	case pages.LoginProviderIcon:
		s.usernameValue = ""
		s.visit(pageUsername)
	case pages.CookieAcceptButton:
		s.cookieShown = false
		s.cookieDone = true
	case pages.ContinueButton:
		if s.page == pageUsername {
			s.submitUsername()
		} else {
			s.submitPassword()
		}
	case pages.ShowPasswordToggle, pages.HidePasswordToggle:
		s.passwordVisible = !s.passwordVisible
	case pages.EditUsernameLink:
		s.usernameValue = s.submittedUsername
		s.visit(pageUsername)
	case pages.UserDisplayName:
		s.userMenuOpen = true
	case pages.LogoutLink:
		s.loggedInAs = ""
		s.visit(pageHome)
	}
}

func (s *Site) submitUsername() {
	value := strings.TrimSpace(s.usernameValue)
	switch {
	case value == "":
		s.showError(pages.UsernameRequiredError)
	case !emailPattern.MatchString(value):
		s.showError(pages.EmailInvalidError)
	default:
		s.submittedUsername = value
		s.visit(pagePassword)
	}
}

func (s *Site) submitPassword() {
	if s.passwordValue == "" {
		s.showError(pages.PasswordRequiredError)
		return
	}
	key := strings.ToLower(s.submittedUsername)
	user, ok := s.opts.Users[key]
	if !ok || user.Password != s.passwordValue {
		s.passwordValue = ""
		s.showError(pages.PasswordIncorrectError)
		return
	}
	s.loggedInAs = key
	s.visit(pageMember)
}

func (s *Site) showError(loc browser.Locator) {
	s.activeError = &loc
	s.errorAt = time.Now().Add(s.opts.Latency)
}

// visit pushes the current page to history and renders id.
func (s *Site) visit(id pageID) {
	s.history = append(s.history, s.page)
	s.render(id)
}

// render replaces the document, invalidating every outstanding element handle.
func (s *Site) render(id pageID) {
	if id == pageHome && s.loggedInAs != "" {
		id = pageMember
	}
	s.page = id
	s.generation++
	s.renderedAt = time.Now()
	s.loginMenuOpen = false
	s.userMenuOpen = false
	s.activeError = nil
	if id == pagePassword {
		s.passwordValue = ""
		s.passwordVisible = false
	}
	s.cookieShown = s.opts.CookieBanner && !s.cookieDone && (id == pageUsername || id == pagePassword)
}

func (s *Site) record(event string) {
	s.events = append(s.events, event)
}
