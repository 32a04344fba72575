// internal/scenario/suite.go
package scenario

import (
	"context"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/browser/session"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/credentials"
	"github.com/xkilldash9x/loginprobe/internal/outcome"
	"github.com/xkilldash9x/loginprobe/internal/pages"
	"github.com/xkilldash9x/loginprobe/internal/wait"
)

// Provisioner starts a browser session already on the entry page.
type Provisioner interface {
	Provision(ctx context.Context) (browser.Driver, error)
}

// Capturer records diagnostics for a finished scenario.
type Capturer interface {
	CaptureIfFailed(ctx context.Context, o *outcome.Outcome, d browser.Driver)
}

// Suite owns what every scenario needs to set itself up.
type Suite struct {
	cfg         config.Interface
	provisioner Provisioner
	capturer    Capturer
	logger      *zap.Logger
}

// NewSuite creates a suite. capturer may be nil.
func NewSuite(cfg config.Interface, provisioner Provisioner, capturer Capturer, logger *zap.Logger) *Suite {
	return &Suite{
		cfg:         cfg,
		provisioner: provisioner,
		capturer:    capturer,
		logger:      logger.Named("scenario"),
	}
}

// Harness is the per scenario state: a session, credentials and page objects.
type Harness struct {
	T           TB
	Ctx         context.Context
	Driver      browser.Driver
	Credentials credentials.Config
	Pages       pages.Set

	capturer Capturer
	logger   *zap.Logger
}

// Setup provisions a session, registers its teardown, loads credentials and
// builds the page objects. A provisioning or credential failure is fatal.
func (s *Suite) Setup(t TB) *Harness {
	t.Helper()
	ctx := t.Context()
	log := s.logger.With(zap.String("test", t.Name()))

	drv, err := s.provisioner.Provision(ctx)
	if err != nil {
		t.Fatalf("provision browser session: %v", err)
		return nil
	}

	h := &Harness{
		T:        t,
		Ctx:      ctx,
		Driver:   drv,
		capturer: s.capturer,
		logger:   log,
	}
	t.Cleanup(h.teardown)

	creds, err := credentials.Load(s.cfg.Credentials().Path)
	if err != nil {
		t.Fatalf("load credentials: %v", err)
		return nil
	}
	h.Credentials = creds
	h.Pages = pages.NewSet(drv, wait.New(s.cfg.Wait(), log), log)
	log.Debug("Scenario set up.")
	return h
}

// teardown captures diagnostics and then quits the session. The quit is
// deferred so it still happens if capture panics.
func (h *Harness) teardown() {
	ctx := context.WithoutCancel(h.Ctx)
	defer func() {
		_ = session.Teardown(ctx, h.Driver, h.logger)
	}()

	if h.capturer == nil {
		return
	}
	o := &outcome.Outcome{TestName: h.T.Name(), Status: outcome.Passed}
	if h.T.Failed() {
		o.Status = outcome.Failed
	}
	h.capturer.CaptureIfFailed(ctx, o, h.Driver)
	if o.DiagnosticsPath == "" {
		return
	}
	if rec, ok := h.T.(artifactRecorder); ok {
		rec.RecordArtifact(o.DiagnosticsPath, o.ArtifactURI)
	} else {
		h.T.Logf("failure screenshot: %s", o.DiagnosticsPath)
	}
}

// OpenLogin moves from the entry page to the username step, accepting the
// cookie banner if one is shown.
func (h *Harness) OpenLogin() {
	h.T.Helper()
	require.NoError(h.T, h.Pages.Entry.StartLogin(h.Ctx), "open the login form")
	h.Pages.Credentials.AcceptCookieConsentIfPresent(h.Ctx)
}

// NavigateToPasswordStep submits username and stops at the password step.
func (h *Harness) NavigateToPasswordStep(username string) {
	h.T.Helper()
	h.OpenLogin()
	h.SubmitUsername(username)
}

// SubmitUsername enters username on the username step and continues.
func (h *Harness) SubmitUsername(username string) {
	h.T.Helper()
	require.NoError(h.T, h.Pages.Credentials.SetUsername(h.Ctx, username), "enter username")
	require.NoError(h.T, h.Pages.Credentials.Submit(h.Ctx), "submit username")
}

// SubmitPassword enters password on the password step and continues.
func (h *Harness) SubmitPassword(password string) {
	h.T.Helper()
	require.NoError(h.T, h.Pages.Credentials.SetPassword(h.Ctx, password), "enter password")
	require.NoError(h.T, h.Pages.Credentials.Submit(h.Ctx), "submit password")
}

// FullLogin runs the whole identifier first flow.
func (h *Harness) FullLogin(username, password string) {
	h.T.Helper()
	h.NavigateToPasswordStep(username)
	h.SubmitPassword(password)
}

// Execute runs sc in its own session and returns its outcome.
func (s *Suite) Execute(ctx context.Context, sc Scenario) *outcome.Outcome {
	o := Run(ctx, sc.Name, s.logger, func(t *T) {
		h := s.Setup(t)
		sc.Run(h)
	})
	o.Category = string(sc.Category)
	o.Description = sc.Description
	return o
}
