// internal/browser/session/live_test.go
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/config"
)

const livePage = `<!doctype html>
<html><body>
<input id="username" name="username" value="">
<input id="password" type="password">
<button class="primary submit" aria-label="Continue" disabled>Continue</button>
<p id="hidden" style="display:none">secret</p>
<a href="/next" data-qa-id="next">Next page</a>
</body></html>`

// requireChrome skips unless a real browser run was asked for and one is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv("LOGINPROBE_LIVE") != "1" {
		t.Skip("set LOGINPROBE_LIVE=1 to run tests against a real Chrome")
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func TestSession_Live(t *testing.T) {
	requireChrome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, livePage)
	})
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 id="done">Done</h1></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.NewDefaultConfig().Browser()
	cfg.Headless = true
	cfg.Stealth = true
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d, err := NewLauncher(cfg, srv.URL, zaptest.NewLogger(t)).Provision(ctx)
	require.NoError(t, err)
	defer Teardown(ctx, d, zaptest.NewLogger(t))

	user, err := d.FindElement(ctx, browser.ID("username"))
	require.NoError(t, err)
	require.NoError(t, user.SendKeys(ctx, "qa@example.com"))
	value, present, err := user.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "qa@example.com", value)
	require.NoError(t, user.Clear(ctx))
	value, _, err = user.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Empty(t, value)

	pw, err := d.FindElement(ctx, browser.ID("password"))
	require.NoError(t, err)
	kind, _, err := pw.Attribute(ctx, "type")
	require.NoError(t, err)
	assert.Equal(t, "password", kind)

	button, err := d.FindElement(ctx, browser.ClassName("submit"))
	require.NoError(t, err)
	enabled, err := button.IsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.ErrorIs(t, button.Click(ctx), browser.ErrNotInteractable)

	hidden, err := d.FindElement(ctx, browser.ID("hidden"))
	require.NoError(t, err)
	shown, err := hidden.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.False(t, shown)

	_, err = d.FindElement(ctx, browser.ID("missing"))
	assert.ErrorIs(t, err, browser.ErrNotFound)

	link, err := d.FindElement(ctx, browser.CSS(`[data-qa-id="next"]`))
	require.NoError(t, err)
	require.NoError(t, link.Click(ctx))
	d.SetImplicitWait(5 * time.Second)
	heading, err := d.FindElement(ctx, browser.ID("done"))
	require.NoError(t, err)
	text, err := heading.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Done", text)

	_, err = user.Text(ctx)
	assert.ErrorIs(t, err, browser.ErrStaleElement)

	require.NoError(t, d.Back(ctx))
	url, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", url)

	png, err := d.(browser.Screenshotter).Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	require.NoError(t, d.Quit(ctx))
	require.NoError(t, d.Quit(ctx))
	_, err = d.FindElement(ctx, browser.ID("username"))
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}
