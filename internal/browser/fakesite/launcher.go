package fakesite

import (
	"context"
	"sync"

	"github.com/xkilldash9x/loginprobe/internal/browser"
)

// Launcher provisions a fresh Site per call, mirroring session.Launcher.
type Launcher struct {
	Options Options
	// EntryURL is navigated to after creation. Defaults to HomeURL.
	EntryURL string
	// Err, when set, makes every Provision call fail.
	Err error

	mu       sync.Mutex
	launched []*Site
}

// Provision returns a new Site already on the entry page.
func (l *Launcher) Provision(ctx context.Context) (browser.Driver, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	site := New(l.Options)
	entry := l.EntryURL
	if entry == "" {
		entry = HomeURL
	}
	if err := site.Navigate(ctx, entry); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.launched = append(l.launched, site)
	l.mu.Unlock()
	return site, nil
}

// Launched returns every Site provisioned so far.
func (l *Launcher) Launched() []*Site {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Site(nil), l.launched...)
}
