// internal/browser/session/launcher.go
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/browser/stealth"
	"github.com/xkilldash9x/loginprobe/internal/config"
)

// ErrProvision is returned when a browser could not be started or could not
// reach the entry page.
var ErrProvision = errors.New("session: failed to provision browser")

const teardownTimeout = 15 * time.Second

// Launcher starts one isolated Chrome instance per Provision call.
type Launcher struct {
	cfg      config.BrowserConfig
	entryURL string
	logger   *zap.Logger
}

// NewLauncher creates a launcher for the configured browser and entry page.
func NewLauncher(cfg config.BrowserConfig, entryURL string, logger *zap.Logger) *Launcher {
	return &Launcher{
		cfg:      cfg,
		entryURL: entryURL,
		logger:   logger.Named("session"),
	}
}

// AllocatorFlags returns the Chrome command line switches for cfg.
func AllocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                 cfg.Headless,
		"disable-gpu":              cfg.Headless,
		"hide-scrollbars":          cfg.Headless,
		"mute-audio":               true,
		"no-first-run":             true,
		"no-default-browser-check": true,
		"disable-dev-shm-usage":    true,
	}
	if cfg.Stealth {
		flags["disable-blink-features"] = "AutomationControlled"
		flags["enable-automation"] = false
	} else {
		flags["enable-automation"] = true
	}
	if cfg.NoSandbox || runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for cfg.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}
	for name, value := range AllocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	for _, arg := range cfg.Args {
		if name, value, ok := strings.Cut(trimDashes(arg), "="); ok {
			opts = append(opts, chromedp.Flag(name, value))
			continue
		}
		opts = append(opts, chromedp.Flag(trimDashes(arg), true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.Stealth {
		opts = append(opts, chromedp.UserAgent(stealth.FromConfig(cfg.Persona).UserAgent))
	}
	return opts
}

func trimDashes(arg string) string {
	for len(arg) > 0 && arg[0] == '-' {
		arg = arg[1:]
	}
	return arg
}

// Provision starts a browser, applies the persona and navigates to the entry
// page. Any failure is wrapped in ErrProvision and leaves no process behind.
func (l *Launcher) Provision(ctx context.Context) (browser.Driver, error) {
	id := uuid.NewString()
	log := l.logger.With(zap.String("session_id", id))

	// The browser process is bound to the allocator context, so it must outlive ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(l.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)

	s := &Session{
		id:            id,
		ctx:           browserCtx,
		cancel:        browserCancel,
		allocCancel:   allocCancel,
		actionTimeout: l.cfg.ActionTimeout,
		navTimeout:    l.cfg.ProvisionTimeout,
		logger:        log,
	}
	s.SetImplicitWait(l.cfg.ImplicitWait)

	startCtx, cancel := context.WithTimeout(ctx, l.cfg.ProvisionTimeout)
	defer cancel()

	if err := l.start(startCtx, s); err != nil {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), teardownTimeout)
		_ = s.shutdown(cleanupCtx)
		cleanupCancel()
		log.Error("Failed to provision browser.", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProvision, err)
	}

	log.Info("Browser session provisioned.", zap.String("entry_url", l.entryURL), zap.Bool("headless", l.cfg.Headless))
	return s, nil
}

func (l *Launcher) start(ctx context.Context, s *Session) error {
	// The first Run launches Chrome; it cannot take a deadline of its own.
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(s.ctx) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("timed out starting browser: %w", ctx.Err())
	}
	s.started.Store(true)

	var tasks chromedp.Tasks
	if l.cfg.Stealth {
		tasks = append(tasks, stealth.Apply(stealth.FromConfig(l.cfg.Persona), s.logger))
	}
	tasks = append(tasks, chromedp.Navigate(l.entryURL))
	if err := s.run(ctx, tasks); err != nil {
		return fmt.Errorf("failed to open %s: %w", l.entryURL, err)
	}
	return nil
}

// Teardown quits d if it is non-nil, bounded by a fixed grace period. It is
// safe to call with a nil driver or more than once.
func Teardown(ctx context.Context, d browser.Driver, logger *zap.Logger) error {
	if d == nil {
		return nil
	}
	quitCtx, cancel := context.WithTimeout(Detach(ctx), teardownTimeout)
	defer cancel()
	if err := d.Quit(quitCtx); err != nil {
		logger.Warn("Browser teardown reported an error.", zap.Error(err))
		return err
	}
	return nil
}
