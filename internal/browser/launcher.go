package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/wablaster/wablaster/internal/session"
)

// ErrInitialization marks the one fatal failure in this subsystem: the
// browser session could not be created. Everything else is downgraded to
// a per-send outcome.
var ErrInitialization = errors.New("browser initialization failed")

// ErrNotRunning is returned when a surface is requested while no browser
// session exists.
var ErrNotRunning = errors.New("no browser session")

// Options configure the launcher.
type Options struct {
	// ProfileDir is the persistent user-data directory. Login/pairing
	// state survives restarts through it.
	ProfileDir string

	// Origin is the target site root, used when opening the primary
	// surface.
	Origin string

	// Headless should stay false in production: pairing requires a
	// human in front of a visible window.
	Headless bool

	// NavTimeout bounds navigation of the primary surface.
	NavTimeout float64
}

// Launcher owns the single BrowserSession. At most one persistent
// context is alive at any time; Start tears down any previous instance
// before launching a new one.
type Launcher struct {
	mu      sync.Mutex
	store   *session.Store
	opts    Options
	pw      *playwright.Playwright
	browser playwright.BrowserContext
}

// NewLauncher creates a launcher. Nothing is started until Start runs.
func NewLauncher(store *session.Store, opts Options) *Launcher {
	return &Launcher{store: store, opts: opts}
}

// Start launches a fresh browser session. An existing session is closed
// first, best-effort: a crashed browser cannot be closed meaningfully, so
// that failure is logged and ignored. On any launch failure the store is
// marked uninitialized and the error wraps ErrInitialization.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeBrowserLocked()

	if l.pw == nil {
		runOpts := &playwright.RunOptions{Verbose: false}
		if err := playwright.Install(runOpts); err != nil {
			l.store.SetInitialized(false)
			return fmt.Errorf("%w: install driver: %v", ErrInitialization, err)
		}
		pw, err := playwright.Run(runOpts)
		if err != nil {
			l.store.SetInitialized(false)
			return fmt.Errorf("%w: start driver: %v", ErrInitialization, err)
		}
		l.pw = pw
	}

	// Sandboxing is disabled because the driver cannot launch Chromium
	// inside containers/locked-down hosts with it on.
	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
		},
	}

	browserCtx, err := l.pw.Chromium.LaunchPersistentContext(l.opts.ProfileDir, launchOpts)
	if err != nil {
		l.store.SetInitialized(false)
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	l.browser = browserCtx
	l.store.SetInitialized(true)
	l.store.MarkActivity()
	log.Printf("✅ Browser session started (profile: %s)", l.opts.ProfileDir)
	return nil
}

// Stop closes the browser session and the driver. The handles are
// cleared even when close fails, so a later Start is never blocked by a
// failed teardown.
func (l *Launcher) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeBrowserLocked()

	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			log.Printf("⚠️  Failed to stop driver: %v", err)
		}
		l.pw = nil
	}
}

func (l *Launcher) closeBrowserLocked() {
	if l.browser == nil {
		return
	}
	if err := l.browser.Close(); err != nil {
		log.Printf("⚠️  Failed to close browser session: %v", err)
	}
	l.browser = nil
	l.store.SetInitialized(false)
}

// Ready reports whether a browser session exists.
func (l *Launcher) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.browser != nil
}

// Pages enumerates every open page of the current session. Nil when no
// session exists.
func (l *Launcher) Pages() []playwright.Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return nil
	}
	return l.browser.Pages()
}

// OpenSurface opens a new blank page for one send attempt.
func (l *Launcher) OpenSurface() (*Surface, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return nil, ErrNotRunning
	}
	page, err := l.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open surface: %w", err)
	}
	return &Surface{page: page}, nil
}

// OpenPrimary opens the long-lived primary surface at the target site
// root. This is where the human completes pairing and watches the
// session.
func (l *Launcher) OpenPrimary() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return ErrNotRunning
	}
	page, err := l.browser.NewPage()
	if err != nil {
		return fmt.Errorf("open primary surface: %w", err)
	}
	_, err = page.Goto(l.opts.Origin, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(l.opts.NavTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigate primary surface: %w", err)
	}
	return nil
}
