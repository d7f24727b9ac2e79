package sender

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

// Outcome is the tri-state result of one send attempt. Rejected means
// the target UI reported the recipient as invalid; Failed covers
// timeouts and technical errors. The three are never collapsed into a
// boolean.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSent
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Surface is the slice of page behaviour the executor drives. The
// browser package provides the real implementation; tests substitute
// fakes.
type Surface interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	ClickVisibleByText(ctx context.Context, rootSelector string, labels []string, timeout time.Duration) (bool, error)
	URL() string
	Close() error
}

// Probe is one strategy for locating the invalid-recipient dismissal
// affordance. A non-empty Selector is an attribute query; otherwise the
// visible text of elements under the scan root is matched against
// Labels. Probes run in order with short-circuit on first hit.
type Probe struct {
	Selector string
	Labels   []string
	Timeout  time.Duration
}

// Config holds the selectors and timeouts the executor works with. The
// exact selectors are a stability risk of the target UI, which is why
// the dismissal side is an ordered probe list rather than a single
// query.
type Config struct {
	Origin          string
	SendSelector    string
	ConfirmSelector string
	DismissScanRoot string
	Probes          []Probe
	NavTimeout      time.Duration
	SendTimeout     time.Duration
	ConfirmTimeout  time.Duration
	ClickTimeout    time.Duration
	SettleDelay     time.Duration
}

// DefaultProbes returns the dismissal strategies for the stock target
// UI: the dialog's test-id button first, then a text scan over generic
// interactive elements.
func DefaultProbes() []Probe {
	return []Probe{
		{Selector: `div[role="dialog"] [data-testid="popup-controls-ok"]`, Timeout: 2 * time.Second},
		{Labels: []string{"OK", "Got it", "Ok, got it"}, Timeout: 3 * time.Second},
	}
}

// Executor drives one send attempt end-to-end against a fresh ephemeral
// surface.
type Executor struct {
	open  func() (Surface, error)
	cfg   Config
	sleep func(d time.Duration)
}

// NewExecutor creates an executor. open supplies a fresh surface per
// attempt (wired to the launcher in main).
func NewExecutor(open func() (Surface, error), cfg Config) *Executor {
	if cfg.SendSelector == "" {
		cfg.SendSelector = `[data-testid="compose-btn-send"], span[data-icon="send"]`
	}
	if cfg.ConfirmSelector == "" {
		cfg.ConfirmSelector = `span[data-icon="msg-check"], span[data-icon="msg-dblcheck"]`
	}
	if cfg.DismissScanRoot == "" {
		cfg.DismissScanRoot = `div[role="button"], button`
	}
	if len(cfg.Probes) == 0 {
		cfg.Probes = DefaultProbes()
	}
	// A zero timeout would disable the driver's bound entirely.
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 10 * time.Second
	}
	if cfg.ClickTimeout == 0 {
		cfg.ClickTimeout = 5 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 1500 * time.Millisecond
	}
	return &Executor{open: open, cfg: cfg, sleep: time.Sleep}
}

// Send runs one attempt and always settles a tri-state outcome; nothing
// from the page layer escapes as an error. The ephemeral surface is
// closed on every path, after a short pacing wait so a render catching
// up to a just-triggered click is not severed mid-flight.
func (e *Executor) Send(ctx context.Context, phone, message string) Outcome {
	digits := NormalizePhone(phone)
	if digits == "" {
		log.Printf("❌ Send skipped: no digits left after normalizing %q", phone)
		return OutcomeFailed
	}

	surf, err := e.open()
	if err != nil {
		log.Printf("❌ Send to %s: open surface: %v", digits, err)
		return OutcomeFailed
	}

	outcome := OutcomeFailed
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("❌ Send to %s panicked: %v", digits, rec)
				outcome = OutcomeFailed
			}
		}()
		outcome = e.drive(ctx, surf, digits, message)
	}()

	e.sleep(e.cfg.SettleDelay)
	if err := surf.Close(); err != nil {
		log.Printf("⚠️  Failed to close surface for %s: %v", digits, err)
	}
	return outcome
}

func (e *Executor) drive(ctx context.Context, surf Surface, digits, message string) Outcome {
	link := DeepLink(e.cfg.Origin, digits, message)
	if err := surf.Navigate(link, e.cfg.NavTimeout); err != nil {
		log.Printf("❌ Send to %s: navigation: %v", digits, err)
		return OutcomeFailed
	}

	// Branch one: the ready-to-send affordance appears.
	if err := surf.WaitVisible(e.cfg.SendSelector, e.cfg.SendTimeout); err == nil {
		if err := surf.Click(e.cfg.SendSelector, e.cfg.ClickTimeout); err != nil {
			log.Printf("❌ Send to %s: trigger send: %v", digits, err)
			return OutcomeFailed
		}
		// The confirmation UI is unreliable; its absence downgrades to
		// a warning, not a failure.
		if err := surf.WaitVisible(e.cfg.ConfirmSelector, e.cfg.ConfirmTimeout); err != nil {
			log.Printf("⚠️  Send to %s: no delivery confirmation, assuming sent", digits)
		}
		return OutcomeSent
	}

	// Branch two: probe for the invalid-recipient dismissal.
	for _, p := range e.cfg.Probes {
		if p.Selector != "" {
			if err := surf.WaitVisible(p.Selector, p.Timeout); err != nil {
				continue
			}
			if err := surf.Click(p.Selector, e.cfg.ClickTimeout); err != nil {
				continue
			}
			log.Printf("🚫 Recipient %s rejected by target UI", digits)
			return OutcomeRejected
		}
		hit, err := surf.ClickVisibleByText(ctx, e.cfg.DismissScanRoot, p.Labels, p.Timeout)
		if err != nil {
			continue
		}
		if hit {
			log.Printf("🚫 Recipient %s rejected by target UI", digits)
			return OutcomeRejected
		}
	}

	log.Printf("❌ Send to %s: neither send affordance nor dismissal found", digits)
	return OutcomeFailed
}

// NormalizePhone strips everything but digits from free-form input.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DeepLink builds the site's built-in send URL for a normalized phone
// and prefilled text.
func DeepLink(origin, digits, message string) string {
	return fmt.Sprintf("%s/send?phone=%s&text=%s",
		strings.TrimRight(origin, "/"), digits, url.QueryEscape(message))
}
