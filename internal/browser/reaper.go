package browser

import (
	"log"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/wablaster/wablaster/internal/session"
)

// reapable is the slice of page behaviour the reaper touches, narrowed
// so tests can substitute fakes.
type reapable interface {
	URL() string
	Close(options ...playwright.PageCloseOptions) error
}

// Reaper closes stale or transient surfaces. Hard reap (forceAll) closes
// every target-site surface; soft reap closes only the ephemeral
// per-send ones, identified by the send-intent query parameter, and
// leaves the primary surface alone.
type Reaper struct {
	store  *session.Store
	origin string
	list   func() []reapable
}

// NewReaper wires a reaper to the launcher's live page enumeration.
func NewReaper(launcher *Launcher, store *session.Store, origin string) *Reaper {
	return &Reaper{
		store:  store,
		origin: origin,
		list: func() []reapable {
			pages := launcher.Pages()
			out := make([]reapable, 0, len(pages))
			for _, p := range pages {
				out = append(out, p)
			}
			return out
		},
	}
}

// Reap closes surfaces per the forceAll policy. Individual close
// failures are logged and do not abort the rest; the resulting state is
// re-derived from the live enumeration, not from accumulated deltas.
func (r *Reaper) Reap(forceAll bool) {
	for _, p := range r.list() {
		u := p.URL()
		if !belongsTo(u, r.origin) {
			continue
		}
		if !forceAll && !isEphemeral(u) {
			continue
		}
		if err := p.Close(); err != nil {
			log.Printf("⚠️  Failed to close surface %s: %v", u, err)
		}
	}

	if forceAll {
		r.store.SetSurfaces(nil)
		return
	}
	r.Refresh()
}

// Refresh recomputes the open-surface list and the active flag from the
// live page enumeration. Idempotent; safe to call from status reporting.
func (r *Reaper) Refresh() []string {
	var urls []string
	for _, p := range r.list() {
		if u := p.URL(); belongsTo(u, r.origin) {
			urls = append(urls, u)
		}
	}
	r.store.SetSurfaces(urls)
	return urls
}

// belongsTo reports whether raw is a page on the target origin.
func belongsTo(raw, origin string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, o.Scheme) && strings.EqualFold(u.Host, o.Host)
}

// isEphemeral reports whether raw is a per-send surface. Deep-link sends
// carry the recipient in the phone query parameter; the primary surface
// sits at the site root without it.
func isEphemeral(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Query().Get("phone") != ""
}
