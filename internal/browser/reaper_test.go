package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"

	"github.com/wablaster/wablaster/internal/session"
)

const testOrigin = "https://web.whatsapp.com"

type fakePage struct {
	url       string
	closed    bool
	failClose bool
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Close(options ...playwright.PageCloseOptions) error {
	if p.failClose {
		return errors.New("render gone")
	}
	p.closed = true
	return nil
}

func newTestReaper(st *session.Store, pages ...*fakePage) *Reaper {
	return &Reaper{
		store:  st,
		origin: testOrigin,
		list: func() []reapable {
			var live []reapable
			for _, p := range pages {
				if !p.closed {
					live = append(live, p)
				}
			}
			return live
		},
	}
}

func TestReapForceAllClosesEverything(t *testing.T) {
	st := session.NewStore(time.Second, time.Second)
	primary := &fakePage{url: testOrigin + "/"}
	ephemeral := &fakePage{url: testOrigin + "/send?phone=628123&text=hi"}
	unrelated := &fakePage{url: "https://example.com/"}

	r := newTestReaper(st, primary, ephemeral, unrelated)
	r.Reap(true)

	assert.True(t, primary.closed)
	assert.True(t, ephemeral.closed)
	assert.False(t, unrelated.closed, "pages off the target origin are left alone")

	snap := st.Snapshot()
	assert.False(t, snap.Active)
	assert.Empty(t, snap.OpenSurfaces)
}

func TestReapSoftKeepsPrimary(t *testing.T) {
	st := session.NewStore(time.Second, time.Second)
	primary := &fakePage{url: testOrigin + "/"}
	ephemeral := &fakePage{url: testOrigin + "/send?phone=628123&text=hi"}

	r := newTestReaper(st, primary, ephemeral)
	r.Reap(false)

	assert.False(t, primary.closed)
	assert.True(t, ephemeral.closed)

	snap := st.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, []string{testOrigin + "/"}, snap.OpenSurfaces)
}

func TestReapSoftOnlyEphemeralGoesInactive(t *testing.T) {
	st := session.NewStore(time.Second, time.Second)
	a := &fakePage{url: testOrigin + "/send?phone=1&text=x"}
	b := &fakePage{url: testOrigin + "/send?phone=2&text=x"}

	r := newTestReaper(st, a, b)
	r.Reap(false)

	snap := st.Snapshot()
	assert.False(t, snap.Active)
	assert.Empty(t, snap.OpenSurfaces)
}

func TestReapCloseFailureIsBestEffort(t *testing.T) {
	st := session.NewStore(time.Second, time.Second)
	stuck := &fakePage{url: testOrigin + "/send?phone=1&text=x", failClose: true}
	other := &fakePage{url: testOrigin + "/send?phone=2&text=x"}

	r := newTestReaper(st, stuck, other)
	r.Reap(false)

	// The failure on one surface must not stop the rest from closing,
	// and the surviving page shows up in the re-derived state.
	assert.True(t, other.closed)
	snap := st.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, []string{stuck.url}, snap.OpenSurfaces)
}

func TestRefreshRecomputesFromLivePages(t *testing.T) {
	st := session.NewStore(time.Second, time.Second)
	st.SetSurfaces([]string{"stale-bookkeeping"})

	primary := &fakePage{url: testOrigin + "/"}
	r := newTestReaper(st, primary)

	urls := r.Refresh()
	assert.Equal(t, []string{testOrigin + "/"}, urls)
	assert.Equal(t, urls, st.Snapshot().OpenSurfaces)
}

func TestBelongsTo(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{testOrigin + "/", true},
		{testOrigin + "/send?phone=1", true},
		{"HTTPS://WEB.WHATSAPP.COM/x", true},
		{"https://example.com/", false},
		{"about:blank", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, belongsTo(tt.url, testOrigin), tt.url)
	}
}

func TestIsEphemeral(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{testOrigin + "/send?phone=628123&text=hi", true},
		{testOrigin + "/", false},
		{testOrigin + "/send?text=hi", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isEphemeral(tt.url), tt.url)
	}
}
