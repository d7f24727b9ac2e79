package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wablaster/wablaster/internal/browser"
	"github.com/wablaster/wablaster/internal/profile"
	"github.com/wablaster/wablaster/internal/ratelimit"
	"github.com/wablaster/wablaster/internal/sender"
	"github.com/wablaster/wablaster/internal/session"
	"github.com/wablaster/wablaster/pkg/models"
)

type stubDispatcher struct {
	outcome sender.Outcome
	calls   int
}

func (d *stubDispatcher) Send(ctx context.Context, phone, message string) sender.Outcome {
	d.calls++
	return d.outcome
}

type stubLifecycle struct {
	ready bool
}

func (l *stubLifecycle) Start(ctx context.Context) error {
	l.ready = true
	return nil
}
func (l *stubLifecycle) Stop()              { l.ready = false }
func (l *stubLifecycle) Ready() bool        { return l.ready }
func (l *stubLifecycle) OpenPrimary() error { return nil }

func newTestRouter(t *testing.T, dispatch sender.Dispatcher, burst int) http.Handler {
	t.Helper()

	store := session.NewStore(3*time.Second, time.Second)
	launcher := browser.NewLauncher(store, browser.Options{})
	reaper := browser.NewReaper(launcher, store, "https://web.whatsapp.com")
	profiles, err := profile.NewManager(filepath.Join(t.TempDir(), "profile"))
	require.NoError(t, err)

	coordinator := sender.NewCoordinator(store, &stubLifecycle{ready: true}, reaper, dispatch, profiles)
	hub := NewHub()
	coordinator.SetNotifier(hub.Broadcast)

	handler := NewHandler(coordinator, store, reaper, profiles, hub)
	return handler.SetupRoutes(ratelimit.NewLimiter(100, burst), 100)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:55555"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetStatusDefaults(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{}, 10)

	rec := doJSON(t, router, "GET", "/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SessionStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.Initialized)
	assert.False(t, status.Active)
	assert.NotNil(t, status.OpenSurfaces)
	assert.Empty(t, status.OpenSurfaces)
	assert.EqualValues(t, 3000, status.DelayMs)
}

func TestUpdateDelayValidation(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{}, 10)

	rec := doJSON(t, router, "PUT", "/v1/session/delay", models.UpdateDelayRequest{DelayMs: 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "PUT", "/v1/session/delay", models.UpdateDelayRequest{DelayMs: 1000})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/v1/session", nil)
	var status models.SessionStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.EqualValues(t, 1000, status.DelayMs, "next status call reflects the update")
}

func TestSendBlastRequiresRecipients(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{}, 10)

	rec := doJSON(t, router, "POST", "/v1/blast", models.BlastRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendBlastCounts(t *testing.T) {
	dispatch := &stubDispatcher{outcome: sender.OutcomeSent}
	router := newTestRouter(t, dispatch, 10)

	rec := doJSON(t, router, "POST", "/v1/blast", models.BlastRequest{
		Recipients: []models.Recipient{
			{Phone: "628123", Message: "hi"},
			{Phone: "", Message: "x"},
		},
		DelayMs: 1000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.BlastResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, 1, res.FailCount)
	assert.EqualValues(t, 1000, res.DelayUsedMs)
	assert.Equal(t, 1, dispatch.calls)
	assert.NotEmpty(t, res.BatchID)
}

func TestSendBlastRateLimited(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{outcome: sender.OutcomeSent}, 1)

	body := models.BlastRequest{Recipients: []models.Recipient{{Phone: "1", Message: "a"}}}
	rec := doJSON(t, router, "POST", "/v1/blast", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "POST", "/v1/blast", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCloseSession(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{}, 10)

	rec := doJSON(t, router, "DELETE", "/v1/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestResetProfile(t *testing.T) {
	router := newTestRouter(t, &stubDispatcher{}, 10)

	rec := doJSON(t, router, "POST", "/v1/profile/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ResetProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Contains(t, res.Backup, ".tar.gz")
}
