package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wablaster/wablaster/internal/browser"
	"github.com/wablaster/wablaster/internal/profile"
	"github.com/wablaster/wablaster/internal/sender"
	"github.com/wablaster/wablaster/internal/session"
	"github.com/wablaster/wablaster/pkg/models"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	coordinator *sender.Coordinator
	store       *session.Store
	reaper      *browser.Reaper
	profiles    *profile.Manager
	hub         *Hub
}

// NewHandler creates a new HTTP handler.
func NewHandler(coordinator *sender.Coordinator, store *session.Store, reaper *browser.Reaper, profiles *profile.Manager, hub *Hub) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       store,
		reaper:      reaper,
		profiles:    profiles,
		hub:         hub,
	}
}

// InitializeSession handles POST /v1/session.
func (h *Handler) InitializeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Initialize(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeStatus(w)
}

// CloseSession handles DELETE /v1/session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Close(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatus handles GET /v1/session. The surface list and active flag
// are recomputed from the live page enumeration on every call.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w)
}

func (h *Handler) writeStatus(w http.ResponseWriter) {
	h.reaper.Refresh()
	state := h.store.Snapshot()

	surfaces := state.OpenSurfaces
	if surfaces == nil {
		surfaces = []string{}
	}

	status := models.SessionStatus{
		Initialized:    state.Initialized,
		Active:         state.Active,
		LastActivityAt: state.LastActivityAt,
		OpenSurfaces:   surfaces,
		DelayMs:        h.store.Delay().Milliseconds(),
		Profile:        h.profiles.Info(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// UpdateDelay handles PUT /v1/session/delay.
func (h *Handler) UpdateDelay(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.SetDelay(time.Duration(req.DelayMs) * time.Millisecond); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"delayMs": h.store.Delay().Milliseconds()})
}

// SendBlast handles POST /v1/blast.
func (h *Handler) SendBlast(w http.ResponseWriter, r *http.Request) {
	var req models.BlastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Recipients) == 0 {
		http.Error(w, "recipients is required", http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.SendBatch(r.Context(), req.Recipients, time.Duration(req.DelayMs)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.BlastResponse{
		BatchID:       res.BatchID,
		SuccessCount:  res.SuccessCount,
		RejectedCount: res.RejectedCount,
		FailedCount:   res.FailedCount,
		FailCount:     res.FailCount(),
		DelayUsedMs:   res.DelayUsed.Milliseconds(),
	})
}

// ResetProfile handles POST /v1/profile/reset.
func (h *Handler) ResetProfile(w http.ResponseWriter, r *http.Request) {
	backup, err := h.coordinator.ResetProfile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ResetProfileResponse{Backup: backup})
}

// BlastProgress handles GET /v1/blast/ws.
func (h *Handler) BlastProgress(w http.ResponseWriter, r *http.Request) {
	h.hub.HandleConnection(w, r)
}

// writeError maps the error taxonomy to HTTP codes: busy guard → 409,
// initialization failure → 500, everything else is caller input → 400.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sender.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, browser.ErrInitialization), errors.Is(err, browser.ErrNotRunning):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case errors.Is(err, session.ErrDelayTooShort):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
