package models

import "time"

// SessionStatus is the live state of the browser session as reported by
// GET /v1/session. OpenSurfaces and Active are recomputed from the live
// page list on every request, never from cached bookkeeping.
type SessionStatus struct {
	Initialized    bool        `json:"initialized"`
	Active         bool        `json:"active"`
	LastActivityAt *time.Time  `json:"lastActivityAt,omitempty"`
	OpenSurfaces   []string    `json:"openSurfaces"`
	DelayMs        int64       `json:"delayMs"`
	Profile        ProfileInfo `json:"profile"`
}

// ProfileInfo describes the on-disk browser profile that keeps the
// pairing state across restarts.
type ProfileInfo struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
	Backups   int    `json:"backups"`
}

// UpdateDelayRequest is the payload for PUT /v1/session/delay.
type UpdateDelayRequest struct {
	DelayMs int64 `json:"delayMs"`
}

// ResetProfileResponse reports where the old profile was archived.
type ResetProfileResponse struct {
	Backup string `json:"backup"`
}
