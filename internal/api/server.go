package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wablaster/wablaster/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes.
func (h *Handler) SetupRoutes(rateLimiter *ratelimit.Limiter, requestsPerHour int) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/v1").Subrouter()

	// Session control
	api.HandleFunc("/session", h.InitializeSession).Methods("POST")
	api.HandleFunc("/session", h.GetStatus).Methods("GET")
	api.HandleFunc("/session", h.CloseSession).Methods("DELETE")
	api.HandleFunc("/session/delay", h.UpdateDelay).Methods("PUT")

	// Profile
	api.HandleFunc("/profile/reset", h.ResetProfile).Methods("POST")

	// Blast (rate limited — each request drives the browser for a while)
	blast := api.PathPrefix("/blast").Subrouter()
	blast.Use(RateLimitMiddleware(rateLimiter, requestsPerHour))
	blast.HandleFunc("", h.SendBlast).Methods("POST")

	// Progress stream (not rate limited — clients just listen)
	api.HandleFunc("/blast/ws", h.BlastProgress).Methods("GET")

	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
