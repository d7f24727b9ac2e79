package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wablaster/wablaster/internal/api"
	"github.com/wablaster/wablaster/internal/browser"
	"github.com/wablaster/wablaster/internal/config"
	"github.com/wablaster/wablaster/internal/profile"
	"github.com/wablaster/wablaster/internal/ratelimit"
	"github.com/wablaster/wablaster/internal/sender"
	"github.com/wablaster/wablaster/internal/session"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Starting WA Blaster...")

	cfg := config.Load()

	// Session state + delay
	store := session.NewStore(cfg.DefaultDelay, cfg.MinDelay)
	log.Printf("✓ Session store initialized (delay %v, minimum %v)", cfg.DefaultDelay, cfg.MinDelay)

	// Persistent profile (pairing survives restarts through it)
	profiles, err := profile.NewManager(cfg.ProfileDir)
	if err != nil {
		log.Fatalf("Failed to prepare profile directory: %v", err)
	}
	log.Printf("✓ Profile directory ready at %s", cfg.ProfileDir)

	// Browser lifecycle (lazy — first blast or an explicit initialize
	// starts it)
	launcher := browser.NewLauncher(store, browser.Options{
		ProfileDir: profiles.Dir(),
		Origin:     cfg.TargetOrigin,
		Headless:   cfg.Headless,
		NavTimeout: float64(cfg.NavTimeout.Milliseconds()),
	})
	reaper := browser.NewReaper(launcher, store, cfg.TargetOrigin)
	log.Printf("✓ Browser lifecycle ready (target %s)", cfg.TargetOrigin)

	// Send pipeline
	executor := sender.NewExecutor(
		func() (sender.Surface, error) {
			return launcher.OpenSurface()
		},
		sender.Config{
			Origin:         cfg.TargetOrigin,
			NavTimeout:     cfg.NavTimeout,
			SendTimeout:    cfg.SendTimeout,
			ConfirmTimeout: cfg.ConfirmTimeout,
			SettleDelay:    cfg.SettleDelay,
		},
	)
	coordinator := sender.NewCoordinator(store, launcher, reaper, executor, profiles)
	log.Println("✓ Send pipeline initialized")

	// Progress stream
	hub := api.NewHub()
	coordinator.SetNotifier(hub.Broadcast)
	log.Println("✓ Progress stream initialized")

	// Rate limiter
	rateLimiter := ratelimit.NewLimiter(cfg.RatePerHour, cfg.RateBurst)
	log.Printf("✓ Rate limiter initialized (%d req/hour, burst %d)", cfg.RatePerHour, cfg.RateBurst)

	// HTTP surface
	handler := api.NewHandler(coordinator, store, reaper, profiles, hub)
	router := handler.SetupRoutes(rateLimiter, cfg.RatePerHour)
	log.Println("✓ HTTP routes configured")

	// No WriteTimeout: a blast response is only written once the whole
	// batch has run, which can take minutes.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
		log.Printf("📍 API endpoints available at http://localhost:%s/v1", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("⏳ Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	launcher.Stop()
	log.Println("✅ Server stopped cleanly")
}
