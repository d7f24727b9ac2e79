package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, read once from the environment at
// startup (a .env file is loaded by main before this runs).
type Config struct {
	Port string

	// TargetOrigin is the messaging site the engine drives.
	TargetOrigin string

	// ProfileDir is the persistent browser profile. Pairing state lives
	// here so a restart does not require scanning the code again.
	ProfileDir string

	// Headless is an escape hatch for CI. Pairing needs a visible
	// window, so the default is false.
	Headless bool

	NavTimeout     time.Duration
	SendTimeout    time.Duration
	ConfirmTimeout time.Duration
	SettleDelay    time.Duration

	MinDelay     time.Duration
	DefaultDelay time.Duration

	RatePerHour int
	RateBurst   int
}

// Load reads configuration from the environment, falling back to
// defaults suitable for a local deployment.
func Load() Config {
	return Config{
		Port:           envStr("PORT", "8080"),
		TargetOrigin:   envStr("TARGET_ORIGIN", "https://web.whatsapp.com"),
		ProfileDir:     envStr("PROFILE_DIR", "./storage/profile"),
		Headless:       envBool("HEADLESS", false),
		NavTimeout:     envMs("NAV_TIMEOUT_MS", 30000),
		SendTimeout:    envMs("SEND_TIMEOUT_MS", 15000),
		ConfirmTimeout: envMs("CONFIRM_TIMEOUT_MS", 10000),
		SettleDelay:    envMs("SETTLE_DELAY_MS", 1500),
		MinDelay:       envMs("MIN_DELAY_MS", 1000),
		DefaultDelay:   envMs("DEFAULT_DELAY_MS", 3000),
		RatePerHour:    envInt("RATE_PER_HOUR", 100),
		RateBurst:      envInt("RATE_BURST", 10),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envMs(key string, fallbackMs int) time.Duration {
	return time.Duration(envInt(key, fallbackMs)) * time.Millisecond
}
