package config

import (
	"os"
	"time"
)

// Server captures process level configuration for the policy engine.
type Server struct {
	Addr              string
	DatabaseURL       string
	JWTSigningKey     string
	AdminKey          string
	ElevationTTL      time.Duration
	PurgeDelay        time.Duration
	KillSwitchRefresh time.Duration
	KillSwitchFile    string
	SweepInterval     time.Duration
	SecondFactorCode  string
}

// Policy defaults. Overridable via environment so operators can tune retention
// without a deploy.
var (
	ElevationTTL      = 1 * time.Hour
	PurgeDelay        = 7 * 24 * time.Hour
	KillSwitchRefresh = 5 * time.Second
	SweepInterval     = 1 * time.Hour
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SENTRA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	secondFactorCode := os.Getenv("SECOND_FACTOR_CODE")
	if secondFactorCode == "" {
		// Dev stand-in for the external second-factor flow
		secondFactorCode = "000000"
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSigningKey:     jwtSigningKey,
		AdminKey:          os.Getenv("SENTRA_ADMIN_KEY"),
		ElevationTTL:      durationEnv("ELEVATION_TTL", ElevationTTL),
		PurgeDelay:        durationEnv("PURGE_DELAY", PurgeDelay),
		KillSwitchRefresh: durationEnv("KILL_SWITCH_REFRESH", KillSwitchRefresh),
		KillSwitchFile:    os.Getenv("KILL_SWITCH_FILE"),
		SweepInterval:     durationEnv("SWEEP_INTERVAL", SweepInterval),
		SecondFactorCode:  secondFactorCode,
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
