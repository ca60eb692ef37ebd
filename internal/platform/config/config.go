package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// Backend identifies the hosted project the shared report collection lives
// under. Field names mirror the deployment parameters handed to clients.
type Backend struct {
	APIKey        string `json:"apiKey"`
	AuthDomain    string `json:"authDomain"`
	ProjectID     string `json:"projectId"`
	StorageBucket string `json:"storageBucket"`
	SenderID      string `json:"senderId"`
	AppID         string `json:"appId"`
}

// Config is the full runtime configuration for the server.
type Config struct {
	Addr    string
	Backend Backend

	// PostgresURL selects the durable report store; empty means in-memory.
	PostgresURL string
	// RedisURL enables cross-instance snapshot fanout; empty disables it.
	RedisURL string

	// GeocoderBaseURL points at a Nominatim-compatible reverse geocoder.
	GeocoderBaseURL string
	GeocoderTimeout time.Duration

	// AuthTokenKey verifies pre-supplied custom sign-in tokens. Anonymous
	// sign-in works without it.
	AuthTokenKey string
}

// Hardcoded demo backend so the server boots with zero configuration, the
// same posture the hosted mockup deployment uses.
var defaultBackend = Backend{
	AuthDomain:    "clean-ghana-app.example.com",
	ProjectID:     "clean-ghana-app",
	StorageBucket: "clean-ghana-app.storage",
	AppID:         "clean-ghana-app",
}

// FromEnv builds a Config with three-tier resolution: an injected JSON blob
// (CLEANGHANA_CONFIG_JSON) wins, then individual environment variables, then
// hardcoded demo defaults. Partial configuration falls back per field rather
// than failing startup.
func FromEnv(log *slog.Logger) Config {
	cfg := Config{
		Addr:            envOr("CLEANGHANA_ADDR", ":8080"),
		Backend:         backendFromEnv(),
		PostgresURL:     os.Getenv("CLEANGHANA_POSTGRES_URL"),
		RedisURL:        os.Getenv("CLEANGHANA_REDIS_URL"),
		GeocoderBaseURL: envOr("CLEANGHANA_GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderTimeout: 5 * time.Second,
		AuthTokenKey:    os.Getenv("CLEANGHANA_AUTH_TOKEN_KEY"),
	}

	if raw := os.Getenv("CLEANGHANA_CONFIG_JSON"); raw != "" {
		var injected Backend
		if err := json.Unmarshal([]byte(raw), &injected); err != nil {
			// Invalid injected config is tolerated, not fatal.
			if log != nil {
				log.Warn("ignoring unparseable CLEANGHANA_CONFIG_JSON", "error", err)
			}
		} else {
			cfg.Backend = merged(injected, cfg.Backend)
		}
	}

	return cfg
}

func backendFromEnv() Backend {
	env := Backend{
		APIKey:        os.Getenv("CLEANGHANA_API_KEY"),
		AuthDomain:    os.Getenv("CLEANGHANA_AUTH_DOMAIN"),
		ProjectID:     os.Getenv("CLEANGHANA_PROJECT_ID"),
		StorageBucket: os.Getenv("CLEANGHANA_STORAGE_BUCKET"),
		SenderID:      os.Getenv("CLEANGHANA_SENDER_ID"),
		AppID:         os.Getenv("CLEANGHANA_APP_ID"),
	}
	return merged(env, defaultBackend)
}

// merged fills empty fields of primary from fallback.
func merged(primary, fallback Backend) Backend {
	out := primary
	if out.APIKey == "" {
		out.APIKey = fallback.APIKey
	}
	if out.AuthDomain == "" {
		out.AuthDomain = fallback.AuthDomain
	}
	if out.ProjectID == "" {
		out.ProjectID = fallback.ProjectID
	}
	if out.StorageBucket == "" {
		out.StorageBucket = fallback.StorageBucket
	}
	if out.SenderID == "" {
		out.SenderID = fallback.SenderID
	}
	if out.AppID == "" {
		out.AppID = fallback.AppID
	}
	return out
}

// CollectionKey is the logical path of the shared report collection. All
// store implementations scope their data by it so several app deployments
// can share one backend.
func (c Config) CollectionKey() string {
	return "artifacts/" + c.Backend.AppID + "/public/data/reports"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
