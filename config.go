package biolink

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Addr     string // Listen address (PORT, default ":5000")
	SiteURL  string // Canonical URL for sitemap/robots (SITE_URL)
	MongoURI string // Required: MongoDB connection string (MONGODB_URI)
	MongoDB  string // Database name (MONGO_DB, default "baeci")

	AdminPassword string // Required: shared admin secret (ADMIN_PASSWORD)
	SessionSecret string // Required: session cookie signing key (SESSION_SECRET)
	CookieSecure  bool   // Set true behind HTTPS (COOKIE_SECURE)

	StaticDir       string        // SPA shell and assets (STATIC_DIR, default "public")
	ContentCacheTTL time.Duration // Route-resolver cache TTL (default 1min)
}

// LoadConfig reads configuration from the environment. Missing required
// variables are a startup error; the process must not begin serving.
func LoadConfig() (Config, error) {
	cfg := Config{
		Addr:            ":" + EnvOr("PORT", "5000"),
		SiteURL:         strings.TrimSuffix(EnvOr("SITE_URL", "http://localhost:5000"), "/"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDB:         EnvOr("MONGO_DB", "baeci"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		CookieSecure:    strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		StaticDir:       EnvOr("STATIC_DIR", "public"),
		ContentCacheTTL: time.Minute,
	}
	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("biolink: MONGODB_URI environment variable is required")
	}
	if cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("biolink: ADMIN_PASSWORD environment variable is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("biolink: SESSION_SECRET environment variable is required")
	}
	return cfg, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
