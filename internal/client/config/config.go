// Package config loads runtime settings for the Gatekeeper CLI.
package config

import (
	"time"

	"github.com/stayonbrand/gatekeeper/internal/timex"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - AuthBaseURL: base URL of the auth proxy.
//   - ProfileBaseURL: base URL of the keycard profile API (including /api/v1).
//   - ProfileAPIToken: bearer token for the profile API.
//   - SessionDBPath: path of the local SQLite session database.
//   - RequestTimeout: per-request timeout for backend HTTP calls.
type Config struct {
	AuthBaseURL     string
	ProfileBaseURL  string
	ProfileAPIToken string
	SessionDBPath   string
	RequestTimeout  timex.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AuthBaseURL = "http://localhost:3001"
	c.ProfileBaseURL = "http://localhost:3002/api/v1"
	c.ProfileAPIToken = "test-token"
	c.SessionDBPath = "session.db"
	c.RequestTimeout = timex.Duration{Duration: 15 * time.Second}
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
