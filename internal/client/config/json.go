package config

import (
	"encoding/json"
	"os"

	"github.com/stayonbrand/gatekeeper/internal/flagx"
	"github.com/stayonbrand/gatekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Parsed values
// are copied into the runtime Config.
type JsonConfig struct {
	AuthBaseURL     string         `json:"auth_base_url"`
	ProfileBaseURL  string         `json:"profile_base_url"`
	ProfileAPIToken string         `json:"profile_api_token"`
	SessionDBPath   string         `json:"session_db_path"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with values loaded from the JSON file named via the
// -c/-config flags. Absent flags mean no JSON is loaded. Only fields that
// are present (non-empty) in the file override the current value. Read or
// unmarshal errors panic; the caller decides whether to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.AuthBaseURL != "" {
		cfg.AuthBaseURL = jc.AuthBaseURL
	}
	if jc.ProfileBaseURL != "" {
		cfg.ProfileBaseURL = jc.ProfileBaseURL
	}
	if jc.ProfileAPIToken != "" {
		cfg.ProfileAPIToken = jc.ProfileAPIToken
	}
	if jc.SessionDBPath != "" {
		cfg.SessionDBPath = jc.SessionDBPath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout
	}
}
