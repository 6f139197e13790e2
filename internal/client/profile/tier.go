package profile

import (
	"context"
	"encoding/json"
	"os"

	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// Environment variables holding the uuid→tier mapping as a JSON object.
// Which one applies depends on SOB_ENV ("prod" selects the prod mapping,
// anything else the test one).
const (
	EnvName        = "SOB_ENV"
	EnvProdTierMap = "SOB_PROD_TIER_MAPPING"
	EnvTestTierMap = "SOB_TEST_TIER_MAPPING"
)

// TierMap resolves a user uuid to a subscription tier name.
type TierMap struct {
	mapping map[string]string
}

// getenv is a test seam for os.Getenv.
var (
	osGetenv = os.Getenv
	getenv   = osGetenv
)

// LoadTierMap reads the tier mapping from the environment. A missing or
// unparsable mapping degrades to {"default": "free"} with a warning; tier
// lookup never fails.
func LoadTierMap(logger logging.Logger) *TierMap {
	key := EnvTestTierMap
	if getenv(EnvName) == "prod" {
		key = EnvProdTierMap
	}

	mapping := map[string]string{}
	if raw := getenv(key); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			logger.Warn(context.Background(), "failed to load tier mapping", "error", err)
			mapping = map[string]string{"default": "free"}
		}
	}
	return &TierMap{mapping: mapping}
}

// Tier returns the tier for the given user uuid, falling back to the
// mapping's "default" entry and finally to "free".
func (m *TierMap) Tier(userUUID string) string {
	if t, ok := m.mapping[userUUID]; ok {
		return t
	}
	if t, ok := m.mapping["default"]; ok {
		return t
	}
	return "free"
}
