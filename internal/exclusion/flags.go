package exclusion

import (
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
)

// IsEnabled reports whether a persisted checkbox value means "excluded".
// Only "yes" (any case) and boolean true count; everything else is off.
func IsEnabled(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), domain.FlagYes)
	default:
		return false
	}
}

// DecodeFlags converts a persisted option value into class exclusions.
// Disabled or malformed entries are dropped.
func DecodeFlags(value map[string]any) domain.ClassExclusions {
	flags := make(domain.ClassExclusions)
	for instanceKey, v := range value {
		if IsEnabled(v) {
			flags[instanceKey] = true
		}
	}
	return flags
}

// EncodeFlags converts class exclusions into the persisted "yes"/"no" form
func EncodeFlags(flags domain.ClassExclusions) map[string]any {
	value := make(map[string]any, len(flags))
	for instanceKey, enabled := range flags {
		if enabled {
			value[instanceKey] = domain.FlagYes
		} else {
			value[instanceKey] = domain.FlagNo
		}
	}
	return value
}

// DecodeConfig builds an exclusion config from raw option values keyed by class slug
func DecodeConfig(raw map[string]map[string]any) domain.ExclusionConfig {
	cfg := make(domain.ExclusionConfig, len(raw))
	for slug, value := range raw {
		cfg[slug] = DecodeFlags(value)
	}
	return cfg
}
