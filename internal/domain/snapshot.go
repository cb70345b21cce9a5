package domain

import "time"

// SettingsSnapshot is an exported copy of every class exclusion option
type SettingsSnapshot struct {
	Key        string                    `json:"key"`
	ExportedAt time.Time                 `json:"exportedAt"`
	Options    map[string]map[string]any `json:"options"`
}
