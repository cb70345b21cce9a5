package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeUpdated  EventType = "updated"
	EventTypeCleared  EventType = "cleared"
	EventTypeExported EventType = "exported"
	EventTypeImported EventType = "imported"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSettings EntityType = "settings"
	EntityTypeBackup   EntityType = "backup"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "settings.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "settings"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SettingsUpdated creates a settings.updated event
func SettingsUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSettings, payload)
}

// SettingsCleared creates a settings.cleared event
func SettingsCleared(payload interface{}) Event {
	return NewEvent(EventTypeCleared, EntityTypeSettings, payload)
}

// SettingsImported creates a settings.imported event
func SettingsImported(payload interface{}) Event {
	return NewEvent(EventTypeImported, EntityTypeSettings, payload)
}

// BackupExported creates a backup.exported event
func BackupExported(payload interface{}) Event {
	return NewEvent(EventTypeExported, EntityTypeBackup, payload)
}
