package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SettingsSectionID identifies the shipping settings subsection
	SettingsSectionID = "shipping-methods-by-classes"

	// SettingsSectionTitle is the label shown for the subsection
	SettingsSectionTitle = "Shipping Methods by Classes"

	// OptionKeyPrefix prefixes the option storing one class's exclusions
	OptionKeyPrefix = "disable_shipping_methods_by_classes_"

	// FlagYes and FlagNo are the persisted checkbox values
	FlagYes = "yes"
	FlagNo  = "no"
)

// Option is a persisted key/value setting
type Option struct {
	Key       string         `json:"key"`
	Value     map[string]any `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// OptionRepository defines operations on the key/value settings store
type OptionRepository interface {
	// Get returns ErrNotFound when the option does not exist
	Get(key string) (*Option, error)

	// GetMany returns the options that exist; missing keys are omitted
	GetMany(keys []string) (map[string]*Option, error)

	// Set creates or replaces an option
	Set(key string, value map[string]any) (*Option, error)

	Delete(key string) error

	ListByPrefix(prefix string) ([]*Option, error)
}

// OptionKey returns the option key holding the exclusions of a shipping class
func OptionKey(classSlug string) string {
	return OptionKeyPrefix + classSlug
}

// ClassSlugFromOptionKey is the inverse of OptionKey
func ClassSlugFromOptionKey(key string) (string, bool) {
	if !strings.HasPrefix(key, OptionKeyPrefix) {
		return "", false
	}
	slug := strings.TrimPrefix(key, OptionKeyPrefix)
	if slug == "" {
		return "", false
	}
	return slug, true
}

// SettingFieldID returns the settings field ID of one class/instance checkbox
func SettingFieldID(classSlug, instanceKey string) string {
	return OptionKey(classSlug) + "[" + instanceKey + "]"
}

// InstanceKey builds the "<method>:<instance>" identifier
func InstanceKey(methodID string, instanceID int) string {
	return fmt.Sprintf("%s:%d", methodID, instanceID)
}

// ParseInstanceKey splits a "<method>:<instance>" identifier
func ParseInstanceKey(key string) (methodID string, instanceID int, err error) {
	idx := strings.LastIndex(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidInstanceID, key)
	}
	instanceID, err = strconv.Atoi(key[idx+1:])
	if err != nil || instanceID < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidInstanceID, key)
	}
	return key[:idx], instanceID, nil
}
