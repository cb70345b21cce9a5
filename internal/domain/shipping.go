package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one distinct item type in a cart
type LineItem struct {
	ProductName   string `json:"productName"`
	ShippingClass string `json:"shippingClass"` // Shipping class slug, empty when the product has none
}

// Rate is a shipping option offered for a cart
type Rate struct {
	ID         string          `json:"id"` // Method instance ID, e.g. "flat_rate:1"
	Label      string          `json:"label"`
	MethodID   string          `json:"methodId,omitempty"`
	InstanceID int             `json:"instanceId,omitempty"`
	Cost       decimal.Decimal `json:"cost"`
}

// ClassExclusions maps a method instance ID to its enabled flag
type ClassExclusions map[string]bool

// ExclusionConfig maps a shipping class slug to the method instances it excludes.
// A missing class means no exclusions for that class.
type ExclusionConfig map[string]ClassExclusions

// ExclusionResult is the outcome of filtering candidate rates against a cart
type ExclusionResult struct {
	RemainingRates []Rate   `json:"rates"`
	Notices        []string `json:"notices"`
}

// ShippingClass groups products for shipping-rule purposes
type ShippingClass struct {
	ID          int32     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ShippingMethodInstance is one configured shipping method inside a zone
type ShippingMethodInstance struct {
	MethodID   string `json:"methodId"`
	InstanceID int    `json:"instanceId"`
	Title      string `json:"title"`
	Enabled    bool   `json:"enabled"`
	Order      int    `json:"order"`
}

// Key returns the "<method>:<instance>" identifier used by rates and exclusion options
func (m ShippingMethodInstance) Key() string {
	return InstanceKey(m.MethodID, m.InstanceID)
}

// ShippingZone is a geographic grouping with its own shipping methods
type ShippingZone struct {
	ID      int32                    `json:"id"`
	Name    string                   `json:"name"`
	Order   int                      `json:"order"`
	Methods []ShippingMethodInstance `json:"methods"`
}

// ShippingClassRepository defines read operations for shipping classes
type ShippingClassRepository interface {
	GetAll() ([]*ShippingClass, error)
	GetBySlug(slug string) (*ShippingClass, error)
}

// ShippingZoneRepository defines read operations for shipping zones and their methods
type ShippingZoneRepository interface {
	// GetAll returns zones in display order, each with its method instances in order
	GetAll() ([]*ShippingZone, error)
}
