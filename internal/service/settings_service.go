package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/exclusion"
	"github.com/avecnous/shipclass/shipclass-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Setting field types understood by the host settings page
const (
	FieldTypeTitle      = "title"
	FieldTypeCheckbox   = "checkbox"
	FieldTypeSectionEnd = "sectionend"
)

// SettingField describes one entry of the host settings page schema
type SettingField struct {
	Title   string `json:"title,omitempty"`
	Desc    string `json:"desc,omitempty"`
	Type    string `json:"type"`
	ID      string `json:"id"`
	Default string `json:"default,omitempty"`
	Value   string `json:"value,omitempty"`
}

// MethodInstanceOption is a method instance as listed on the settings page
type MethodInstanceOption struct {
	Key   string `json:"key"`   // "<method>:<instance>"
	Title string `json:"title"` // "<method title> (<zone name>)"
}

// ActionLink is a link shown next to the extension in the host admin
type ActionLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SettingsService handles the exclusion settings page and its persisted options
type SettingsService struct {
	optionRepo   domain.OptionRepository
	classRepo    domain.ShippingClassRepository
	zoneRepo     domain.ShippingZoneRepository
	publisher    websocket.EventPublisher
	adminBaseURL string
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(optionRepo domain.OptionRepository, classRepo domain.ShippingClassRepository, zoneRepo domain.ShippingZoneRepository, publisher websocket.EventPublisher, adminBaseURL string) *SettingsService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &SettingsService{
		optionRepo:   optionRepo,
		classRepo:    classRepo,
		zoneRepo:     zoneRepo,
		publisher:    publisher,
		adminBaseURL: strings.TrimRight(adminBaseURL, "/"),
	}
}

// Sections returns the shipping settings sections with ours added
func (s *SettingsService) Sections(existing map[string]string) map[string]string {
	sections := make(map[string]string, len(existing)+1)
	for id, title := range existing {
		sections[id] = title
	}
	sections[domain.SettingsSectionID] = domain.SettingsSectionTitle
	return sections
}

// GetShippingClasses retrieves all shipping classes
func (s *SettingsService) GetShippingClasses() ([]*domain.ShippingClass, error) {
	return s.classRepo.GetAll()
}

// GetShippingZones retrieves all shipping zones with their method instances
func (s *SettingsService) GetShippingZones() ([]*domain.ShippingZone, error) {
	return s.zoneRepo.GetAll()
}

// MethodInstances lists every method instance of every zone in display order
func (s *SettingsService) MethodInstances() ([]MethodInstanceOption, error) {
	zones, err := s.zoneRepo.GetAll()
	if err != nil {
		return nil, err
	}

	instances := make([]MethodInstanceOption, 0)
	seen := make(map[string]bool)
	for _, zone := range zones {
		for _, method := range zone.Methods {
			key := method.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			instances = append(instances, MethodInstanceOption{
				Key:   key,
				Title: fmt.Sprintf("%s (%s)", method.Title, zone.Name),
			})
		}
	}
	return instances, nil
}

// Fields builds the settings page schema for section. Other sections get
// existing back untouched.
func (s *SettingsService) Fields(section string, existing []SettingField) ([]SettingField, error) {
	if section != domain.SettingsSectionID {
		return existing, nil
	}

	classes, err := s.classRepo.GetAll()
	if err != nil {
		return nil, err
	}
	instances, err := s.MethodInstances()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(classes))
	for i, class := range classes {
		keys[i] = domain.OptionKey(class.Slug)
	}
	options := map[string]*domain.Option{}
	if len(keys) > 0 {
		options, err = s.optionRepo.GetMany(keys)
		if err != nil {
			return nil, err
		}
	}

	fields := []SettingField{{
		Title: "Shipping rates",
		Desc:  "Disable these shipping methods",
		Type:  FieldTypeTitle,
		ID:    domain.SettingsSectionID,
	}}

	for _, class := range classes {
		classSectionID := domain.SettingsSectionID + "-" + class.Slug
		flags := domain.ClassExclusions{}
		if option, ok := options[domain.OptionKey(class.Slug)]; ok {
			flags = exclusion.DecodeFlags(option.Value)
		}

		fields = append(fields, SettingField{
			Title: class.Name,
			Type:  FieldTypeTitle,
			ID:    classSectionID,
		})
		for _, instance := range instances {
			value := domain.FlagNo
			if flags[instance.Key] {
				value = domain.FlagYes
			}
			fields = append(fields, SettingField{
				Title:   instance.Title,
				Type:    FieldTypeCheckbox,
				ID:      domain.SettingFieldID(class.Slug, instance.Key),
				Default: "",
				Value:   value,
			})
		}
		fields = append(fields, SettingField{
			Type: FieldTypeSectionEnd,
			ID:   classSectionID,
		})
	}

	fields = append(fields, SettingField{
		Type: FieldTypeSectionEnd,
		ID:   domain.SettingsSectionID,
	})

	return fields, nil
}

// GetClassExclusions returns the enabled exclusions of a shipping class
func (s *SettingsService) GetClassExclusions(slug string) (domain.ClassExclusions, error) {
	slug, err := s.requireClass(slug)
	if err != nil {
		return nil, err
	}

	option, err := s.optionRepo.Get(domain.OptionKey(slug))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ClassExclusions{}, nil
		}
		return nil, err
	}
	return exclusion.DecodeFlags(option.Value), nil
}

// SaveClassExclusions replaces the exclusions of a shipping class
func (s *SettingsService) SaveClassExclusions(slug string, flags domain.ClassExclusions) (domain.ClassExclusions, error) {
	slug, err := s.requireClass(slug)
	if err != nil {
		return nil, err
	}

	for instanceKey := range flags {
		if _, _, err := domain.ParseInstanceKey(instanceKey); err != nil {
			return nil, err
		}
	}

	option, err := s.optionRepo.Set(domain.OptionKey(slug), exclusion.EncodeFlags(flags))
	if err != nil {
		return nil, err
	}
	saved := exclusion.DecodeFlags(option.Value)

	log.Info().Str("class_slug", slug).Int("excluded_count", len(saved)).Msg("Shipping class exclusions saved")
	s.publisher.Publish(websocket.SettingsUpdated(map[string]interface{}{
		"classSlug":  slug,
		"exclusions": saved,
	}))

	return saved, nil
}

// ClearClassExclusions removes every exclusion of a shipping class.
// The class does not need to exist so that options of deleted classes can be cleaned up.
func (s *SettingsService) ClearClassExclusions(slug string) error {
	slug, err := validateSlug(slug)
	if err != nil {
		return err
	}

	if err := s.optionRepo.Delete(domain.OptionKey(slug)); err != nil {
		return err
	}

	log.Info().Str("class_slug", slug).Msg("Shipping class exclusions cleared")
	s.publisher.Publish(websocket.SettingsCleared(map[string]interface{}{
		"classSlug": slug,
	}))
	return nil
}

// LoadConfig reads the exclusion config of the given shipping classes.
// Classes without a stored option are absent from the result.
func (s *SettingsService) LoadConfig(classSlugs []string) (domain.ExclusionConfig, error) {
	keys := make([]string, 0, len(classSlugs))
	seen := make(map[string]bool, len(classSlugs))
	for _, slug := range classSlugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		keys = append(keys, domain.OptionKey(slug))
	}

	cfg := make(domain.ExclusionConfig)
	if len(keys) == 0 {
		return cfg, nil
	}

	options, err := s.optionRepo.GetMany(keys)
	if err != nil {
		return nil, err
	}
	for key, option := range options {
		if slug, ok := domain.ClassSlugFromOptionKey(key); ok {
			cfg[slug] = exclusion.DecodeFlags(option.Value)
		}
	}
	return cfg, nil
}

// SettingsURL returns the admin URL of the settings section
func (s *SettingsService) SettingsURL() string {
	query := url.Values{}
	query.Set("page", "wc-settings")
	query.Set("tab", "shipping")
	query.Set("section", domain.SettingsSectionID)
	return s.adminBaseURL + "/admin.php?" + query.Encode()
}

// ActionLinks returns links with the settings shortcut placed first
func (s *SettingsService) ActionLinks(existing []ActionLink) []ActionLink {
	links := make([]ActionLink, 0, len(existing)+1)
	links = append(links, ActionLink{Label: "Settings", URL: s.SettingsURL()})
	return append(links, existing...)
}

func (s *SettingsService) requireClass(slug string) (string, error) {
	slug, err := validateSlug(slug)
	if err != nil {
		return "", err
	}
	if _, err := s.classRepo.GetBySlug(slug); err != nil {
		return "", err
	}
	return slug, nil
}

func validateSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", domain.ErrSlugRequired
	}
	if len(slug) > domain.MaxClassSlugLength {
		return "", domain.ErrInvalidInput
	}
	return slug, nil
}
