package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settingsFixture struct {
	optionRepo *testutil.MockOptionRepository
	classRepo  *testutil.MockShippingClassRepository
	zoneRepo   *testutil.MockShippingZoneRepository
	publisher  *testutil.RecordingPublisher
	svc        *SettingsService
}

func newSettingsFixture() *settingsFixture {
	f := &settingsFixture{
		optionRepo: testutil.NewMockOptionRepository(),
		classRepo:  testutil.NewMockShippingClassRepository(),
		zoneRepo:   testutil.NewMockShippingZoneRepository(),
		publisher:  &testutil.RecordingPublisher{},
	}
	f.classRepo.AddClass("fragile", "Fragile")
	f.classRepo.AddClass("bulky", "Bulky")
	f.zoneRepo.AddZone("France",
		domain.ShippingMethodInstance{MethodID: "flat_rate", InstanceID: 1, Title: "Flat rate", Enabled: true},
		domain.ShippingMethodInstance{MethodID: "free_shipping", InstanceID: 2, Title: "Free shipping", Enabled: true},
	)
	f.zoneRepo.AddZone("Europe",
		domain.ShippingMethodInstance{MethodID: "flat_rate", InstanceID: 5, Title: "Flat rate", Enabled: false},
	)
	f.svc = NewSettingsService(f.optionRepo, f.classRepo, f.zoneRepo, f.publisher, "https://shop.example.com/wp-admin/")
	return f
}

func TestSettingsService_Sections_AddsSection(t *testing.T) {
	f := newSettingsFixture()
	existing := map[string]string{"": "Shipping zones", "classes": "Classes"}

	sections := f.svc.Sections(existing)

	assert.Equal(t, "Shipping Methods by Classes", sections["shipping-methods-by-classes"])
	assert.Equal(t, "Classes", sections["classes"])
	assert.Len(t, sections, 3)
	assert.Len(t, existing, 2, "input map must not be modified")
}

func TestSettingsService_MethodInstances(t *testing.T) {
	f := newSettingsFixture()

	instances, err := f.svc.MethodInstances()
	require.NoError(t, err)

	assert.Equal(t, []MethodInstanceOption{
		{Key: "flat_rate:1", Title: "Flat rate (France)"},
		{Key: "free_shipping:2", Title: "Free shipping (France)"},
		{Key: "flat_rate:5", Title: "Flat rate (Europe)"},
	}, instances)
}

func TestSettingsService_Fields_OtherSectionUntouched(t *testing.T) {
	f := newSettingsFixture()
	existing := []SettingField{{Type: FieldTypeTitle, ID: "shipping-options"}}

	fields, err := f.svc.Fields("options", existing)
	require.NoError(t, err)

	assert.Equal(t, existing, fields)
}

func TestSettingsService_Fields_BuildsSchema(t *testing.T) {
	f := newSettingsFixture()
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes", "free_shipping:2": "no"})

	fields, err := f.svc.Fields("shipping-methods-by-classes", nil)
	require.NoError(t, err)

	// header + 2 classes * (title + 3 checkboxes + sectionend) + footer
	require.Len(t, fields, 12)

	assert.Equal(t, SettingField{Title: "Shipping rates", Desc: "Disable these shipping methods", Type: "title", ID: "shipping-methods-by-classes"}, fields[0])
	assert.Equal(t, SettingField{Title: "Fragile", Type: "title", ID: "shipping-methods-by-classes-fragile"}, fields[1])
	assert.Equal(t, SettingField{
		Title: "Flat rate (France)",
		Type:  "checkbox",
		ID:    "disable_shipping_methods_by_classes_fragile[flat_rate:1]",
		Value: "yes",
	}, fields[2])
	assert.Equal(t, "no", fields[3].Value)
	assert.Equal(t, "disable_shipping_methods_by_classes_fragile[flat_rate:5]", fields[4].ID)
	assert.Equal(t, SettingField{Type: "sectionend", ID: "shipping-methods-by-classes-fragile"}, fields[5])
	assert.Equal(t, "Bulky", fields[6].Title)
	assert.Equal(t, "no", fields[7].Value)
	assert.Equal(t, SettingField{Type: "sectionend", ID: "shipping-methods-by-classes"}, fields[11])
}

func TestSettingsService_Fields_NoClasses(t *testing.T) {
	f := newSettingsFixture()
	f.classRepo.Classes = nil

	fields, err := f.svc.Fields("shipping-methods-by-classes", nil)
	require.NoError(t, err)

	assert.Len(t, fields, 2)
	assert.Equal(t, 0, f.optionRepo.GetManyCalls, "no option lookup is needed without classes")
}

func TestSettingsService_Fields_StorageError(t *testing.T) {
	f := newSettingsFixture()
	f.classRepo.GetAllFn = func() ([]*domain.ShippingClass, error) {
		return nil, errors.New("db down")
	}

	_, err := f.svc.Fields("shipping-methods-by-classes", nil)
	assert.EqualError(t, err, "db down")
}

func TestSettingsService_GetClassExclusions(t *testing.T) {
	f := newSettingsFixture()
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes", "free_shipping:2": ""})

	flags, err := f.svc.GetClassExclusions("fragile")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassExclusions{"flat_rate:1": true}, flags)

	flags, err = f.svc.GetClassExclusions("bulky")
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestSettingsService_GetClassExclusions_UnknownClass(t *testing.T) {
	f := newSettingsFixture()

	_, err := f.svc.GetClassExclusions("oversized")
	assert.ErrorIs(t, err, domain.ErrShippingClassNotFound)

	_, err = f.svc.GetClassExclusions("   ")
	assert.ErrorIs(t, err, domain.ErrSlugRequired)
}

func TestSettingsService_SaveClassExclusions(t *testing.T) {
	f := newSettingsFixture()

	saved, err := f.svc.SaveClassExclusions(" fragile ", domain.ClassExclusions{"flat_rate:1": true, "free_shipping:2": false})
	require.NoError(t, err)

	assert.Equal(t, domain.ClassExclusions{"flat_rate:1": true}, saved)
	assert.Equal(t, map[string]any{"flat_rate:1": "yes", "free_shipping:2": "no"},
		f.optionRepo.Options["disable_shipping_methods_by_classes_fragile"].Value)
	assert.Equal(t, []string{"settings.updated"}, f.publisher.Types())
}

func TestSettingsService_SaveClassExclusions_InvalidInstance(t *testing.T) {
	f := newSettingsFixture()

	_, err := f.svc.SaveClassExclusions("fragile", domain.ClassExclusions{"flat_rate": true})

	assert.ErrorIs(t, err, domain.ErrInvalidInstanceID)
	assert.Empty(t, f.optionRepo.Options)
	assert.Empty(t, f.publisher.Events)
}

func TestSettingsService_SaveClassExclusions_SlugTooLong(t *testing.T) {
	f := newSettingsFixture()

	_, err := f.svc.SaveClassExclusions(strings.Repeat("a", 201), domain.ClassExclusions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_ClearClassExclusions(t *testing.T) {
	f := newSettingsFixture()
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_retired", map[string]any{"flat_rate:1": "yes"})

	require.NoError(t, f.svc.ClearClassExclusions("retired"))

	assert.NotContains(t, f.optionRepo.Options, "disable_shipping_methods_by_classes_retired")
	assert.Equal(t, []string{"settings.cleared"}, f.publisher.Types())
}

func TestSettingsService_LoadConfig(t *testing.T) {
	f := newSettingsFixture()
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes", "free_shipping:2": "no"})
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_bulky", map[string]any{"free_shipping:2": "no"})

	cfg, err := f.svc.LoadConfig([]string{"fragile", "", "bulky", "fragile", "standard"})
	require.NoError(t, err)

	assert.Equal(t, domain.ExclusionConfig{
		"fragile": {"flat_rate:1": true},
		"bulky":   {},
	}, cfg)
	assert.Equal(t, 1, f.optionRepo.GetManyCalls)
}

func TestSettingsService_LoadConfig_NoClasses(t *testing.T) {
	f := newSettingsFixture()

	cfg, err := f.svc.LoadConfig([]string{"", ""})
	require.NoError(t, err)

	assert.Empty(t, cfg)
	assert.Equal(t, 0, f.optionRepo.GetManyCalls)
}

func TestSettingsService_ActionLinks(t *testing.T) {
	f := newSettingsFixture()

	links := f.svc.ActionLinks([]ActionLink{{Label: "Deactivate", URL: "/deactivate"}})

	require.Len(t, links, 2)
	assert.Equal(t, "Settings", links[0].Label)
	assert.Equal(t, "https://shop.example.com/wp-admin/admin.php?page=wc-settings&section=shipping-methods-by-classes&tab=shipping", links[0].URL)
	assert.Equal(t, "Deactivate", links[1].Label)
}
