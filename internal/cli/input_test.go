package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "exclusions.yaml", `
fragile:
  flat_rate:1: yes
  local_pickup:3: no
disable_shipping_methods_by_classes_bulky:
  free_shipping:2: "YES"
empty:
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, domain.ExclusionConfig{
		"fragile": {"flat_rate:1": true},
		"bulky":   {"free_shipping:2": true},
		"empty":   {},
	}, cfg)
}

func TestLoadConfig_JSONCWithComments(t *testing.T) {
	path := writeFile(t, "exclusions.jsonc", `{
		// exported from staging
		"fragile": {"flat_rate:1": true, "local_pickup:3": "no",},
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, domain.ExclusionConfig{"fragile": {"flat_rate:1": true}}, cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "broken.json", `{"fragile": [1, 2]}`)
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestRawConfig_Validate(t *testing.T) {
	raw := RawConfig{
		"fragile": {"flat_rate:1": "yes", "local_pickup:3": false},
		"bulky":   {"flat_rate": "yes", "free_shipping:2": 1},
		" ":       {},
	}

	problems := raw.Validate()

	require.Len(t, problems, 3)
	assert.True(t, errors.Is(problems[0], domain.ErrSlugRequired))
	assert.True(t, errors.Is(problems[1], domain.ErrInvalidInstanceID))
	assert.True(t, errors.Is(problems[2], domain.ErrInvalidInput))
}

func TestRawConfig_Validate_Clean(t *testing.T) {
	raw := RawConfig{"fragile": {"flat_rate:1": "yes", "local_pickup:3": "no"}}

	assert.Empty(t, raw.Validate())
}

func TestReadCart_AcceptsBothShapes(t *testing.T) {
	bare := writeFile(t, "cart.json", `[{"productName": "Vase", "shippingClass": "fragile"}]`)
	wrapped := writeFile(t, "cart.jsonc", `{
		// two items
		"items": [
			{"productName": "Vase", "shippingClass": "fragile"},
			{"productName": "Book"},
		],
	}`)

	items, err := ReadCart(bare)
	require.NoError(t, err)
	assert.Equal(t, []domain.LineItem{{ProductName: "Vase", ShippingClass: "fragile"}}, items)

	items, err = ReadCart(wrapped)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "", items[1].ShippingClass)
}

func TestReadRates_RequiresID(t *testing.T) {
	path := writeFile(t, "rates.json", `[{"id": "flat_rate:1", "label": "Flat rate", "cost": "4.90"}, {"label": "No id"}]`)

	_, err := ReadRates(path)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
