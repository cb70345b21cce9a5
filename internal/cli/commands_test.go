package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func filterFixtures(t *testing.T) (string, string, string) {
	t.Helper()
	config := writeFile(t, "exclusions.yaml", `
fragile:
  flat_rate:1: "yes"
bulky:
  flat_rate:1: "yes"
  free_shipping:2: "yes"
`)
	cart := writeFile(t, "cart.json", `{"items": [
		{"productName": "Vase", "shippingClass": "fragile"},
		{"productName": "Sofa", "shippingClass": "bulky"},
		{"productName": "Book", "shippingClass": ""}
	]}`)
	rates := writeFile(t, "rates.json", `[
		{"id": "flat_rate:1", "label": "Flat rate", "cost": "4.90"},
		{"id": "free_shipping:2", "label": "Free shipping", "cost": "0"},
		{"id": "local_pickup:3", "label": "Pickup", "cost": "0"}
	]`)
	return config, cart, rates
}

func TestFilterCommand_JSON(t *testing.T) {
	config, cart, rates := filterFixtures(t)

	out, err := runCommand(t, "filter", "--config", config, "--cart", cart, "--rates", rates, "--json")
	require.NoError(t, err)

	var result domain.ExclusionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.RemainingRates, 1)
	assert.Equal(t, "local_pickup:3", result.RemainingRates[0].ID)
	assert.Equal(t, []string{
		"The following products: Vase, Sofa can't be delivered with the shipping method: Flat rate",
		"The following products: Sofa can't be delivered with the shipping method: Free shipping",
	}, result.Notices)
}

func TestFilterCommand_Text(t *testing.T) {
	config, cart, rates := filterFixtures(t)

	out, err := runCommand(t, "filter", "-c", config, "--cart", cart, "--rates", rates)
	require.NoError(t, err)

	assert.Contains(t, out, "Remaining rates (1 of 3):")
	assert.Contains(t, out, "local_pickup:3")
	assert.Contains(t, out, "Notices:")
}

func TestFilterCommand_VerboseListsExcludedMethods(t *testing.T) {
	config, cart, rates := filterFixtures(t)

	out, err := runCommand(t, "filter", "-v", "-c", config, "--cart", cart, "--rates", rates)
	require.NoError(t, err)

	assert.Contains(t, out, "[verbose] Loaded 2 classes, 3 items, 3 rates")
	assert.Contains(t, out, "[verbose] Cart excludes method instances: flat_rate:1, free_shipping:2")
}

func TestFilterCommand_MissingFlags(t *testing.T) {
	_, err := runCommand(t, "filter", "--config", "x.yaml")

	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	good := writeFile(t, "good.yaml", "fragile:\n  flat_rate:1: \"yes\"\n")
	bad := writeFile(t, "bad.json", `{"fragile": {"flat_rate": "yes"}}`)

	out, err := runCommand(t, "validate", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK (1 shipping classes)")

	out, err = runCommand(t, "validate", "--config", bad, "--json")
	require.Error(t, err)
	var report struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	assert.Len(t, report.Problems, 1)
}

func TestKeyCommand(t *testing.T) {
	out, err := runCommand(t, "key", "fragile")
	require.NoError(t, err)
	assert.Equal(t, "disable_shipping_methods_by_classes_fragile\n", out)

	out, err = runCommand(t, "key", "fragile", "--instance", "flat_rate:1")
	require.NoError(t, err)
	assert.Equal(t, "disable_shipping_methods_by_classes_fragile[flat_rate:1]\n", out)

	_, err = runCommand(t, "key", "fragile", "--instance", "flat_rate")
	assert.Error(t, err)
}
