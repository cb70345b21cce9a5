package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRates_RemovesExcludedRate(t *testing.T) {
	f := newHandlerFixture()
	f.optionRepo.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes"})
	h := NewRateFilterHandler(service.NewRateFilterService(f.settings))
	body := `{
		"items": [
			{"productName": "Vase", "shippingClass": "fragile"},
			{"productName": "Book", "shippingClass": ""}
		],
		"rates": [
			{"id": "flat_rate:1", "label": "Flat rate", "cost": "5.00"},
			{"id": "local_pickup:3", "label": "Pickup", "cost": "0"}
		]
	}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/shipping/rates/filter", body)

	require.NoError(t, h.FilterRates(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var result domain.ExclusionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.RemainingRates, 1)
	assert.Equal(t, "local_pickup:3", result.RemainingRates[0].ID)
	assert.Equal(t, []string{
		"The following products: Vase can't be delivered with the shipping method: Flat rate",
	}, result.Notices)
}

func TestFilterRates_NothingConfigured(t *testing.T) {
	f := newHandlerFixture()
	h := NewRateFilterHandler(service.NewRateFilterService(f.settings))
	body := `{"items": [{"productName": "Vase", "shippingClass": "fragile"}], "rates": [{"id": "flat_rate:1", "label": "Flat rate"}]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/shipping/rates/filter", body)

	require.NoError(t, h.FilterRates(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw["notices"]))
	var rates []domain.Rate
	require.NoError(t, json.Unmarshal(raw["rates"], &rates))
	assert.Len(t, rates, 1)
}

func TestFilterRates_EmptyRatesIsArray(t *testing.T) {
	f := newHandlerFixture()
	h := NewRateFilterHandler(service.NewRateFilterService(f.settings))
	c, rec := newJSONContext(http.MethodPost, "/api/v1/shipping/rates/filter", `{"items": [], "rates": []}`)

	require.NoError(t, h.FilterRates(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rates": [], "notices": []}`, rec.Body.String())
}

func TestFilterRates_MissingRateID(t *testing.T) {
	f := newHandlerFixture()
	h := NewRateFilterHandler(service.NewRateFilterService(f.settings))
	body := `{"items": [], "rates": [{"id": "flat_rate:1", "label": "Flat"}, {"label": "No id"}]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/shipping/rates/filter", body)

	require.NoError(t, h.FilterRates(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "rates[1].id", problem.Errors[0].Field)
}

func TestFilterRates_StorageError(t *testing.T) {
	f := newHandlerFixture()
	f.optionRepo.GetManyFn = func(keys []string) (map[string]*domain.Option, error) {
		return nil, errors.New("connection reset")
	}
	h := NewRateFilterHandler(service.NewRateFilterService(f.settings))
	body := `{"items": [{"productName": "Vase", "shippingClass": "fragile"}], "rates": [{"id": "flat_rate:1", "label": "Flat rate"}]}`
	c, rec := newJSONContext(http.MethodPost, "/api/v1/shipping/rates/filter", body)

	require.NoError(t, h.FilterRates(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
