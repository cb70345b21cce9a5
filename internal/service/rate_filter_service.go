package service

import (
	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/exclusion"
	"github.com/rs/zerolog/log"
)

// RateFilterService removes the rates a cart's shipping classes exclude
type RateFilterService struct {
	settingsService *SettingsService
}

// NewRateFilterService creates a new RateFilterService
func NewRateFilterService(settingsService *SettingsService) *RateFilterService {
	return &RateFilterService{settingsService: settingsService}
}

// FilterRates loads the exclusions of the cart's shipping classes and applies them
// to rates. Only failures to read the settings store are returned as errors.
func (s *RateFilterService) FilterRates(items []domain.LineItem, rates []domain.Rate) (*domain.ExclusionResult, error) {
	slugs := make([]string, 0, len(items))
	for _, item := range items {
		slugs = append(slugs, item.ShippingClass)
	}

	cfg, err := s.settingsService.LoadConfig(slugs)
	if err != nil {
		return nil, err
	}

	result := exclusion.Compute(items, cfg, rates)

	if excluded := len(rates) - len(result.RemainingRates); excluded > 0 {
		log.Debug().
			Int("item_count", len(items)).
			Int("rate_count", len(rates)).
			Int("excluded_count", excluded).
			Strs("excluded_method_ids", exclusion.ExcludedMethodIDs(items, cfg)).
			Msg("Shipping rates excluded by class")
	}

	return &result, nil
}
