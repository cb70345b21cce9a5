package handler

import (
	"fmt"
	"net/http"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RateFilterHandler handles rate filtering requests from the checkout
type RateFilterHandler struct {
	rateFilterService *service.RateFilterService
}

// NewRateFilterHandler creates a new RateFilterHandler
func NewRateFilterHandler(rateFilterService *service.RateFilterService) *RateFilterHandler {
	return &RateFilterHandler{rateFilterService: rateFilterService}
}

// FilterRatesRequest represents the cart and its candidate rates
type FilterRatesRequest struct {
	Items []domain.LineItem `json:"items"`
	Rates []domain.Rate     `json:"rates"`
}

// FilterRates godoc
// @Summary Remove the shipping rates excluded by the cart's shipping classes
// @Description Returns the remaining rates in input order and one notice per removed rate
// @Tags rates
// @Accept json
// @Produce json
// @Param request body FilterRatesRequest true "Cart items and candidate rates"
// @Success 200 {object} domain.ExclusionResult
// @Failure 400 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /shipping/rates/filter [post]
func (h *RateFilterHandler) FilterRates(c echo.Context) error {
	var req FilterRatesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var validationErrors []ValidationError
	for i, rate := range req.Rates {
		if rate.ID == "" {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fmt.Sprintf("rates[%d].id", i),
				Message: "Rate ID is required",
			})
		}
	}
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Validation failed", validationErrors)
	}

	result, err := h.rateFilterService.FilterRates(req.Items, req.Rates)
	if err != nil {
		log.Error().Err(err).Int("item_count", len(req.Items)).Msg("Failed to filter shipping rates")
		return NewInternalError(c, "Failed to filter shipping rates")
	}

	if result.RemainingRates == nil {
		result.RemainingRates = []domain.Rate{}
	}
	return c.JSON(http.StatusOK, result)
}
