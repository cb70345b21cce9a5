package handler

import (
	"errors"
	"net/http"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SettingsHandler handles the shipping settings HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// SectionsResponse lists the shipping settings sections by ID
type SectionsResponse struct {
	Sections map[string]string `json:"sections"`
}

// SettingsResponse is the settings page schema of a section
type SettingsResponse struct {
	Section string                 `json:"section"`
	Fields  []service.SettingField `json:"fields"`
}

// ClassExclusionsRequest represents the save exclusions request body
type ClassExclusionsRequest struct {
	Exclusions map[string]bool `json:"exclusions"`
}

// ClassExclusionsResponse represents the enabled exclusions of a shipping class
type ClassExclusionsResponse struct {
	ClassSlug  string          `json:"classSlug"`
	OptionKey  string          `json:"optionKey"`
	Exclusions map[string]bool `json:"exclusions"`
}

// ActionLinksResponse lists the extension's admin links
type ActionLinksResponse struct {
	Links []service.ActionLink `json:"links"`
}

// GetSections godoc
// @Summary List shipping settings sections
// @Tags settings
// @Produce json
// @Success 200 {object} SectionsResponse
// @Router /shipping/sections [get]
func (h *SettingsHandler) GetSections(c echo.Context) error {
	return c.JSON(http.StatusOK, SectionsResponse{
		Sections: h.settingsService.Sections(nil),
	})
}

// GetSettings godoc
// @Summary Get the settings page schema of a section
// @Tags settings
// @Produce json
// @Param section query string false "Section ID" default(shipping-methods-by-classes)
// @Success 200 {object} SettingsResponse
// @Failure 500 {object} ProblemDetails
// @Router /shipping/settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	section := c.QueryParam("section")
	if section == "" {
		section = domain.SettingsSectionID
	}

	fields, err := h.settingsService.Fields(section, nil)
	if err != nil {
		log.Error().Err(err).Str("section", section).Msg("Failed to build settings fields")
		return NewInternalError(c, "Failed to load settings")
	}
	if fields == nil {
		fields = []service.SettingField{}
	}

	return c.JSON(http.StatusOK, SettingsResponse{Section: section, Fields: fields})
}

// GetShippingClasses godoc
// @Summary List shipping classes
// @Tags settings
// @Produce json
// @Success 200 {array} domain.ShippingClass
// @Failure 500 {object} ProblemDetails
// @Router /shipping/classes [get]
func (h *SettingsHandler) GetShippingClasses(c echo.Context) error {
	classes, err := h.settingsService.GetShippingClasses()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get shipping classes")
		return NewInternalError(c, "Failed to get shipping classes")
	}
	if classes == nil {
		classes = []*domain.ShippingClass{}
	}
	return c.JSON(http.StatusOK, classes)
}

// GetShippingZones godoc
// @Summary List shipping zones with their method instances
// @Tags settings
// @Produce json
// @Success 200 {array} domain.ShippingZone
// @Failure 500 {object} ProblemDetails
// @Router /shipping/zones [get]
func (h *SettingsHandler) GetShippingZones(c echo.Context) error {
	zones, err := h.settingsService.GetShippingZones()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get shipping zones")
		return NewInternalError(c, "Failed to get shipping zones")
	}
	if zones == nil {
		zones = []*domain.ShippingZone{}
	}
	return c.JSON(http.StatusOK, zones)
}

// GetClassExclusions godoc
// @Summary Get the shipping methods disabled for a shipping class
// @Tags exclusions
// @Produce json
// @Param slug path string true "Shipping class slug"
// @Success 200 {object} ClassExclusionsResponse
// @Failure 404 {object} ProblemDetails
// @Router /shipping/exclusions/{slug} [get]
func (h *SettingsHandler) GetClassExclusions(c echo.Context) error {
	slug := c.Param("slug")

	flags, err := h.settingsService.GetClassExclusions(slug)
	if err != nil {
		return h.exclusionError(c, err, slug, "Failed to get exclusions")
	}

	return c.JSON(http.StatusOK, toClassExclusionsResponse(slug, flags))
}

// SaveClassExclusions godoc
// @Summary Replace the shipping methods disabled for a shipping class
// @Tags exclusions
// @Accept json
// @Produce json
// @Param slug path string true "Shipping class slug"
// @Param request body ClassExclusionsRequest true "Method instance flags"
// @Success 200 {object} ClassExclusionsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /shipping/exclusions/{slug} [put]
func (h *SettingsHandler) SaveClassExclusions(c echo.Context) error {
	slug := c.Param("slug")

	var req ClassExclusionsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	flags, err := h.settingsService.SaveClassExclusions(slug, domain.ClassExclusions(req.Exclusions))
	if err != nil {
		return h.exclusionError(c, err, slug, "Failed to save exclusions")
	}

	return c.JSON(http.StatusOK, toClassExclusionsResponse(slug, flags))
}

// ClearClassExclusions godoc
// @Summary Remove every exclusion of a shipping class
// @Tags exclusions
// @Param slug path string true "Shipping class slug"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Router /shipping/exclusions/{slug} [delete]
func (h *SettingsHandler) ClearClassExclusions(c echo.Context) error {
	slug := c.Param("slug")

	if err := h.settingsService.ClearClassExclusions(slug); err != nil {
		return h.exclusionError(c, err, slug, "Failed to clear exclusions")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetActionLinks godoc
// @Summary List the extension's admin links, settings first
// @Tags settings
// @Produce json
// @Success 200 {object} ActionLinksResponse
// @Router /plugin/action-links [get]
func (h *SettingsHandler) GetActionLinks(c echo.Context) error {
	return c.JSON(http.StatusOK, ActionLinksResponse{
		Links: h.settingsService.ActionLinks(nil),
	})
}

func (h *SettingsHandler) exclusionError(c echo.Context, err error, slug, detail string) error {
	switch {
	case errors.Is(err, domain.ErrSlugRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "slug", Message: "Shipping class slug is required"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "slug", Message: "Shipping class slug is too long"},
		})
	case errors.Is(err, domain.ErrInvalidInstanceID):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "exclusions", Message: err.Error()},
		})
	case errors.Is(err, domain.ErrShippingClassNotFound):
		return NewNotFoundError(c, "Shipping class not found")
	}
	log.Error().Err(err).Str("class_slug", slug).Msg(detail)
	return NewInternalError(c, detail)
}

func toClassExclusionsResponse(slug string, flags domain.ClassExclusions) ClassExclusionsResponse {
	exclusions := make(map[string]bool, len(flags))
	for key, enabled := range flags {
		exclusions[key] = enabled
	}
	return ClassExclusionsResponse{
		ClassSlug:  slug,
		OptionKey:  domain.OptionKey(slug),
		Exclusions: exclusions,
	}
}
