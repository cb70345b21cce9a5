package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BackupHandler handles settings snapshot export and restore
type BackupHandler struct {
	backupService *service.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// SnapshotResponse describes an exported or restored snapshot
type SnapshotResponse struct {
	Key         string    `json:"key"`
	ExportedAt  time.Time `json:"exportedAt"`
	OptionCount int       `json:"optionCount"`
}

// RestoreRequest represents the restore snapshot request body
type RestoreRequest struct {
	Key string `json:"key"`
}

// DownloadURLResponse holds a temporary snapshot download link
type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

// Export godoc
// @Summary Export every class exclusion to object storage
// @Tags backups
// @Produce json
// @Success 201 {object} SnapshotResponse
// @Failure 503 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /shipping/backups [post]
func (h *BackupHandler) Export(c echo.Context) error {
	snapshot, err := h.backupService.Export(c.Request().Context())
	if err != nil {
		return h.backupError(c, err, "Failed to export settings")
	}
	return c.JSON(http.StatusCreated, toSnapshotResponse(snapshot))
}

// Restore godoc
// @Summary Restore class exclusions from a snapshot
// @Tags backups
// @Accept json
// @Produce json
// @Param request body RestoreRequest true "Snapshot key"
// @Success 200 {object} SnapshotResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /shipping/backups/restore [post]
func (h *BackupHandler) Restore(c echo.Context) error {
	var req RestoreRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Key == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "key", Message: "Snapshot key is required"},
		})
	}

	snapshot, err := h.backupService.Import(c.Request().Context(), req.Key)
	if err != nil {
		return h.backupError(c, err, "Failed to restore settings")
	}
	return c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

// DownloadURL godoc
// @Summary Get a temporary download link for a snapshot
// @Tags backups
// @Produce json
// @Param key query string true "Snapshot key"
// @Success 200 {object} DownloadURLResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /shipping/backups/url [get]
func (h *BackupHandler) DownloadURL(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "key", Message: "Snapshot key is required"},
		})
	}

	url, err := h.backupService.DownloadURL(c.Request().Context(), key)
	if err != nil {
		return h.backupError(c, err, "Failed to generate download URL")
	}
	return c.JSON(http.StatusOK, DownloadURLResponse{
		URL:       url,
		ExpiresIn: int(service.DownloadURLExpiry.Seconds()),
	})
}

func (h *BackupHandler) backupError(c echo.Context, err error, detail string) error {
	switch {
	case errors.Is(err, domain.ErrBackupDisabled):
		return NewServiceUnavailableError(c, "Settings backups are not configured")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "key", Message: "Invalid snapshot key"},
		})
	case errors.Is(err, domain.ErrInvalidSnapshot):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return NewNotFoundError(c, "Snapshot not found")
	}
	log.Error().Err(err).Msg(detail)
	return NewInternalError(c, detail)
}

func toSnapshotResponse(snapshot *domain.SettingsSnapshot) SnapshotResponse {
	return SnapshotResponse{
		Key:         snapshot.Key,
		ExportedAt:  snapshot.ExportedAt,
		OptionCount: len(snapshot.Options),
	}
}
