package domain

import "errors"

// Domain errors
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrSlugRequired          = errors.New("shipping class slug is required")
	ErrShippingClassNotFound = errors.New("shipping class not found")
	ErrInvalidInstanceID     = errors.New("invalid shipping method instance id")
	ErrSnapshotNotFound      = errors.New("settings snapshot not found")
	ErrInvalidSnapshot       = errors.New("invalid settings snapshot")
	ErrBackupDisabled        = errors.New("settings backup storage is not configured")
)

// Validation constants
const (
	MaxClassSlugLength = 200
)
