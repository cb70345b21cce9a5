package storage

import (
	"context"
	"time"
)

// SnapshotRepository defines object storage operations for settings snapshots
type SnapshotRepository interface {
	Upload(ctx context.Context, objectPath string, data []byte) error

	// Download returns domain.ErrSnapshotNotFound when the object does not exist
	Download(ctx context.Context, objectPath string) ([]byte, error)

	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
