package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/exclusion"
	"github.com/avecnous/shipclass/shipclass-backend/internal/repository/storage"
	"github.com/avecnous/shipclass/shipclass-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	snapshotPrefix = "snapshots/"
	snapshotSuffix = ".json"

	// DownloadURLExpiry is how long a snapshot download link stays valid
	DownloadURLExpiry = 15 * time.Minute
)

// BackupService exports and restores exclusion settings through object storage
type BackupService struct {
	optionRepo domain.OptionRepository
	snapshots  storage.SnapshotRepository
	publisher  websocket.EventPublisher
	now        func() time.Time
}

// NewBackupService creates a new BackupService. A nil snapshot repository disables backups.
func NewBackupService(optionRepo domain.OptionRepository, snapshots storage.SnapshotRepository, publisher websocket.EventPublisher) *BackupService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &BackupService{
		optionRepo: optionRepo,
		snapshots:  snapshots,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Export uploads every class exclusion option as a JSON snapshot
func (s *BackupService) Export(ctx context.Context) (*domain.SettingsSnapshot, error) {
	if s.snapshots == nil {
		return nil, domain.ErrBackupDisabled
	}

	options, err := s.optionRepo.ListByPrefix(domain.OptionKeyPrefix)
	if err != nil {
		return nil, err
	}

	exportedAt := s.now().UTC()
	snapshot := &domain.SettingsSnapshot{
		Key:        fmt.Sprintf("%s%s-%s%s", snapshotPrefix, exportedAt.Format("20060102T150405Z"), uuid.New().String(), snapshotSuffix),
		ExportedAt: exportedAt,
		Options:    make(map[string]map[string]any, len(options)),
	}
	for _, option := range options {
		snapshot.Options[option.Key] = option.Value
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.snapshots.Upload(ctx, snapshot.Key, data); err != nil {
		return nil, err
	}

	log.Info().Str("snapshot_key", snapshot.Key).Int("option_count", len(snapshot.Options)).Msg("Settings snapshot exported")
	s.publisher.Publish(websocket.BackupExported(map[string]interface{}{
		"key":         snapshot.Key,
		"optionCount": len(snapshot.Options),
	}))

	return snapshot, nil
}

// Import restores every option of a snapshot. The snapshot is validated in full
// before anything is written, and a failed write restores the options already
// replaced. Options of classes absent from the snapshot are left untouched.
func (s *BackupService) Import(ctx context.Context, key string) (*domain.SettingsSnapshot, error) {
	if s.snapshots == nil {
		return nil, domain.ErrBackupDisabled
	}
	if err := validateSnapshotKey(key); err != nil {
		return nil, err
	}

	data, err := s.snapshots.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	var snapshot domain.SettingsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}

	normalized := make(map[string]map[string]any, len(snapshot.Options))
	for optionKey, value := range snapshot.Options {
		if _, ok := domain.ClassSlugFromOptionKey(optionKey); !ok {
			return nil, fmt.Errorf("%w: unexpected option %q", domain.ErrInvalidSnapshot, optionKey)
		}
		flags := make(map[string]any, len(value))
		for instanceKey, v := range value {
			if _, _, err := domain.ParseInstanceKey(instanceKey); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
			}
			flags[instanceKey] = domain.FlagNo
			if exclusion.IsEnabled(v) {
				flags[instanceKey] = domain.FlagYes
			}
		}
		normalized[optionKey] = flags
	}

	if err := s.writeAll(normalized); err != nil {
		return nil, err
	}
	snapshot.Key = key
	snapshot.Options = normalized

	log.Info().Str("snapshot_key", key).Int("option_count", len(normalized)).Msg("Settings snapshot imported")
	s.publisher.Publish(websocket.SettingsImported(map[string]interface{}{
		"key":         key,
		"optionCount": len(normalized),
	}))

	return &snapshot, nil
}

// writeAll stores options in key order. When a write fails, the options written
// so far are put back to their previous value, or removed if they did not exist.
func (s *BackupService) writeAll(options map[string]map[string]any) error {
	keys := slices.Sorted(maps.Keys(options))
	previous, err := s.optionRepo.GetMany(keys)
	if err != nil {
		return err
	}

	for i, optionKey := range keys {
		if _, err := s.optionRepo.Set(optionKey, options[optionKey]); err != nil {
			s.rollback(keys[:i], previous)
			return err
		}
	}
	return nil
}

func (s *BackupService) rollback(written []string, previous map[string]*domain.Option) {
	for _, optionKey := range slices.Backward(written) {
		var err error
		if option, ok := previous[optionKey]; ok {
			_, err = s.optionRepo.Set(optionKey, option.Value)
		} else {
			err = s.optionRepo.Delete(optionKey)
		}
		if err != nil {
			log.Error().Err(err).Str("option", optionKey).Msg("Failed to roll back imported option")
		}
	}
	log.Warn().Int("option_count", len(written)).Msg("Settings import rolled back")
}

// DownloadURL returns a temporary download link for a snapshot
func (s *BackupService) DownloadURL(ctx context.Context, key string) (string, error) {
	if s.snapshots == nil {
		return "", domain.ErrBackupDisabled
	}
	if err := validateSnapshotKey(key); err != nil {
		return "", err
	}
	return s.snapshots.GeneratePresignedURL(ctx, key, DownloadURLExpiry)
}

func validateSnapshotKey(key string) error {
	if !strings.HasPrefix(key, snapshotPrefix) || !strings.HasSuffix(key, snapshotSuffix) || strings.Contains(key, "..") {
		return errors.Join(domain.ErrInvalidInput, fmt.Errorf("invalid snapshot key %q", key))
	}
	return nil
}
