package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getOptionSQL = `SELECT option_name, option_value, updated_at FROM options WHERE option_name = $1`

	getOptionsSQL = `SELECT option_name, option_value, updated_at FROM options WHERE option_name = ANY($1)`

	listOptionsByPrefixSQL = `SELECT option_name, option_value, updated_at FROM options
WHERE starts_with(option_name, $1) ORDER BY option_name`

	upsertOptionSQL = `INSERT INTO options (option_name, option_value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (option_name) DO UPDATE SET option_value = EXCLUDED.option_value, updated_at = NOW()
RETURNING option_name, option_value, updated_at`

	deleteOptionSQL = `DELETE FROM options WHERE option_name = $1`
)

// OptionRepository implements domain.OptionRepository using PostgreSQL
type OptionRepository struct {
	pool *pgxpool.Pool
}

// NewOptionRepository creates a new OptionRepository
func NewOptionRepository(pool *pgxpool.Pool) *OptionRepository {
	return &OptionRepository{pool: pool}
}

// Get retrieves a single option by key
func (r *OptionRepository) Get(key string) (*domain.Option, error) {
	ctx := context.Background()
	option, err := scanOption(r.pool.QueryRow(ctx, getOptionSQL, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return option, nil
}

// GetMany retrieves every existing option among keys
func (r *OptionRepository) GetMany(keys []string) (map[string]*domain.Option, error) {
	result := make(map[string]*domain.Option, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	ctx := context.Background()
	rows, err := r.pool.Query(ctx, getOptionsSQL, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		option, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		result[option.Key] = option
	}
	return result, rows.Err()
}

// Set creates or replaces an option value
func (r *OptionRepository) Set(key string, value map[string]any) (*domain.Option, error) {
	ctx := context.Background()
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode option %s: %w", key, err)
	}
	return scanOption(r.pool.QueryRow(ctx, upsertOptionSQL, key, raw))
}

// Delete removes an option; deleting a missing option is not an error
func (r *OptionRepository) Delete(key string) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, deleteOptionSQL, key)
	return err
}

// ListByPrefix retrieves all options whose key starts with prefix
func (r *OptionRepository) ListByPrefix(prefix string) ([]*domain.Option, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, listOptionsByPrefixSQL, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*domain.Option
	for rows.Next() {
		option, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

// Helper functions

func scanOption(row pgx.Row) (*domain.Option, error) {
	var (
		key       string
		raw       []byte
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&key, &raw, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.Option{
		Key:       key,
		Value:     decodeOptionValue(raw),
		UpdatedAt: pgTimestamptzToTime(updatedAt),
	}, nil
}

// decodeOptionValue tolerates values that are not JSON objects, which the
// host may have written; they decode to an empty mapping.
func decodeOptionValue(raw []byte) map[string]any {
	value := make(map[string]any)
	if len(raw) == 0 {
		return value
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return make(map[string]any)
	}
	return value
}

func pgTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
