package postgres

import (
	"context"
	"errors"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getAllShippingClassesSQL = `SELECT id, slug, name, description, created_at FROM shipping_classes ORDER BY name, slug`

	getShippingClassBySlugSQL = `SELECT id, slug, name, description, created_at FROM shipping_classes WHERE slug = $1`
)

// ShippingClassRepository implements domain.ShippingClassRepository using PostgreSQL
type ShippingClassRepository struct {
	pool *pgxpool.Pool
}

// NewShippingClassRepository creates a new ShippingClassRepository
func NewShippingClassRepository(pool *pgxpool.Pool) *ShippingClassRepository {
	return &ShippingClassRepository{pool: pool}
}

// GetAll retrieves all shipping classes ordered by name
func (r *ShippingClassRepository) GetAll() ([]*domain.ShippingClass, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, getAllShippingClassesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]*domain.ShippingClass, 0)
	for rows.Next() {
		class, err := scanShippingClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

// GetBySlug retrieves a shipping class by its slug
func (r *ShippingClassRepository) GetBySlug(slug string) (*domain.ShippingClass, error) {
	ctx := context.Background()
	class, err := scanShippingClass(r.pool.QueryRow(ctx, getShippingClassBySlugSQL, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShippingClassNotFound
		}
		return nil, err
	}
	return class, nil
}

func scanShippingClass(row pgx.Row) (*domain.ShippingClass, error) {
	var (
		class     domain.ShippingClass
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&class.ID, &class.Slug, &class.Name, &class.Description, &createdAt); err != nil {
		return nil, err
	}
	class.CreatedAt = pgTimestamptzToTime(createdAt)
	return &class, nil
}
