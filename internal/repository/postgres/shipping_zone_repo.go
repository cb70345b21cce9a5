package postgres

import (
	"context"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const getZonesWithMethodsSQL = `SELECT z.id, z.name, z.zone_order,
       m.instance_id, m.method_id, m.title, m.method_order, m.is_enabled
FROM shipping_zones z
LEFT JOIN shipping_zone_methods m ON m.zone_id = z.id
ORDER BY z.zone_order, z.id, m.method_order, m.instance_id`

// ShippingZoneRepository implements domain.ShippingZoneRepository using PostgreSQL
type ShippingZoneRepository struct {
	pool *pgxpool.Pool
}

// NewShippingZoneRepository creates a new ShippingZoneRepository
func NewShippingZoneRepository(pool *pgxpool.Pool) *ShippingZoneRepository {
	return &ShippingZoneRepository{pool: pool}
}

// GetAll retrieves all zones with their method instances in display order
func (r *ShippingZoneRepository) GetAll() ([]*domain.ShippingZone, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, getZonesWithMethodsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := make([]*domain.ShippingZone, 0)
	byID := make(map[int32]*domain.ShippingZone)

	for rows.Next() {
		var (
			zoneID      int32
			zoneName    string
			zoneOrder   int32
			instanceID  pgtype.Int4
			methodID    pgtype.Text
			title       pgtype.Text
			methodOrder pgtype.Int4
			enabled     pgtype.Bool
		)
		if err := rows.Scan(&zoneID, &zoneName, &zoneOrder, &instanceID, &methodID, &title, &methodOrder, &enabled); err != nil {
			return nil, err
		}

		zone, ok := byID[zoneID]
		if !ok {
			zone = &domain.ShippingZone{
				ID:      zoneID,
				Name:    zoneName,
				Order:   int(zoneOrder),
				Methods: make([]domain.ShippingMethodInstance, 0),
			}
			byID[zoneID] = zone
			zones = append(zones, zone)
		}

		// LEFT JOIN yields a NULL method row for zones without methods
		if !instanceID.Valid {
			continue
		}
		zone.Methods = append(zone.Methods, domain.ShippingMethodInstance{
			MethodID:   methodID.String,
			InstanceID: int(instanceID.Int32),
			Title:      title.String,
			Enabled:    enabled.Bool,
			Order:      int(methodOrder.Int32),
		})
	}
	return zones, rows.Err()
}
