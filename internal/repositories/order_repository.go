package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pozt-backend/internal/models"
)

// maxReissues bounds tracking id replacement after an insert-time collision.
const maxReissues = 3

// ReissueFunc supplies a fresh tracking id after the unique constraint rejected one.
type ReissueFunc func(ctx context.Context) (string, error)

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

// TrackingIDExists probes for a generated tracking id.
func (r *OrderRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE tracking_id=$1)`, trackingID).Scan(&exists)
	return exists, classify(err)
}

// CreateBatch inserts all orders in one transaction. Each insert runs in its own savepoint so a
// tracking id collision can be repaired with reissue without aborting the batch.
func (r *OrderRepository) CreateBatch(ctx context.Context, orders []*models.Order, reissue ReissueFunc) error {
	return pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		for _, o := range orders {
			if err := insertWithReissue(ctx, tx, o, reissue); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertWithReissue(ctx context.Context, tx pgx.Tx, o *models.Order, reissue ReissueFunc) error {
	for attempt := 0; ; attempt++ {
		err := classify(pgx.BeginFunc(ctx, tx, func(sp pgx.Tx) error {
			return insertOrder(ctx, sp, o)
		}))
		if !IsDuplicate(err, ConstraintOrderTrackingID) || reissue == nil || attempt >= maxReissues {
			return err
		}

		id, rerr := reissue(ctx)
		if rerr != nil {
			return rerr
		}
		o.TrackingID = id
	}
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return tx.QueryRow(ctx,
		`INSERT INTO orders(id, tracking_id, shipper_id, order_date, delivery_date, customer_name,
		     customer_phone, customer_address, state_id, city_id, payment, status, total_amount)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
         RETURNING created_at, updated_at`,
		o.ID, o.TrackingID, o.ShipperID, o.OrderDate, o.DeliveryDate, o.CustomerName,
		o.CustomerPhone, o.CustomerAddress, o.StateID, o.CityID, o.Payment, o.Status, o.TotalAmount,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

const orderSelect = `
	SELECT o.id, o.tracking_id, o.shipper_id, o.order_date, o.delivery_date, o.customer_name,
	       o.customer_phone, o.customer_address, o.state_id, o.city_id, o.payment, o.status,
	       o.total_amount::float8, o.created_at, o.updated_at,
	       COALESCE(sh.code, ''), COALESCE(sh.name, ''), COALESCE(sh.phone, ''), COALESCE(sh.address, ''),
	       COALESCE(st.name, ''), COALESCE(c.name, ''), COALESCE(c.short, '')
	FROM orders o
	LEFT JOIN shippers sh ON sh.id = o.shipper_id
	LEFT JOIN states st ON st.id = o.state_id
	LEFT JOIN cities c ON c.id = o.city_id`

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	return r.query(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

// ListByShipper returns a shipper's orders, most recent order date first.
func (r *OrderRepository) ListByShipper(ctx context.Context, shipperID uuid.UUID) ([]*models.Order, error) {
	return r.query(ctx, orderSelect+` WHERE o.shipper_id=$1 ORDER BY o.order_date DESC, o.created_at DESC`, shipperID)
}

func (r *OrderRepository) GetByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, orderSelect+` WHERE o.tracking_id=$1`, trackingID))
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.TrackingID, &o.ShipperID, &o.OrderDate, &o.DeliveryDate, &o.CustomerName,
		&o.CustomerPhone, &o.CustomerAddress, &o.StateID, &o.CityID, &o.Payment, &o.Status,
		&o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
		&o.ShipperCode, &o.ShipperName, &o.ShipperPhone, &o.ShipperAddress,
		&o.StateName, &o.CityName, &o.CityShort)
	if err != nil {
		return nil, classify(err)
	}
	return &o, nil
}
