package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pozt-backend/internal/models"
)

type ShipperRepository struct {
	DB *pgxpool.Pool
}

func NewShipperRepository(db *pgxpool.Pool) *ShipperRepository {
	return &ShipperRepository{DB: db}
}

func (r *ShipperRepository) Create(ctx context.Context, s *models.Shipper) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO shippers(id, code, name, email, phone, address, state_id, city_id)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING created_at`,
		s.ID, s.Code, s.Name, s.Email, s.Phone, s.Address, s.StateID, s.CityID,
	).Scan(&s.CreatedAt)
	return classify(err)
}

// CodeExists probes for a generated shipper code.
func (r *ShipperRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shippers WHERE code=$1)`, code).Scan(&exists)
	return exists, classify(err)
}

const shipperSelect = `
	SELECT sh.id, sh.code, sh.name, sh.email, sh.phone, sh.address, sh.state_id, sh.city_id,
	       COALESCE(st.name, ''), COALESCE(c.name, ''), sh.created_at
	FROM shippers sh
	LEFT JOIN states st ON st.id = sh.state_id
	LEFT JOIN cities c ON c.id = sh.city_id`

func (r *ShipperRepository) Get(ctx context.Context, id uuid.UUID) (*models.Shipper, error) {
	return scanShipper(r.DB.QueryRow(ctx, shipperSelect+` WHERE sh.id=$1`, id))
}

func (r *ShipperRepository) GetByCode(ctx context.Context, code string) (*models.Shipper, error) {
	return scanShipper(r.DB.QueryRow(ctx, shipperSelect+` WHERE sh.code=$1`, code))
}

func (r *ShipperRepository) List(ctx context.Context) ([]*models.Shipper, error) {
	rows, err := r.DB.Query(ctx, shipperSelect+` ORDER BY sh.created_at DESC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	shippers := []*models.Shipper{}
	for rows.Next() {
		s, err := scanShipper(rows)
		if err != nil {
			return nil, err
		}
		shippers = append(shippers, s)
	}
	return shippers, rows.Err()
}

func scanShipper(row rowScanner) (*models.Shipper, error) {
	var s models.Shipper
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.Phone, &s.Address,
		&s.StateID, &s.CityID, &s.StateName, &s.CityName, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}
