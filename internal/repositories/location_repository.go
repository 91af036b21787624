package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pozt-backend/internal/models"
)

// LocationRepository stores the state and city reference data.
type LocationRepository struct {
	DB *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{DB: db}
}

func (r *LocationRepository) CreateState(ctx context.Context, s *models.State) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO states(id, name) VALUES($1, $2) RETURNING created_at`,
		s.ID, s.Name,
	).Scan(&s.CreatedAt)
	return classify(err)
}

func (r *LocationRepository) GetState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	var s models.State
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, created_at FROM states WHERE id=$1`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *LocationRepository) ListStates(ctx context.Context) ([]*models.State, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, created_at FROM states ORDER BY name`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	states := []*models.State{}
	for rows.Next() {
		var s models.State
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		states = append(states, &s)
	}
	return states, rows.Err()
}

func (r *LocationRepository) CreateCity(ctx context.Context, c *models.City) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO cities(id, name, short, status, state_id)
         VALUES($1, $2, $3, $4, $5)
         RETURNING created_at`,
		c.ID, c.Name, c.Short, c.Status, c.StateID,
	).Scan(&c.CreatedAt)
	return classify(err)
}

const cityColumns = `c.id, c.name, c.short, c.status, c.state_id, COALESCE(s.name, ''), c.created_at`

func (r *LocationRepository) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+cityColumns+`
         FROM cities c LEFT JOIN states s ON s.id = c.state_id
         WHERE c.id=$1`, id)
	return scanCity(row)
}

// ListCities returns all cities with their state name populated.
func (r *LocationRepository) ListCities(ctx context.Context) ([]*models.City, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+cityColumns+`
         FROM cities c LEFT JOIN states s ON s.id = c.state_id
         ORDER BY c.name`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cities := []*models.City{}
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func scanCity(row rowScanner) (*models.City, error) {
	var c models.City
	if err := row.Scan(&c.ID, &c.Name, &c.Short, &c.Status, &c.StateID, &c.StateName, &c.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &c, nil
}
