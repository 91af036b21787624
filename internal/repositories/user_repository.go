package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pozt-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, phone, password_hash, state_id, city_id, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(id, name, email, phone, password_hash, state_id, city_id)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.StateID, u.CityID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return classify(err)
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return scanUser(row)
}

// GetByEmail expects an already lowercased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.StateID, &user.CityID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
