package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pozt-backend/internal/idgen"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
)

// Storage contracts. The pgx repositories implement them; tests use in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type OTPStore interface {
	Replace(ctx context.Context, otp *models.OTP, notBefore time.Time) error
	GetByEmail(ctx context.Context, email string) (*models.OTP, error)
	FindUnused(ctx context.Context, email, code string) (*models.OTP, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type LocationStore interface {
	CreateState(ctx context.Context, s *models.State) error
	GetState(ctx context.Context, id uuid.UUID) (*models.State, error)
	ListStates(ctx context.Context) ([]*models.State, error)
	CreateCity(ctx context.Context, c *models.City) error
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	ListCities(ctx context.Context) ([]*models.City, error)
}

type ShipperStore interface {
	Create(ctx context.Context, s *models.Shipper) error
	CodeExists(ctx context.Context, code string) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Shipper, error)
	GetByCode(ctx context.Context, code string) (*models.Shipper, error)
	List(ctx context.Context) ([]*models.Shipper, error)
}

type OrderStore interface {
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	CreateBatch(ctx context.Context, orders []*models.Order, reissue repositories.ReissueFunc) error
	List(ctx context.Context) ([]*models.Order, error)
	ListByShipper(ctx context.Context, shipperID uuid.UUID) ([]*models.Order, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
}

// IDGenerator allocates shipper codes and tracking ids.
type IDGenerator interface {
	Generate(ctx context.Context, kind idgen.Kind) (string, error)
}

// ListCache caches reference lists. *cache.Cache satisfies it.
type ListCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any)
	Invalidate(ctx context.Context, keys ...string)
}

// OrderPublisher fans created orders out to live subscribers.
type OrderPublisher interface {
	Publish(event models.OrderEvent)
}
