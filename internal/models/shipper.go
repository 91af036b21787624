package models

import (
	"time"

	"github.com/google/uuid"
)

type Shipper struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"id_shipper"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	StateID   uuid.UUID `json:"state_id"`
	CityID    uuid.UUID `json:"city_id"`
	StateName string    `json:"state,omitempty"`
	CityName  string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateShipperRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	StateID string `json:"state_id" validate:"required"`
	CityID  string `json:"city_id" validate:"required"`
}
