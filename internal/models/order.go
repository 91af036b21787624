package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// Payment modes as sent by the order entry screens.
const (
	PaymentPrepaid = "0"
	PaymentCOD     = "1"
)

type Order struct {
	ID              uuid.UUID `json:"id"`
	TrackingID      string    `json:"tracking_id"`
	ShipperID       uuid.UUID `json:"shipper_id"`
	OrderDate       time.Time `json:"order_date"`
	DeliveryDate    time.Time `json:"delivery_date"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	StateID         uuid.UUID `json:"state_id"`
	CityID          uuid.UUID `json:"city_id"`
	Payment         string    `json:"payment"`
	Status          string    `json:"status"`
	TotalAmount     float64   `json:"total_amount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Populated on reads
	ShipperCode    string `json:"shipper_code,omitempty"`
	ShipperName    string `json:"shipper_name,omitempty"`
	ShipperPhone   string `json:"shipper_phone,omitempty"`
	ShipperAddress string `json:"shipper_address,omitempty"`
	StateName      string `json:"state_name,omitempty"`
	CityName       string `json:"city_name,omitempty"`
	CityShort      string `json:"city_short,omitempty"`
}

// PaymentLabel renders the payment code for labels and listings.
func (o *Order) PaymentLabel() string {
	if o.Payment == PaymentCOD {
		return "COD"
	}
	return "Prepaid"
}

type CreateOrderRequest struct {
	ShipperID       string     `json:"shipper_id" validate:"required"`
	OrderDate       *time.Time `json:"order_date"`
	DeliveryDate    *time.Time `json:"delivery_date" validate:"required"`
	CustomerName    string     `json:"customer_name" validate:"required"`
	CustomerPhone   string     `json:"customer_phone" validate:"required"`
	CustomerAddress string     `json:"customer_address" validate:"required"`
	StateID         string     `json:"state_id" validate:"required"`
	CityID          string     `json:"city_id" validate:"required"`
	Payment         string     `json:"payment" validate:"required,oneof=0 1"`
	Status          string     `json:"status" validate:"omitempty,oneof=Pending Shipped Delivered Cancelled"`
	TotalAmount     *float64   `json:"total_amount" validate:"required,gte=0"`
}

// OrderEvent is pushed to live feed subscribers.
type OrderEvent struct {
	Type  string `json:"type"`
	Order *Order `json:"order"`
}
