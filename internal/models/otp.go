package models

import (
	"time"

	"github.com/google/uuid"
)

// OTP lifecycle states. Superseded is never stored: a replaced record is overwritten in place.
const (
	OTPStateIssued      = "issued"
	OTPStateUndelivered = "undelivered"
	OTPStateVerified    = "verified"
	OTPStateExpired     = "expired"
	OTPStateSuperseded  = "superseded"
)

// OTP is the single outstanding passcode for an email.
type OTP struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"` // Never expose OTP in JSON responses
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State reports the lifecycle state of the record at now. A code is still valid at the
// instant it expires.
func (o *OTP) State(now time.Time) string {
	switch {
	case o.Used:
		return OTPStateVerified
	case now.After(o.ExpiresAt):
		return OTPStateExpired
	case !o.Delivered:
		return OTPStateUndelivered
	default:
		return OTPStateIssued
	}
}
