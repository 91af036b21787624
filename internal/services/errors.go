package services

import (
	"net/http"

	"pozt-backend/internal/apperr"
)

// Users and OTP
var (
	ErrRegisterFields     = apperr.Validation("fields_required", "All fields are required")
	ErrInvalidStateID     = apperr.Validation("invalid_state_id", "Invalid state_id")
	ErrInvalidCityID      = apperr.Validation("invalid_city_id", "Invalid city_id")
	ErrCityStateMismatch  = apperr.Validation("city_state_mismatch", "City does not belong to the specified state")
	ErrEmailTaken         = &apperr.Error{Kind: apperr.KindConflict, Code: "email_taken", Message: "Email already exists", Status: http.StatusBadRequest}
	ErrLoginFields        = apperr.Validation("credentials_required", "Email and password are required")
	ErrUserNotFound       = apperr.NotFound("user_not_found", "User not found")
	ErrInvalidCredentials = apperr.Auth("invalid_credentials", "Invalid credentials")
	ErrOTPFields          = apperr.Validation("otp_fields_required", "Email and OTP code are required")
	ErrEmailRequired      = apperr.Validation("email_required", "Email is required")
	ErrOTPInvalid         = apperr.Auth("otp_invalid", "Invalid OTP or already used")
	ErrOTPExpired         = apperr.Auth("otp_expired", "OTP has expired")
	ErrResendTooSoon      = apperr.RateLimited("otp_cooldown", "Please wait before requesting another OTP")
	ErrNotificationFailed = apperr.Dependency("notification_failed", "OTP was issued but could not be delivered", nil)
)

// States and cities
var (
	ErrStateNameRequired = apperr.Validation("state_name_required", "State name is required")
	ErrStateExists       = apperr.Conflict("state_exists", "State already exists")
	ErrCityFields        = apperr.Validation("city_fields_required", "City name and stateId are required")
	ErrStateNotFound     = apperr.NotFound("state_not_found", "State not found")
	ErrCityExists        = apperr.Conflict("city_exists", "City already exists")
	ErrNoCities          = apperr.NotFound("no_cities", "No cities found")
)

// Shippers
var (
	ErrShipperFields        = apperr.Validation("fields_required", "All fields are required.")
	ErrStateIDFormat        = apperr.Validation("invalid_state_id", "Invalid state_id format.")
	ErrCityIDFormat         = apperr.Validation("invalid_city_id", "Invalid city_id format.")
	ErrShipperStateNotFound = apperr.NotFound("state_not_found", "State not found.")
	ErrShipperCityNotFound  = apperr.NotFound("city_not_found", "City not found.")
	ErrShipperEmailTaken    = apperr.Conflict("shipper_email_taken", "Shipper email already exists")
	ErrShipperNotFound      = apperr.NotFound("shipper_not_found", "Shipper not found")
)

// Orders
var (
	ErrOrdersNotArray = apperr.Validation("orders_not_array", "Expected an array of orders")
	ErrOrderInvalid   = apperr.Validation("order_invalid", "Invalid order")
	ErrOrderNotFound  = apperr.NotFound("order_not_found", "Order not found")
)

func storeErr(err error) error {
	return apperr.Dependency("store_error", "database error", err)
}
