package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrOTPCooldown is returned when an unused passcode for the email is younger than the resend interval.
	ErrOTPCooldown = errors.New("otp resend cooldown active")
)

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// ForeignKeyError reports an insert that references a missing row.
type ForeignKeyError struct {
	Constraint string
	Err        error
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("missing reference for %s", e.Constraint)
}

func (e *ForeignKeyError) Unwrap() error {
	return e.Err
}

// Constraint names generated by Postgres for the unique columns in the migrations.
const (
	ConstraintUserEmail       = "users_email_key"
	ConstraintShipperCode     = "shippers_code_key"
	ConstraintShipperEmail    = "shippers_email_key"
	ConstraintOrderTrackingID = "orders_tracking_id_key"
	ConstraintCityName        = "cities_name_key"
	ConstraintStateName       = "states_name_key"
)

// IsDuplicate reports whether err is a unique violation on constraint ("" matches any).
func IsDuplicate(err error, constraint string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	return constraint == "" || dup.Constraint == constraint
}

// classify turns driver errors into repository errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return &DuplicateError{Constraint: pgErr.ConstraintName, Err: err}
		case pgerrcode.ForeignKeyViolation:
			return &ForeignKeyError{Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}
