package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pozt-backend/internal/models"
)

type OTPRepository struct {
	DB *pgxpool.Pool
}

func NewOTPRepository(db *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{DB: db}
}

// Replace atomically installs otp as the only passcode for its email. An existing record is
// overwritten only when it is used, was never delivered, or was created at or before notBefore;
// otherwise ErrOTPCooldown is returned and nothing changes.
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTP, notBefore time.Time) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}

	query := `
		INSERT INTO otps(id, email, otp_code, expires_at, used, delivered, created_at, updated_at)
		VALUES($1, $2, $3, $4, FALSE, FALSE, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET id = EXCLUDED.id,
		    otp_code = EXCLUDED.otp_code,
		    expires_at = EXCLUDED.expires_at,
		    used = FALSE,
		    delivered = FALSE,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE otps.used OR NOT otps.delivered OR otps.created_at <= $6
		RETURNING id, created_at, updated_at
	`

	err := r.DB.QueryRow(ctx, query,
		otp.ID,
		otp.Email,
		otp.Code,
		otp.ExpiresAt,
		otp.CreatedAt,
		notBefore,
	).Scan(&otp.ID, &otp.CreatedAt, &otp.UpdatedAt)

	if err = classify(err); errors.Is(err, ErrNotFound) {
		return ErrOTPCooldown
	}
	return err
}

// MarkDelivered records that the code for id reached the notification provider.
func (r *OTPRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `UPDATE otps SET delivered = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return classify(err)
}

// GetByEmail returns the current record for an email, used or not.
func (r *OTPRepository) GetByEmail(ctx context.Context, email string) (*models.OTP, error) {
	query := `
		SELECT id, email, otp_code, expires_at, used, delivered, created_at, updated_at
		FROM otps
		WHERE email = $1
	`
	return scanOTP(r.DB.QueryRow(ctx, query, email))
}

// FindUnused returns the unused record for email whose code matches.
func (r *OTPRepository) FindUnused(ctx context.Context, email, code string) (*models.OTP, error) {
	query := `
		SELECT id, email, otp_code, expires_at, used, delivered, created_at, updated_at
		FROM otps
		WHERE email = $1 AND otp_code = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanOTP(r.DB.QueryRow(ctx, query, email, code))
}

// MarkUsed flips used on a still-unused record. It reports false when another request got there
// first or the record was replaced meanwhile.
func (r *OTPRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE otps SET used = TRUE, updated_at = NOW() WHERE id = $1 AND used = FALSE`
	tag, err := r.DB.Exec(ctx, query, id)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpiredBefore removes records that expired before cutoff.
func (r *OTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM otps WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func scanOTP(row rowScanner) (*models.OTP, error) {
	var otp models.OTP
	err := row.Scan(
		&otp.ID,
		&otp.Email,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.Delivered,
		&otp.CreatedAt,
		&otp.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &otp, nil
}
