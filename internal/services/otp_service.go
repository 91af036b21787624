package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/metrics"
	"pozt-backend/internal/models"
	"pozt-backend/internal/notify"
	"pozt-backend/internal/repositories"
	"pozt-backend/internal/timeutil"
)

const (
	OTPMin = 100000
	OTPMax = 999999

	DefaultOTPTTL            = 5 * time.Minute
	DefaultOTPResendCooldown = 30 * time.Second
)

// OTPService issues and verifies emailed one-time passcodes. Each email has at most one record;
// issuing replaces it in a single upsert, so a superseded code can never verify.
type OTPService struct {
	Store    OTPStore
	Sender   notify.Sender
	TTL      time.Duration
	Cooldown time.Duration

	now    timeutil.Clock
	random io.Reader
	logger *zap.Logger
}

func NewOTPService(store OTPStore, sender notify.Sender, ttl, cooldown time.Duration, logger *zap.Logger) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{
		Store:    store,
		Sender:   sender,
		TTL:      ttl,
		Cooldown: cooldown,
		now:      timeutil.Now,
		random:   rand.Reader,
		logger:   logger.Named("otp"),
	}
}

// SetClock replaces the time source.
func (s *OTPService) SetClock(c timeutil.Clock) {
	s.now = c
}

// GenerateCode returns a code uniform over [100000, 999999].
func (s *OTPService) GenerateCode() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(OTPMax-OTPMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+OTPMin), nil
}

// Issue creates a fresh passcode for email, replacing any earlier one, and sends it.
//
// ErrResendTooSoon means a delivered, unused code younger than the cooldown exists and nothing
// changed. ErrNotificationFailed means the code is stored but the email did not go out; such a
// record does not hold the cooldown, so the next Issue replaces it straight away.
func (s *OTPService) Issue(ctx context.Context, email string) (*models.OTP, error) {
	email = normalizeEmail(email)

	code, err := s.GenerateCode()
	if err != nil {
		metrics.OTPIssued.WithLabelValues("error").Inc()
		return nil, apperr.Dependency("otp_random", "could not generate OTP", err)
	}

	now := s.now()
	otp := &models.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}

	err = s.Store.Replace(ctx, otp, now.Add(-s.Cooldown))
	if errors.Is(err, repositories.ErrOTPCooldown) {
		metrics.OTPIssued.WithLabelValues("cooldown").Inc()
		return nil, s.cooldownError(ctx, email, now)
	}
	if err != nil {
		metrics.OTPIssued.WithLabelValues("error").Inc()
		return nil, storeErr(err)
	}

	if err := s.Sender.Send(ctx, notify.OTPMessage(email, code, s.TTL)); err != nil {
		metrics.OTPIssued.WithLabelValues("undelivered").Inc()
		s.logger.Error("otp delivery failed", zap.String("email", email), zap.Error(err))
		return otp, ErrNotificationFailed.Wrap(err)
	}

	if err := s.Store.MarkDelivered(ctx, otp.ID); err != nil {
		// The email is out; without the flag the next request may send another code early.
		s.logger.Warn("otp delivery not recorded", zap.String("email", email), zap.Error(err))
	} else {
		otp.Delivered = true
	}

	metrics.OTPIssued.WithLabelValues("issued").Inc()
	s.logger.Info("otp issued", zap.String("email", email), zap.Time("expires_at", otp.ExpiresAt))
	return otp, nil
}

func (s *OTPService) cooldownError(ctx context.Context, email string, now time.Time) error {
	e := *ErrResendTooSoon
	current, err := s.Store.GetByEmail(ctx, email)
	if err == nil {
		wait := current.CreatedAt.Add(s.Cooldown).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		e.Message = fmt.Sprintf("Please wait %d seconds before requesting another OTP", int(wait.Round(time.Second)/time.Second))
	}
	return &e
}

// Verify consumes the passcode. A wrong, used or superseded code yields ErrOTPInvalid; a matching
// code past its expiry yields ErrOTPExpired and is left for the sweeper.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	otp, err := s.Store.FindUnused(ctx, email, code)
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.OTPVerified.WithLabelValues("invalid").Inc()
		return ErrOTPInvalid
	}
	if err != nil {
		metrics.OTPVerified.WithLabelValues("error").Inc()
		return storeErr(err)
	}

	if otp.State(s.now()) == models.OTPStateExpired {
		metrics.OTPVerified.WithLabelValues("expired").Inc()
		return ErrOTPExpired
	}

	// A concurrent verify or re-issue may have consumed the row since the lookup.
	marked, err := s.Store.MarkUsed(ctx, otp.ID)
	if err != nil {
		metrics.OTPVerified.WithLabelValues("error").Inc()
		return storeErr(err)
	}
	if !marked {
		metrics.OTPVerified.WithLabelValues("invalid").Inc()
		return ErrOTPInvalid
	}

	metrics.OTPVerified.WithLabelValues("verified").Inc()
	return nil
}
