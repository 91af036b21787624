package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/auth"
	"pozt-backend/internal/models"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	state, city := e.seedLocation(t, "Karnataka", "Bengaluru")
	otherState, _ := e.seedLocation(t, "Kerala", "Kochi")

	valid := func() *models.RegisterRequest {
		return &models.RegisterRequest{
			Email:    "  Asha@Example.com ",
			Password: "s3cret",
			Name:     "Asha",
			Phone:    "9999999999",
			StateID:  state.ID.String(),
			CityID:   city.ID.String(),
		}
	}

	user, err := e.userSvc.Register(ctx, valid())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "s3cret"))

	_, err = e.userSvc.Register(ctx, valid())
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, http.StatusBadRequest, apperr.From(err).HTTPStatus())

	tests := []struct {
		name   string
		mutate func(r *models.RegisterRequest)
		want   error
	}{
		{"missing name", func(r *models.RegisterRequest) { r.Name = "" }, ErrRegisterFields},
		{"missing password", func(r *models.RegisterRequest) { r.Password = "" }, ErrRegisterFields},
		{"malformed state", func(r *models.RegisterRequest) { r.StateID = "abc" }, ErrInvalidStateID},
		{"unknown state", func(r *models.RegisterRequest) { r.StateID = uuid.NewString() }, ErrInvalidStateID},
		{"unknown city", func(r *models.RegisterRequest) { r.CityID = uuid.NewString() }, ErrInvalidCityID},
		{"city of another state", func(r *models.RegisterRequest) { r.StateID = otherState.ID.String() }, ErrCityStateMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			req.Email = uuid.NewString() + "@example.com"
			tt.mutate(req)
			_, err := e.userSvc.Register(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("malformed email", func(t *testing.T) {
		req := valid()
		req.Email = "not-an-email"
		_, err := e.userSvc.Register(ctx, req)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestLoginAndVerify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	resp, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "ASHA@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, MsgLoginOTPSent, resp.Message)
	assert.Equal(t, 1, e.outbox.count())

	claims, err := e.jwt.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.ScopePendingMFA, claims.Scope)
	assert.Equal(t, "asha@example.com", claims.Email)

	code := e.currentCode(t, "asha@example.com")

	verified, err := e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: code})
	require.NoError(t, err)
	assert.Equal(t, MsgOTPVerified, verified.Message)
	claims, err = e.jwt.Parse(verified.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.ScopeAuthenticated, claims.Scope)

	// A consumed code cannot be replayed.
	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: code})
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, http.StatusNotFound, apperr.From(err).HTTPStatus())

	_, err = e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, http.StatusBadRequest, apperr.From(err).HTTPStatus())

	_, err = e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrLoginFields)

	assert.Zero(t, e.outbox.count())
}

func TestLoginDuringCooldownKeepsCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	first := e.currentCode(t, "asha@example.com")

	e.clock.Advance(5 * time.Second)
	resp, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, MsgLoginOTPPending, resp.Message)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, first, e.currentCode(t, "asha@example.com"))
	assert.Equal(t, 1, e.outbox.count())
}

func TestResendSupersedesPreviousCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")
	// Draws 1, 2 and 3 of the code range; the rejected resend consumes the second.
	e.otpSvc.random = bytes.NewReader([]byte{0, 0, 1, 0, 0, 2, 0, 0, 3})

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	old := e.currentCode(t, "asha@example.com")
	require.Equal(t, "100001", old)

	err = e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrResendTooSoon)
	assert.Equal(t, http.StatusTooManyRequests, apperr.From(err).HTTPStatus())
	assert.Contains(t, apperr.From(err).Message, "30 seconds")

	e.clock.Advance(DefaultOTPResendCooldown + time.Second)
	require.NoError(t, e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"}))
	fresh := e.currentCode(t, "asha@example.com")
	require.Equal(t, "100003", fresh)

	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: old})
	assert.ErrorIs(t, err, ErrOTPInvalid)

	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: fresh})
	assert.NoError(t, err)
}

func TestResendWithoutPriorOTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	require.NoError(t, e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"}))
	assert.Equal(t, 1, e.outbox.count())

	err := e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{})
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestVerifyExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	code := e.currentCode(t, "asha@example.com")

	e.clock.Advance(DefaultOTPTTL + time.Second)
	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: code})
	assert.ErrorIs(t, err, ErrOTPExpired)

	// The expired record is kept so a retry reports the same reason.
	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: code})
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyAtExpiryInstant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	code := e.currentCode(t, "asha@example.com")

	e.clock.Advance(DefaultOTPTTL)
	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: code})
	assert.NoError(t, err)
}

func TestVerifyRequiresFields(t *testing.T) {
	e := newEnv(t)
	_, err := e.userSvc.VerifyOTP(context.Background(), &models.VerifyOTPRequest{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrOTPFields)
}

func TestLoginNotificationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")
	e.outbox.fail = errors.New("smtp down")

	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrNotificationFailed)
	assert.Equal(t, http.StatusInternalServerError, apperr.From(err).HTTPStatus())

	// Issued but undelivered: the record exists.
	otp, err := e.otps.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.OTPStateUndelivered, otp.State(e.clock.Now()))
}

func TestLoginAfterNotificationFailureSendsNewCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	e.otpSvc.random = bytes.NewReader([]byte{0, 0, 1, 0, 0, 2, 0, 0, 3})

	e.outbox.fail = errors.New("smtp down")
	_, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.ErrorIs(t, err, ErrNotificationFailed)
	undelivered := e.currentCode(t, "asha@example.com")
	require.Equal(t, "100001", undelivered)

	e.outbox.fail = nil
	e.clock.Advance(2 * time.Second)

	resp, err := e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, MsgLoginOTPSent, resp.Message)
	assert.Equal(t, 1, e.outbox.count())

	otp, err := e.otps.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.OTPStateIssued, otp.State(e.clock.Now()))
	assert.Equal(t, "100002", otp.Code)
	assert.Contains(t, e.outbox.sent[0].Text, otp.Code)

	_, err = e.userSvc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "asha@example.com", OTPCode: undelivered})
	assert.ErrorIs(t, err, ErrOTPInvalid)

	// The delivered code now holds the cooldown.
	resp, err = e.userSvc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, MsgLoginOTPPending, resp.Message)
	assert.Equal(t, 1, e.outbox.count())
}

func TestResendAfterNotificationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "asha@example.com", "s3cret")

	e.outbox.fail = errors.New("smtp down")
	err := e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"})
	require.ErrorIs(t, err, ErrNotificationFailed)

	e.outbox.fail = nil
	e.clock.Advance(time.Second)
	require.NoError(t, e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"}))
	assert.Equal(t, 1, e.outbox.count())

	err = e.userSvc.ResendOTP(ctx, &models.ResendOTPRequest{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrResendTooSoon)
}
