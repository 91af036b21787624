package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/auth"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
)

const (
	MsgRegistered      = "User registered successfully"
	MsgLoginOTPSent    = "Login successful, OTP sent"
	MsgLoginOTPPending = "Login successful, OTP already sent"
	MsgOTPVerified     = "OTP verified successfully"
	MsgOTPResent       = "OTP resent successfully"
)

// TokenMinter signs session tokens. *auth.JWTManager satisfies it.
type TokenMinter interface {
	Mint(user *models.User, scope string) (string, error)
}

// UserService runs registration and the two-step login: password, then emailed OTP.
type UserService struct {
	Users     UserStore
	Locations LocationStore
	OTP       *OTPService
	Tokens    TokenMinter
	logger    *zap.Logger
}

func NewUserService(users UserStore, locations LocationStore, otp *OTPService, tokens TokenMinter, logger *zap.Logger) *UserService {
	return &UserService{
		Users:     users,
		Locations: locations,
		OTP:       otp,
		Tokens:    tokens,
		logger:    logger.Named("users"),
	}
}

// Register creates a user after checking the state and city references.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if err := validate.Struct(req); err != nil {
		if hasRequiredFailure(err) {
			return nil, ErrRegisterFields
		}
		return nil, apperr.Validation("invalid_field", describe(err))
	}

	stateID, err := uuid.Parse(req.StateID)
	if err != nil {
		return nil, ErrInvalidStateID
	}
	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		return nil, ErrInvalidCityID
	}

	if _, err := s.Locations.GetState(ctx, stateID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidStateID
		}
		return nil, storeErr(err)
	}
	city, err := s.Locations.GetCity(ctx, cityID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCityID
		}
		return nil, storeErr(err)
	}
	if city.StateID != stateID {
		return nil, ErrCityStateMismatch
	}

	if _, err := s.Users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, storeErr(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		StateID:      stateID,
		CityID:       cityID,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if repositories.IsDuplicate(err, repositories.ConstraintUserEmail) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return user, nil
}

// Login checks the password, issues an OTP and returns a pending_mfa token.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrLoginFields
	}

	user, err := s.Users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login rejected", zap.String("email", user.Email))
		return nil, ErrInvalidCredentials
	}

	message := MsgLoginOTPSent
	if _, err := s.OTP.Issue(ctx, user.Email); err != nil {
		// A delivered code younger than the cooldown is still valid; do not mail another one.
		if !errors.Is(err, ErrResendTooSoon) {
			return nil, err
		}
		message = MsgLoginOTPPending
	}

	token, err := s.Tokens.Mint(user, auth.ScopePendingMFA)
	if err != nil {
		return nil, storeErr(err)
	}

	return &models.AuthResponse{Message: message, Token: token, Scope: auth.ScopePendingMFA}, nil
}

// VerifyOTP consumes the passcode and returns an authenticated session token.
func (s *UserService) VerifyOTP(ctx context.Context, req *models.VerifyOTPRequest) (*models.AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrOTPFields
	}
	email := normalizeEmail(req.Email)

	if err := s.OTP.Verify(ctx, email, strings.TrimSpace(req.OTPCode)); err != nil {
		return nil, err
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	token, err := s.Tokens.Mint(user, auth.ScopeAuthenticated)
	if err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("otp verified", zap.String("user_id", user.ID.String()))
	return &models.AuthResponse{Message: MsgOTPVerified, Token: token, Scope: auth.ScopeAuthenticated}, nil
}

// ResendOTP issues a new code for an existing user, subject to the resend cooldown.
func (s *UserService) ResendOTP(ctx context.Context, req *models.ResendOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return ErrEmailRequired
	}

	user, err := s.Users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return storeErr(err)
	}

	_, err = s.OTP.Issue(ctx, user.Email)
	return err
}
