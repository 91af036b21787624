package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pozt-backend/internal/models"
	"pozt-backend/internal/timeutil"
)

// Token scopes. A pending_mfa token proves the password step only and is refused by protected routes.
const (
	ScopePendingMFA    = "pending_mfa"
	ScopeAuthenticated = "authenticated"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidScope = errors.New("invalid token scope")
)

type Claims struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	pendingTTL time.Duration
	now        timeutil.Clock
}

func NewJWTManager(secret, issuer string, sessionTTL, pendingTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		issuer:     issuer,
		sessionTTL: sessionTTL,
		pendingTTL: pendingTTL,
		now:        timeutil.Now,
	}
}

// SetClock replaces the time source.
func (j *JWTManager) SetClock(c timeutil.Clock) {
	j.now = c
}

// Mint signs a token for user with the given scope.
func (j *JWTManager) Mint(user *models.User, scope string) (string, error) {
	var ttl time.Duration
	switch scope {
	case ScopeAuthenticated:
		ttl = j.sessionTTL
	case ScopePendingMFA:
		ttl = j.pendingTTL
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	now := j.now()
	claims := &Claims{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Parse verifies signature, expiry and scope and returns the claims.
func (j *JWTManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithIssuer(j.issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Scope != ScopeAuthenticated && claims.Scope != ScopePendingMFA {
		return nil, ErrInvalidScope
	}

	return claims, nil
}
