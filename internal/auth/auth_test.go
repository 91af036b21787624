package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pozt-backend/internal/models"
	"pozt-backend/internal/timeutil"
)

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Name: "A", Email: "a@x.com"}
}

func TestMintAndParse(t *testing.T) {
	m := NewJWTManager("secret", "pozt-backend", time.Hour, 5*time.Minute)
	user := testUser()

	token, err := m.Mint(user, ScopeAuthenticated)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.ID)
	assert.Equal(t, "A", claims.Name)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, ScopeAuthenticated, claims.Scope)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestPendingTokenExpiresSooner(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewJWTManager("secret", "pozt-backend", time.Hour, 5*time.Minute)
	m.SetClock(timeutil.Fixed(start))

	pending, err := m.Mint(testUser(), ScopePendingMFA)
	require.NoError(t, err)
	session, err := m.Mint(testUser(), ScopeAuthenticated)
	require.NoError(t, err)

	m.SetClock(timeutil.Fixed(start.Add(10 * time.Minute)))
	_, err = m.Parse(pending)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := m.Parse(session)
	require.NoError(t, err)
	assert.Equal(t, ScopeAuthenticated, claims.Scope)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", "pozt-backend", time.Hour, 5*time.Minute)

	other := NewJWTManager("other-secret", "pozt-backend", time.Hour, 5*time.Minute)
	token, err := other.Mint(testUser(), ScopeAuthenticated)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Scope: ScopeAuthenticated}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Mint(testUser(), "admin")
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
}
