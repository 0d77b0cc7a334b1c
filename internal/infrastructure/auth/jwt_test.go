package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membercard/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "membercard-sync-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestJWTService()
	userID := uuid.New()

	token, err := service.GenerateAccessToken(userID, "jane@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "membercard-sync-test", claims.Issuer)
}

func TestJWTService_ValidateAccessToken_Errors(t *testing.T) {
	service := newTestJWTService()

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-different-secret-also-32-chars-xx",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "membercard-sync-test",
		})
		token, err := other.GenerateAccessToken(uuid.New(), "")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars-long",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "membercard-sync-test",
		})
		token, err := expired.GenerateAccessToken(uuid.New(), "")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			TokenType: TokenTypeAccess,
		}
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token, err := raw.SignedString([]byte("test-secret-key-at-least-32-chars-long"))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("wrong token type", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			UserID:    uuid.New().String(),
			TokenType: TokenType("refresh"),
		}
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token, err := raw.SignedString([]byte("test-secret-key-at-least-32-chars-long"))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}

func TestClaims_GetIssuedAtTime(t *testing.T) {
	var c Claims
	assert.True(t, c.GetIssuedAtTime().IsZero())

	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	assert.WithinDuration(t, now, c.GetIssuedAtTime(), time.Second)
}
