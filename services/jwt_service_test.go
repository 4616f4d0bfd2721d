package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saurus21/agua-rural-api/config"
)

func testJWTConfig() *config.Config {
	return &config.Config{
		JWTSecretKey: "test-secret",
		JWTIssuer:    "agua-rural-api",
		JWTAudience:  "agua-rural-app",
	}
}

func TestGenerateAndExtractClaims(t *testing.T) {
	svc := NewJWTService(testJWTConfig())

	token, err := svc.GenerateToken(42, "maria@aguarural.cl", "lector")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "maria@aguarural.cl", claims.Email)
	assert.Equal(t, "lector", claims.Role)
	assert.Equal(t, "agua-rural-api", claims.Issuer)
	assert.Contains(t, claims.Audience, "agua-rural-app")
}

func TestTokenExpiresInTwentyFourHours(t *testing.T) {
	svc := NewJWTService(testJWTConfig())

	token, err := svc.GenerateToken(1, "a@b.cl", "admin")
	require.NoError(t, err)

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)

	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 24*time.Hour, lifetime)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	token, err := svc.GenerateToken(1, "a@b.cl", "admin")
	require.NoError(t, err)

	other := NewJWTService(&config.Config{
		JWTSecretKey: "different-secret",
		JWTIssuer:    "agua-rural-api",
		JWTAudience:  "agua-rural-app",
	})
	_, err = other.ExtractClaims(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	foreign := NewJWTService(&config.Config{
		JWTSecretKey: "test-secret",
		JWTIssuer:    "some-other-api",
		JWTAudience:  "agua-rural-app",
	})
	token, err := foreign.GenerateToken(1, "a@b.cl", "admin")
	require.NoError(t, err)

	svc := NewJWTService(testJWTConfig())
	_, err = svc.ExtractClaims(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	foreign := NewJWTService(&config.Config{
		JWTSecretKey: "test-secret",
		JWTIssuer:    "agua-rural-api",
		JWTAudience:  "some-other-app",
	})
	token, err := foreign.GenerateToken(1, "a@b.cl", "admin")
	require.NoError(t, err)

	svc := NewJWTService(testJWTConfig())
	_, err = svc.ExtractClaims(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSigningMethod(t *testing.T) {
	svc := NewJWTService(testJWTConfig())

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: 1})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ExtractClaims(token)
	assert.Error(t, err)
}
