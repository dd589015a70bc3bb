package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rightbridge-server/config"
)

func setupTestConfig() {
	config.AppConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpiryHours: 1,
		},
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPasswordHash("s3cret-password", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
	assert.False(t, CheckPasswordHash("s3cret-password", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	setupTestConfig()

	token, err := GenerateToken(42, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	setupTestConfig()

	_, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	setupTestConfig()
	token, err := GenerateToken(7, "customer")
	require.NoError(t, err)

	config.AppConfig.JWT.Secret = "different-secret"
	_, err = VerifyToken(token)
	assert.Error(t, err)
}
