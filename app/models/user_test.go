package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateAPIKey(t *testing.T) {
	u := &User{}
	key, err := u.GenerateAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	// Only the hash is stored; the plaintext never is.
	assert.Equal(t, HashAPIKey(key), u.APIKeyHash)
	assert.NotContains(t, u.APIKeyHash, key)

	key2, err := u.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, key2)
}

func TestCreateUserDefaults(t *testing.T) {
	companyID := uint(7)
	u, err := CreateUser(&companyID, "Dana Field", "dana@example.com", "longenough", ROLE_TECHNICIAN)
	require.NoError(t, err)

	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.Equal(t, ROLE_TECHNICIAN, u.Role)
	require.NotNil(t, u.CompanyID)
	assert.Equal(t, uint(7), *u.CompanyID)
	assert.True(t, u.CheckPassword("longenough"))
}

func TestIsPlatformAdmin(t *testing.T) {
	assert.True(t, (&User{Role: ROLE_PLATFORM_ADMIN}).IsPlatformAdmin())
	assert.False(t, (&User{Role: ROLE_ADMIN}).IsPlatformAdmin())
}
