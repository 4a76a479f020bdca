package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinyldex/internal/models"
	"vinyldex/internal/test"
)

const testJWTSecret = "test-secret-not-for-production"

func TestAuthService_Login(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	auth := NewAuthService(db, testJWTSecret, 15*time.Minute, 14*24*time.Hour)
	test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")

	t.Run("valid credentials", func(t *testing.T) {
		token, user, err := auth.Login("collector", "Str0ngPassw0rd!")
		assert.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.NotEmpty(t, token.RefreshToken)
		assert.EqualValues(t, (15 * time.Minute).Seconds(), token.ExpiresIn)
		assert.Equal(t, "collector", user.Username)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auth.Login("collector", "wrong")
		assert.EqualError(t, err, "invalid credentials")
	})

	t.Run("unknown username gets the same error", func(t *testing.T) {
		_, _, err := auth.Login("nobody", "whatever")
		assert.EqualError(t, err, "invalid credentials")
	})
}

func TestAuthService_AccountLockout(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	auth := NewAuthService(db, testJWTSecret, 15*time.Minute, 14*24*time.Hour)
	created := test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")

	for i := 0; i < maxFailedLoginAttempts; i++ {
		_, _, err := auth.Login("collector", "wrong")
		require.Error(t, err)
	}

	var user models.User
	require.NoError(t, db.First(&user, created.ID).Error)
	require.NotNil(t, user.LockedUntil)
	assert.True(t, user.LockedUntil.After(time.Now()))

	// Even the right password is refused while locked
	_, _, err := auth.Login("collector", "Str0ngPassw0rd!")
	assert.EqualError(t, err, "account locked")

	// An expired lock no longer blocks login
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	require.NoError(t, db.Save(&user).Error)

	_, _, err = auth.Login("collector", "Str0ngPassw0rd!")
	assert.NoError(t, err)

	// Reload into a fresh struct: scanning a NULL column leaves a stale
	// pointer in a reused destination
	var unlocked models.User
	require.NoError(t, db.First(&unlocked, created.ID).Error)
	assert.Nil(t, unlocked.LockedUntil)
	assert.Zero(t, unlocked.FailedLoginAttempts)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	auth := NewAuthService(db, testJWTSecret, 15*time.Minute, 14*24*time.Hour)
	test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")

	token, _, err := auth.Login("collector", "Str0ngPassw0rd!")
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		refreshed, user, err := auth.RefreshTokens(token.RefreshToken)
		assert.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Equal(t, "collector", user.Username)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := auth.RefreshTokens("not-a-token")
		assert.Error(t, err)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		stranger := NewAuthService(db, "different-secret", 15*time.Minute, 14*24*time.Hour)
		foreign, _, err := stranger.Login("collector", "Str0ngPassw0rd!")
		require.NoError(t, err)

		_, _, err = auth.RefreshTokens(foreign.RefreshToken)
		assert.Error(t, err)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	auth := NewAuthService(db, testJWTSecret, 15*time.Minute, 14*24*time.Hour)
	created := test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")

	token, _, err := auth.Login("collector", "Str0ngPassw0rd!")
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		authUser, err := auth.ValidateToken(token.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, authUser.ID)
		assert.Equal(t, "collector", authUser.Username)
		assert.False(t, authUser.IsAdmin)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := auth.generateToken(*created, -time.Minute)
		require.NoError(t, err)

		_, err = auth.ValidateToken(expired)
		assert.Error(t, err)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := auth.ValidateToken(token.AccessToken + "x")
		assert.Error(t, err)
	})
}
