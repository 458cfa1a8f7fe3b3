package services

import (
	"context"
	"testing"
	"time"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenEnv(t *testing.T, cfg *config.Config) (*TokenService, *models.User) {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		PasswordHash: "x",
		Role:         "user",
	}
	require.NoError(t, s.CreateUser(user))

	return NewTokenService(cfg, s), user
}

func TestIssueAndValidatePair(t *testing.T) {
	cfg := flowTestConfig()
	svc, user := newTokenEnv(t, cfg)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(cfg.JWTExpiration.Seconds()), pair.ExpiresIn)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)

	// a refresh token is not an access token
	_, err = svc.Validate(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateGarbage(t *testing.T) {
	svc, _ := newTokenEnv(t, flowTestConfig())

	_, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	cfg := flowTestConfig()
	cfg.JWTExpiration = -time.Minute
	svc, user := newTokenEnv(t, cfg)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	_, err = svc.Validate(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	cfg := flowTestConfig()
	svc, user := newTokenEnv(t, cfg)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	otherCfg := flowTestConfig()
	otherCfg.JWTSecret = "different-secret"
	other, _ := newTokenEnv(t, otherCfg)

	_, err = other.Validate(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	cfg := flowTestConfig()
	svc, user := newTokenEnv(t, cfg)

	pair, err := svc.IssuePair(user)
	require.NoError(t, err)

	fresh, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, fresh.AccessToken)

	claims, err := svc.Validate(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// an access token cannot be used to refresh
	_, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
