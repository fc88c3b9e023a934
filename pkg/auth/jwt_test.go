package auth

import (
	"context"
	"testing"
	"time"

	"github.com/goadmin/pkg/config"
	goerrors "github.com/goadmin/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(expire int64) *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret: "test-secret",
		Issuer: "goadmin-test",
		Expire: expire,
	})
}

func TestJWTGenerateAndParse(t *testing.T) {
	manager := newTestJWTManager(3600)

	token, err := manager.GenerateToken("user-1", "admin", "tenant-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "goadmin-test", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTParseMalformed(t *testing.T) {
	manager := newTestJWTManager(3600)

	_, err := manager.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestJWTParseWrongSecret(t *testing.T) {
	manager := newTestJWTManager(3600)
	other := NewJWTManager(&config.JWTConfig{Secret: "other-secret"})

	token, err := other.GenerateToken("user-1", "admin", "tenant-1")
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTParseExpired(t *testing.T) {
	manager := newTestJWTManager(3600)
	manager.expireIn = -time.Minute

	token, err := manager.GenerateToken("user-1", "admin", "tenant-1")
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTCreateTokenInfo(t *testing.T) {
	manager := newTestJWTManager(7200)

	info, err := manager.CreateTokenInfo("user-1", "admin", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", info.TokenType)
	assert.Equal(t, int64(7200), info.ExpiresIn)
	assert.NotEmpty(t, info.AccessToken)
}

func TestJWTAuthorityFindToken(t *testing.T) {
	manager := newTestJWTManager(3600)
	authority := NewJWTAuthority(manager)

	token, err := manager.GenerateToken("user-1", "admin", "tenant-1")
	require.NoError(t, err)

	verified, err := authority.FindToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", verified.LoginID)
	assert.Equal(t, "tenant-1", verified.TenantID)
	assert.Equal(t, token, verified.AccessToken)
	assert.True(t, verified.ExpiresAt.After(time.Now()))

	_, err = authority.FindToken(context.Background(), "garbage")
	assert.True(t, goerrors.IsKind(err, goerrors.KindUnauthenticated))
}
