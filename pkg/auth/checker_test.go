package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/enums"
	"github.com/goadmin/pkg/errors"
)

type fakeTokenAuthority struct {
	calls int
	token *VerifiedToken
	err   error
}

func (f *fakeTokenAuthority) FindToken(ctx context.Context, token string) (*VerifiedToken, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

type fakeTenantAuthority struct {
	calls  int
	tenant *TenantInfo
	err    error
}

func (f *fakeTenantAuthority) FindTenant(ctx context.Context, tenantID string) (*TenantInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tenant, nil
}

func newTestChecker(t *testing.T, tokens TokenAuthority, tenants TenantAuthority) (*Checker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := database.NewCacheWithClient(client, "goadmin")
	return NewChecker(cache, tokens, tenants), mr
}

func TestCheckTokenCachesUntilExpiry(t *testing.T) {
	authority := &fakeTokenAuthority{token: &VerifiedToken{
		LoginID:     "u1",
		TenantID:    "t1",
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	checker, mr := newTestChecker(t, authority, &fakeTenantAuthority{})

	first, err := checker.CheckToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", first.LoginID)
	assert.Equal(t, 1, authority.calls)

	// 第二次命中缓存，不再访问权威来源
	second, err := checker.CheckToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, first.LoginID, second.LoginID)
	assert.Equal(t, 1, authority.calls)

	// 缓存TTL不超过权威过期时间
	ttl := mr.TTL("goadmin:check_token:tok")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestCheckTokenExpiredNotCached(t *testing.T) {
	authority := &fakeTokenAuthority{token: &VerifiedToken{
		LoginID:   "u1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}}
	checker, mr := newTestChecker(t, authority, &fakeTenantAuthority{})

	_, err := checker.CheckToken(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
	assert.False(t, mr.Exists("goadmin:check_token:stale"))

	// 过期记录不进缓存，每次都会再打权威来源
	_, err = checker.CheckToken(context.Background(), "stale")
	require.Error(t, err)
	assert.Equal(t, 2, authority.calls)
}

func TestCheckTokenAuthorityFailure(t *testing.T) {
	authority := &fakeTokenAuthority{err: errors.Unauthenticated("Token不存在")}
	checker, _ := newTestChecker(t, authority, &fakeTenantAuthority{})

	_, err := checker.CheckToken(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
}

func TestCheckTenantDisabledNotCached(t *testing.T) {
	authority := &fakeTenantAuthority{tenant: &TenantInfo{
		ID:        "t1",
		Status:    enums.StatusDisable,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	checker, mr := newTestChecker(t, &fakeTokenAuthority{}, authority)

	_, err := checker.CheckTenant(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
	assert.False(t, mr.Exists("goadmin:check_tenant:t1"))
}

func TestCheckTenantEnabledCached(t *testing.T) {
	authority := &fakeTenantAuthority{tenant: &TenantInfo{
		ID:        "t1",
		Status:    enums.StatusEnable,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}}
	checker, _ := newTestChecker(t, &fakeTokenAuthority{}, authority)

	first, err := checker.CheckTenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", first.ID)

	_, err = checker.CheckTenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, authority.calls)
}

func TestCheckTenantExpired(t *testing.T) {
	authority := &fakeTenantAuthority{tenant: &TenantInfo{
		ID:        "t1",
		Status:    enums.StatusEnable,
		ExpiresAt: time.Now().Add(-time.Second),
	}}
	checker, mr := newTestChecker(t, &fakeTokenAuthority{}, authority)

	_, err := checker.CheckTenant(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
	assert.False(t, mr.Exists("goadmin:check_tenant:t1"))
}

func TestInvalidateToken(t *testing.T) {
	authority := &fakeTokenAuthority{token: &VerifiedToken{
		LoginID:   "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	checker, mr := newTestChecker(t, authority, &fakeTenantAuthority{})

	_, err := checker.CheckToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, mr.Exists("goadmin:check_token:tok"))

	require.NoError(t, checker.InvalidateToken(context.Background(), "tok"))
	assert.False(t, mr.Exists("goadmin:check_token:tok"))
}
