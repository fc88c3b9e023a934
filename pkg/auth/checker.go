package auth

import (
	"context"
	"time"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/logger"
	"go.uber.org/zap"
)

// 缓存键命名空间
const (
	cacheKeyToken  = "check_token:"
	cacheKeyTenant = "check_tenant:"
)

// TokenAuthority 令牌权威来源
// 本地部署查本地令牌表，远程部署调用校验接口
type TokenAuthority interface {
	FindToken(ctx context.Context, token string) (*VerifiedToken, error)
}

// TenantAuthority 租户权威来源
type TenantAuthority interface {
	FindTenant(ctx context.Context, tenantID string) (*TenantInfo, error)
}

// Checker 令牌与租户校验器，缓存优先、权威来源兜底
//
// 缓存TTL由权威记录的绝对过期时间推导，缓存条目永远不会比权威
// 过期时间活得更久。同一个缺失键上的并发请求可能都打到权威来源
// 并各自回写缓存，幂等覆盖，无需分布式锁。
type Checker struct {
	cache   *database.Cache
	tokens  TokenAuthority
	tenants TenantAuthority
}

// NewChecker 创建校验器
func NewChecker(cache *database.Cache, tokens TokenAuthority, tenants TenantAuthority) *Checker {
	return &Checker{
		cache:   cache,
		tokens:  tokens,
		tenants: tenants,
	}
}

// CheckToken 校验令牌，返回可信的令牌声明
func (c *Checker) CheckToken(ctx context.Context, token string) (*VerifiedToken, error) {
	key := cacheKeyToken + token

	var cached VerifiedToken
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		// 缓存读取失败不阻断校验，落到权威来源
		logger.Warn("token cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	verified, err := c.tokens.FindToken(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := remainingTTL(verified.ExpiresAt)
	if ttl <= 0 {
		return nil, errors.Unauthenticated("Token expired")
	}
	if err := c.cache.SetJSONWithTTL(ctx, key, verified, ttl); err != nil {
		logger.Warn("token cache write failed", zap.Error(err))
	}
	return verified, nil
}

// CheckTenant 校验租户，返回可信的租户信息
func (c *Checker) CheckTenant(ctx context.Context, tenantID string) (*TenantInfo, error) {
	key := cacheKeyTenant + tenantID

	var cached TenantInfo
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warn("tenant cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	tenant, err := c.tenants.FindTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// 停用的租户无论是否过期都校验失败，且不写缓存
	if !tenant.Status.IsEnable() {
		return nil, errors.Unauthenticated("Tenant disabled")
	}

	ttl := remainingTTL(tenant.ExpiresAt)
	if ttl <= 0 {
		return nil, errors.Unauthenticated("Tenant expired")
	}
	if err := c.cache.SetJSONWithTTL(ctx, key, tenant, ttl); err != nil {
		logger.Warn("tenant cache write failed", zap.Error(err))
	}
	return tenant, nil
}

// InvalidateToken 删除令牌缓存（登出时调用）
func (c *Checker) InvalidateToken(ctx context.Context, token string) error {
	return c.cache.Del(ctx, cacheKeyToken+token)
}

// remainingTTL 以整秒计算剩余有效期
func remainingTTL(expiresAt time.Time) int64 {
	return int64(time.Until(expiresAt) / time.Second)
}
