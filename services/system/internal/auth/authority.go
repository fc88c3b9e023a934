package auth

import (
	"context"

	pkgauth "github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/services/system/internal/tenant"
)

// LocalTokenAuthority 本地令牌权威来源，查访问令牌表
type LocalTokenAuthority struct {
	tokens TokenRepository
}

// NewLocalTokenAuthority 创建本地令牌权威来源
func NewLocalTokenAuthority(tokens TokenRepository) *LocalTokenAuthority {
	return &LocalTokenAuthority{tokens: tokens}
}

// FindToken 查找令牌记录
func (a *LocalTokenAuthority) FindToken(ctx context.Context, token string) (*pkgauth.VerifiedToken, error) {
	record, err := a.tokens.FindByToken(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "查询访问令牌失败")
	}
	if record == nil {
		return nil, errors.Unauthenticated("Token invalid")
	}
	return &pkgauth.VerifiedToken{
		LoginID:     record.UserID,
		TenantID:    record.TenantID,
		AccessToken: record.Token,
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

// LocalTenantAuthority 本地租户权威来源，查租户表
type LocalTenantAuthority struct {
	tenants tenant.Repository
}

// NewLocalTenantAuthority 创建本地租户权威来源
func NewLocalTenantAuthority(tenants tenant.Repository) *LocalTenantAuthority {
	return &LocalTenantAuthority{tenants: tenants}
}

// FindTenant 查找租户记录
func (a *LocalTenantAuthority) FindTenant(ctx context.Context, tenantID string) (*pkgauth.TenantInfo, error) {
	record, err := a.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "查询租户失败")
	}
	if record == nil {
		return nil, errors.Unauthenticated("Tenant not found")
	}
	return &pkgauth.TenantInfo{
		ID:        record.ID,
		Name:      record.Name,
		Status:    record.Status,
		Websites:  record.Website,
		ExpiresAt: record.ExpireTime,
	}, nil
}
