package middleware

import (
	"strings"

	"github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/reqctx"
	"github.com/goadmin/pkg/response"
	"github.com/gofiber/fiber/v2"
)

// bearerPrefix 令牌方案前缀
const bearerPrefix = "Bearer "

// TenantAuth 令牌与租户认证中间件
//
// 每个请求挂载一份独立的请求上下文，请求结束时无条件清除。
// 令牌缺失时仅当路径命中豁免模式才放行；令牌解析出的租户与
// 请求头租户同时存在时必须完全一致。
func TenantAuth(checker *auth.Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := reqctx.New()
		reqctx.Attach(c, rc)
		defer reqctx.Clear(c)

		authCfg := config.GetAuth()
		path := c.Path()

		// 1. 提取令牌，必须带方案前缀
		header := c.Get(authCfg.TokenHeader())
		var token string
		if header != "" {
			if !strings.HasPrefix(header, bearerPrefix) {
				return response.FromError(c, errors.Unauthenticated("Authorization header value is not a Bearer token"))
			}
			token = strings.TrimPrefix(header, bearerPrefix)
		}

		// 2. 令牌缺失：命中豁免模式则继续（无身份），否则拒绝
		if token == "" && !authCfg.IsIgnoredAuth(path) {
			return response.FromError(c, errors.Unauthenticated("No Authorization header"))
		}

		// 3. 令牌存在时走缓存/权威校验
		var tokenTenantID string
		hasTokenTenant := false
		if token != "" {
			verified, err := checker.CheckToken(c.UserContext(), token)
			if err != nil {
				return response.FromError(c, err)
			}
			rc.SetToken(token)
			rc.SetLoginID(verified.LoginID)
			if verified.TenantID != "" {
				tokenTenantID = verified.TenantID
				hasTokenTenant = true
			}
		}

		// 4. 提取租户：缺失时命中豁免模式才放行
		tenantID := c.Get(authCfg.TenantHeader())
		if tenantID == "" {
			if !authCfg.IsIgnoredTenant(path) {
				return response.FromError(c, errors.Unauthenticated("No Tenant header"))
			}
			rc.SetIgnoreTenant(true)
			return c.Next()
		}

		// 5. 令牌租户与请求头租户必须一致；仅有请求头时独立校验租户
		if hasTokenTenant {
			if tokenTenantID != tenantID {
				return response.FromError(c, errors.Unauthenticated("Token tenant id mismatch"))
			}
		} else {
			if _, err := checker.CheckTenant(c.UserContext(), tenantID); err != nil {
				return response.FromError(c, err)
			}
		}
		rc.SetTenantID(tenantID)

		return c.Next()
	}
}
