package middleware

import (
	"context"

	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/reqctx"
	"github.com/goadmin/pkg/response"
	"github.com/gofiber/fiber/v2"
)

// PermissionSource 按登录身份查询权限与角色编码
type PermissionSource interface {
	Permissions(ctx context.Context, loginID string) ([]string, error)
	RoleCodes(ctx context.Context, loginID string) ([]string, error)
}

// RequireLogin 要求请求已通过令牌认证
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := reqctx.LoginID(c.UserContext()); err != nil {
			return response.FromError(c, err)
		}
		return c.Next()
	}
}

// RequirePermission 要求当前用户持有指定权限编码
func RequirePermission(source PermissionSource, code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loginID, err := reqctx.LoginID(c.UserContext())
		if err != nil {
			return response.FromError(c, err)
		}
		perms, err := source.Permissions(c.UserContext(), loginID)
		if err != nil {
			return response.FromError(c, err)
		}
		for _, p := range perms {
			if p == code {
				return c.Next()
			}
		}
		return response.Forbidden(c, "权限不足")
	}
}

// RequireRole 要求当前用户持有指定角色编码，超级管理员直接放行
func RequireRole(source PermissionSource, code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loginID, err := reqctx.LoginID(c.UserContext())
		if err != nil {
			return response.FromError(c, err)
		}
		roles, err := source.RoleCodes(c.UserContext(), loginID)
		if err != nil {
			return response.FromError(c, err)
		}
		superAdmin := config.GetAuth().SuperAdmin()
		for _, r := range roles {
			if r == code || r == superAdmin {
				return c.Next()
			}
		}
		return response.Forbidden(c, "权限不足")
	}
}
