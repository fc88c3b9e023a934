package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/reqctx"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPermissionSource struct {
	permissions map[string][]string
	roles       map[string][]string
}

func (s *stubPermissionSource) Permissions(_ context.Context, loginID string) ([]string, error) {
	return s.permissions[loginID], nil
}

func (s *stubPermissionSource) RoleCodes(_ context.Context, loginID string) ([]string, error) {
	return s.roles[loginID], nil
}

// withIdentity 在守卫之前挂载指定身份，loginID为空表示匿名请求
func withIdentity(loginID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := reqctx.New()
		if loginID != "" {
			rc.SetLoginID(loginID)
		}
		reqctx.Attach(c, rc)
		defer reqctx.Clear(c)
		return c.Next()
	}
}

func newGuardApp(loginID string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(withIdentity(loginID))
	app.Get("/probe", guard, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func guardStatus(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireLogin(t *testing.T) {
	assert.Equal(t, http.StatusOK, guardStatus(t, newGuardApp("user-1", RequireLogin())))
	assert.Equal(t, http.StatusUnauthorized, guardStatus(t, newGuardApp("", RequireLogin())))
}

func TestRequirePermission(t *testing.T) {
	source := &stubPermissionSource{
		permissions: map[string][]string{
			"user-1": {"system:user:list", "system:user:query"},
		},
	}

	assert.Equal(t, http.StatusOK,
		guardStatus(t, newGuardApp("user-1", RequirePermission(source, "system:user:list"))))
	assert.Equal(t, http.StatusForbidden,
		guardStatus(t, newGuardApp("user-1", RequirePermission(source, "system:user:remove"))))
	assert.Equal(t, http.StatusUnauthorized,
		guardStatus(t, newGuardApp("", RequirePermission(source, "system:user:list"))))
}

func TestRequireRole(t *testing.T) {
	config.SetForTesting(&config.Config{})
	source := &stubPermissionSource{
		roles: map[string][]string{
			"user-1": {"operator"},
			"root":   {"super_admin"},
		},
	}

	assert.Equal(t, http.StatusOK,
		guardStatus(t, newGuardApp("user-1", RequireRole(source, "operator"))))
	assert.Equal(t, http.StatusForbidden,
		guardStatus(t, newGuardApp("user-1", RequireRole(source, "admin"))))

	// 超级管理员角色对任何角色守卫直接放行
	assert.Equal(t, http.StatusOK,
		guardStatus(t, newGuardApp("root", RequireRole(source, "admin"))))
}
