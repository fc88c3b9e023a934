package auth

import (
	"context"
	"time"

	pkgauth "github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/reqctx"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/system/internal/model"
	"github.com/goadmin/services/system/internal/permission"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// 令牌生成冲突时的最大重试次数
const maxTokenAttempts = 3

// Controller 认证控制器
type Controller struct {
	users       UserRepository
	tokens      TokenRepository
	tokenAuth   pkgauth.TokenAuthority
	tenantAuth  pkgauth.TenantAuthority
	checker     *pkgauth.Checker
	permissions *permission.Service
}

// NewController 创建认证控制器
func NewController(
	users UserRepository,
	tokens TokenRepository,
	tokenAuth pkgauth.TokenAuthority,
	tenantAuth pkgauth.TenantAuthority,
	checker *pkgauth.Checker,
	permissions *permission.Service,
) *Controller {
	return &Controller{
		users:       users,
		tokens:      tokens,
		tokenAuth:   tokenAuth,
		tenantAuth:  tenantAuth,
		checker:     checker,
		permissions: permissions,
	}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/system/auth"
}

// Routes 路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	requireLogin := []fiber.Handler{}
	if h, ok := middlewares["login"]; ok {
		requireLogin = append(requireLogin, h)
	}
	return []router.Route{
		{Method: fiber.MethodPost, Path: "/login", Handler: c.Login},
		{Method: fiber.MethodPost, Path: "/logout", Handler: c.Logout},
		{Method: fiber.MethodGet, Path: "/get-permission-info", Handler: c.GetPermissionInfo, Middlewares: requireLogin},
		{Method: fiber.MethodPost, Path: "/check-token", Handler: c.CheckToken},
		{Method: fiber.MethodPost, Path: "/check-tenant", Handler: c.CheckTenant},
	}
}

// Login 登录，校验口令后签发不透明访问令牌
func (c *Controller) Login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.FromError(ctx, errors.Validation(err.Error()))
	}
	if req.Username == "" || req.Password == "" {
		return response.FromError(ctx, errors.Validation("用户名和密码不能为空"))
	}

	tenantID, err := reqctx.TenantID(ctx.UserContext())
	if err != nil {
		return response.FromError(ctx, err)
	}

	resp, err := c.login(ctx.UserContext(), tenantID, &req)
	if err != nil {
		return response.FromError(ctx, err)
	}
	return response.Success(ctx, resp)
}

// login 登录业务逻辑
func (c *Controller) login(ctx context.Context, tenantID string, req *LoginRequest) (*LoginResponse, error) {
	user, err := c.users.FindByUsername(ctx, tenantID, req.Username)
	if err != nil {
		return nil, errors.Wrap(err, "查询用户失败")
	}
	if user == nil || !pkgauth.CheckPassword(req.Password, user.Password) {
		return nil, errors.Unauthenticated("用户名或密码错误")
	}
	if !user.Status.IsEnable() {
		return nil, errors.Unauthenticated("用户已停用")
	}

	expiresAt := time.Now().Add(config.GetAuth().TokenExpiration())
	record, err := c.mintToken(ctx, user, expiresAt)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		TenantID:    record.TenantID,
		UserID:      record.UserID,
		AccessToken: record.Token,
		ExpiresTime: record.ExpiresAt,
	}, nil
}

// mintToken 生成并持久化访问令牌，冲突时重新生成
func (c *Controller) mintToken(ctx context.Context, user *model.User, expiresAt time.Time) (*model.AccessToken, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		record := &model.AccessToken{
			Token:     utils.UUIDWithoutDash(),
			UserID:    user.ID,
			TenantID:  user.TenantID,
			ExpiresAt: expiresAt,
		}

		exists, err := c.tokens.Exists(ctx, map[string]interface{}{"token": record.Token})
		if err != nil {
			return nil, errors.Wrap(err, "查询访问令牌失败")
		}
		if exists {
			continue
		}

		if err := c.tokens.Create(ctx, record); err != nil {
			return nil, errors.Wrap(err, "保存访问令牌失败")
		}
		return record, nil
	}
	return nil, errors.Internalf("生成访问令牌失败")
}

// Logout 登出，删除令牌记录和缓存
func (c *Controller) Logout(ctx *fiber.Ctx) error {
	token := reqctx.Token(ctx.UserContext())
	if token == "" {
		return response.Success(ctx, nil)
	}

	if err := c.tokens.DeleteByToken(ctx.UserContext(), token); err != nil {
		return response.FromError(ctx, errors.Wrap(err, "删除访问令牌失败"))
	}
	if err := c.checker.InvalidateToken(ctx.UserContext(), token); err != nil {
		// 缓存条目带TTL，删除失败只延迟失效
		logger.Warn("删除令牌缓存失败", zap.Error(err))
	}
	return response.Success(ctx, nil)
}

// GetPermissionInfo 获取当前用户的权限聚合信息
func (c *Controller) GetPermissionInfo(ctx *fiber.Ctx) error {
	loginID, err := reqctx.LoginID(ctx.UserContext())
	if err != nil {
		return response.FromError(ctx, err)
	}

	info, err := c.permissions.GetPermissionInfo(ctx.UserContext(), loginID)
	if err != nil {
		return response.FromError(ctx, err)
	}
	return response.Success(ctx, info)
}

// CheckToken 令牌校验接口，远程部署的校验端调用
func (c *Controller) CheckToken(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return response.FromError(ctx, errors.Validation("token is required"))
	}

	verified, err := c.tokenAuth.FindToken(ctx.UserContext(), token)
	if err != nil {
		return response.FromError(ctx, err)
	}
	return response.Success(ctx, verified)
}

// CheckTenant 租户校验接口，远程部署的校验端调用
func (c *Controller) CheckTenant(ctx *fiber.Ctx) error {
	tenantID := ctx.Query("tenantId")
	if tenantID == "" {
		return response.FromError(ctx, errors.Validation("tenantId is required"))
	}

	info, err := c.tenantAuth.FindTenant(ctx.UserContext(), tenantID)
	if err != nil {
		return response.FromError(ctx, err)
	}
	return response.Success(ctx, info)
}
