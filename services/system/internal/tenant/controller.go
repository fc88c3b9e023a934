package tenant

import (
	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/response"
	"github.com/goadmin/pkg/router"
	"github.com/gofiber/fiber/v2"
)

// Controller 租户控制器
type Controller struct {
	repo Repository
}

// NewController 创建租户控制器
func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string {
	return "/system/tenant"
}

// Routes 路由配置
func (c *Controller) Routes(middlewares map[string]fiber.Handler) []router.Route {
	return []router.Route{
		{Method: fiber.MethodGet, Path: "/get-by-website", Handler: c.GetByWebsite},
		{Method: fiber.MethodGet, Path: "/get-id-by-name", Handler: c.GetIDByName},
	}
}

// GetByWebsite 根据站点域名获取租户
func (c *Controller) GetByWebsite(ctx *fiber.Ctx) error {
	website := ctx.Query("website")
	if website == "" {
		return response.FromError(ctx, errors.Validation("website is required"))
	}

	tenant, err := c.repo.FindByWebsite(ctx.UserContext(), website)
	if err != nil {
		return response.FromError(ctx, err)
	}
	if tenant == nil || !tenant.Status.IsEnable() {
		// 停用租户对外等同于不存在
		return response.Success(ctx, nil)
	}
	return response.Success(ctx, tenant)
}

// GetIDByName 根据名称获取租户ID
func (c *Controller) GetIDByName(ctx *fiber.Ctx) error {
	name := ctx.Query("name")
	if name == "" {
		return response.FromError(ctx, errors.Validation("name is required"))
	}

	tenant, err := c.repo.FindByName(ctx.UserContext(), name)
	if err != nil {
		return response.FromError(ctx, err)
	}
	if tenant == nil {
		return response.Success(ctx, nil)
	}
	return response.Success(ctx, tenant.ID)
}
