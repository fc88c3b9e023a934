package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	pkgauth "github.com/goadmin/pkg/auth"
	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/lifecycle"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/middleware"
	pkgRegistry "github.com/goadmin/pkg/registry"
	"github.com/goadmin/pkg/router"
	"github.com/goadmin/services/system/internal/auth"
	"github.com/goadmin/services/system/internal/model"
	"github.com/goadmin/services/system/internal/permission"
	"github.com/goadmin/services/system/internal/tenant"
	"go.uber.org/zap"
)

const (
	appName     = "system"
	serviceName = "system-service"
	basePath    = "system"
)

func main() {
	// 加载配置
	if err := config.Load(appName); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}

	// 初始化Redis
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatal("初始化Redis失败", zap.Error(err))
	}

	addr := cfg.Server.Addr()
	cache := database.NewCache(cfg.Redis.KeyPrefix())

	// 创建 Redis 注册中心
	reg := pkgRegistry.NewRedisRegistry(cache)

	// 构建服务注册信息
	svcInfo := pkgRegistry.NewServiceBuilder(serviceName, "v1.0.0").
		WithAddress(addr).
		WithBasePath(basePath).
		Build()

	// 创建Fiber应用
	app := fiber.New()

	// 全局中间件
	app.Use(middleware.Recovery())
	app.Use(middleware.ErrorHandler())
	app.Use(middleware.Cors())
	app.Use(middleware.RequestID())

	// 健康检查（认证豁免路径在配置的 ignoredUrls 中声明）
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(200).JSON(fiber.Map{
			"status":  "healthy",
			"service": serviceName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// 创建并运行服务
	err := lifecycle.New(serviceName).
		Node(serviceName + "-1").
		Addr(addr).
		Registry(reg).
		RegInfo(svcInfo).
		App(app).
		OnStart(func(s *lifecycle.Service) error {
			// 数据库迁移
			if err := database.AutoMigrate(
				&model.User{}, &model.Role{}, &model.Menu{}, &model.Tenant{},
				&model.UserRole{}, &model.RoleMenu{}, &model.AccessToken{},
			); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}
			logger.Info("数据库迁移完成")

			// 仓储
			users := auth.NewUserRepository()
			tokens := auth.NewTokenRepository()
			tenants := tenant.NewRepository()

			// 按部署模式选择权威来源
			localTokens := auth.NewLocalTokenAuthority(tokens)
			localTenants := auth.NewLocalTenantAuthority(tenants)
			var tokenAuthority pkgauth.TokenAuthority = localTokens
			var tenantAuthority pkgauth.TenantAuthority = localTenants
			authCfg := config.GetAuth()
			switch authCfg.GetMode() {
			case "remote":
				remote := pkgauth.NewRemoteAuthority(authCfg.TokenCheckURL, authCfg.TenantCheckURL)
				tokenAuthority = remote
				tenantAuthority = remote
			case "jwt":
				tokenAuthority = pkgauth.NewJWTAuthority(pkgauth.NewJWTManager(&cfg.JWT))
			}
			logger.Info("认证模式", zap.String("mode", authCfg.GetMode()))

			checker := pkgauth.NewChecker(cache, tokenAuthority, tenantAuthority)

			// 认证管道：提取凭证、校验、挂载请求上下文
			app.Use(middleware.TenantAuth(checker))

			// 业务服务与控制器
			perms := permission.NewService(permission.NewRepository(database.Get()))
			authCtrl := auth.NewController(users, tokens, localTokens, localTenants, checker, perms)
			tenantCtrl := tenant.NewController(tenants)

			middlewares := map[string]fiber.Handler{
				"login": middleware.RequireLogin(),
			}
			router.Register(app, middlewares, authCtrl, tenantCtrl)
			return nil
		}).
		OnReady(func(s *lifecycle.Service) error {
			logger.Info("系统服务就绪", zap.String("addr", addr))
			return nil
		}).
		OnStop(func(s *lifecycle.Service) error {
			logger.Info("系统服务正在清理资源...")
			if err := database.Close(); err != nil {
				logger.Error("关闭数据库失败", zap.Error(err))
			}
			if err := database.CloseRedis(); err != nil {
				logger.Error("关闭Redis失败", zap.Error(err))
			}
			return nil
		}).
		On(lifecycle.EventReady, func(msg *lifecycle.EventMessage, s *lifecycle.Service) {
			if msg.Service == s.Name() {
				return
			}
			logger.Info("检测到服务就绪", zap.String("service", msg.Service))
		}).
		Run()

	if err != nil {
		logger.Fatal("服务运行失败", zap.Error(err))
	}
}
