package main

import (
	"context"
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
	"github.com/goadmin/services/gateway/internal/gateway"
	"go.uber.org/zap"
)

const (
	appName     = "gateway"
	serviceName = "gateway-service"
)

// 路由同步周期，与注册信息TTL配合保证过期节点及时摘除
const routeSyncInterval = 10 * time.Second

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

	// 初始化Redis
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatal("初始化Redis失败", zap.Error(err))
	}

	addr := cfg.Server.Addr()
	cache := database.NewCache(cfg.Redis.KeyPrefix())

	// 创建 Redis 注册中心
	reg := pkgRegistry.NewRedisRegistry(cache)

	// 创建网关
	gw := gateway.NewGateway(reg)

	// 网关侧令牌与租户校验走远程校验协议，由系统服务提供权威来源
	authCfg := config.GetAuth()
	remote := pkgauth.NewRemoteAuthority(authCfg.TokenCheckURL, authCfg.TenantCheckURL)
	checker := pkgauth.NewChecker(cache, remote, remote)

	// 创建Fiber应用
	app := fiber.New()
	app.Use(middleware.Recovery())
	app.Use(middleware.ErrorHandler())
	app.Use(middleware.Cors())
	app.Use(middleware.RequestID())

	app.Get("/health", gw.HealthCheck)
	app.Get("/services", gw.GetServicesStatus)

	// 认证后代理
	app.Use(gateway.APIVersion, middleware.TenantAuth(checker))
	app.All(gateway.APIVersion+"/*", gw.GetHandler())

	err := lifecycle.New(serviceName).
		Node(serviceName + "-1").
		Addr(addr).
		App(app).
		OnStart(func(s *lifecycle.Service) error {
			if err := gw.SyncRoutes(); err != nil {
				logger.Warn("同步服务路由失败", zap.Error(err))
			}
			gw.SyncLoop(routeSyncInterval)
			return nil
		}).
		OnReady(func(s *lifecycle.Service) error {
			logger.Info("网关服务就绪", zap.String("addr", addr))
			return nil
		}).
		OnStop(func(s *lifecycle.Service) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := gw.Shutdown(ctx); err != nil {
				logger.Error("网关关闭异常", zap.Error(err))
			}
			logger.Info("网关服务正在清理资源...")
			return database.CloseRedis()
		}).
		On(lifecycle.EventStopped, func(msg *lifecycle.EventMessage, s *lifecycle.Service) {
			if msg.Service == s.Name() {
				return
			}
			logger.Info("检测到服务下线", zap.String("service", msg.Service))
		}).
		Run()

	if err != nil {
		logger.Fatal("服务运行失败", zap.Error(err))
	}
}
