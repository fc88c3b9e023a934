package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goadmin/pkg/logger"
	pkgRegistry "github.com/goadmin/pkg/registry"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

const (
	// APIVersion API版本前缀
	APIVersion = "/api/v1"
)

// Gateway API网关，按注册中心元数据把 /api/v1/{basePath}/* 代理到对应服务
type Gateway struct {
	registry registry.Registry
	routes   map[string]*ServiceRoute // key: 网关路径前缀
	breakers map[string]*CircuitBreaker
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// ServiceRoute 服务路由配置
type ServiceRoute struct {
	ServiceName string // 微服务名称
	PathPrefix  string // 网关路径前缀，如 /api/v1/system
}

// NewGateway 创建网关
func NewGateway(reg registry.Registry) *Gateway {
	return &Gateway{
		registry: reg,
		routes:   make(map[string]*ServiceRoute),
		breakers: make(map[string]*CircuitBreaker),
		stopChan: make(chan struct{}),
	}
}

// RegisterRoute 注册服务路由
func (g *Gateway) RegisterRoute(route *ServiceRoute) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[route.PathPrefix] = route
	logger.Info("注册路由",
		zap.String("service", route.ServiceName),
		zap.String("gateway_path", route.PathPrefix),
	)
}

// UnregisterRoute 注销服务路由
func (g *Gateway) UnregisterRoute(pathPrefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if route, exists := g.routes[pathPrefix]; exists {
		delete(g.routes, pathPrefix)
		logger.Info("注销路由",
			zap.String("service", route.ServiceName),
			zap.String("path", pathPrefix),
		)
	}
}

// SyncRoutes 从注册中心同步所有服务路由
func (g *Gateway) SyncRoutes() error {
	services, err := g.registry.ListServices()
	if err != nil {
		return err
	}

	alive := make(map[string]bool)
	for _, svc := range services {
		basePath := pkgRegistry.BasePath(svc)
		if basePath == "" {
			continue
		}
		prefix := fmt.Sprintf("%s/%s", APIVersion, basePath)
		alive[prefix] = true
		g.RegisterRoute(&ServiceRoute{
			ServiceName: svc.Name,
			PathPrefix:  prefix,
		})
	}

	// 注册信息带TTL，过期即下线，这里同步摘除对应路由
	g.mu.Lock()
	for prefix := range g.routes {
		if !alive[prefix] {
			delete(g.routes, prefix)
		}
	}
	g.mu.Unlock()
	return nil
}

// SyncLoop 周期性同步路由，直到 Shutdown
func (g *Gateway) SyncLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-g.stopChan:
				return
			case <-ticker.C:
				if err := g.SyncRoutes(); err != nil {
					logger.Warn("同步路由失败", zap.Error(err))
				}
			}
		}
	}()
}

// breaker 获取服务对应的熔断器
func (g *Gateway) breaker(serviceName string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	cb, ok := g.breakers[serviceName]
	if !ok {
		cb = NewCircuitBreaker(5, 10*time.Second)
		g.breakers[serviceName] = cb
	}
	return cb
}

// GetHandler 获取Fiber处理器
func (g *Gateway) GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		g.mu.RLock()
		var matchedRoute *ServiceRoute
		for prefix, route := range g.routes {
			if strings.HasPrefix(path, prefix) {
				matchedRoute = route
				break
			}
		}
		g.mu.RUnlock()

		if matchedRoute == nil {
			return c.Status(404).JSON(fiber.Map{"code": 404, "message": "服务未找到"})
		}

		cb := g.breaker(matchedRoute.ServiceName)
		if !cb.Allow() {
			return c.Status(503).JSON(fiber.Map{"code": 503, "message": "服务熔断中"})
		}

		// 服务发现
		services, err := g.registry.GetService(matchedRoute.ServiceName)
		if err != nil || len(services) == 0 {
			cb.Failure()
			logger.Error("服务发现失败",
				zap.String("service", matchedRoute.ServiceName),
				zap.Error(err),
			)
			return c.Status(503).JSON(fiber.Map{"code": 503, "message": "服务不可用"})
		}

		service := services[0]
		if len(service.Nodes) == 0 {
			cb.Failure()
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"code":    503,
				"message": "服务节点不可用",
			})
		}

		// 简单轮询负载均衡
		node := service.Nodes[time.Now().UnixNano()%int64(len(service.Nodes))]

		return g.proxyRequest(c, node.Address, matchedRoute, cb)
	}
}

// proxyRequest 代理请求到后端服务
func (g *Gateway) proxyRequest(c *fiber.Ctx, targetAddr string, route *ServiceRoute, cb *CircuitBreaker) error {
	targetURL, err := url.Parse("http://" + targetAddr)
	if err != nil {
		logger.Error("解析目标URL失败", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"code": 500, "message": "内部错误"})
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)

	originalDirector := proxy.Director

	clientIP := c.IP()
	reqHost := c.Hostname()
	scheme := c.Protocol()

	proxy.Director = func(req *http.Request) {
		originalDirector(req)

		// 路径转换：去除网关前缀，例如 /api/v1/system/auth/login -> /system/auth/login
		newPath := strings.TrimPrefix(req.URL.Path, APIVersion)
		if !strings.HasPrefix(newPath, "/") {
			newPath = "/" + newPath
		}
		req.URL.Path = newPath

		// 传递原始请求信息
		req.Header.Set("X-Forwarded-For", clientIP)
		req.Header.Set("X-Real-IP", clientIP)
		req.Header.Set("X-Forwarded-Proto", scheme)
		req.Header.Set("X-Forwarded-Host", reqHost)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		cb.Failure()
		logger.Error("代理请求失败",
			zap.String("target", targetAddr),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusBadGateway)
	}

	// 将 net/http handler 转为 fasthttp handler 并直接调用
	fastHandler := fasthttpadaptor.NewFastHTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxy.ServeHTTP(w, r)
	})

	fastHandler(c.Context())
	if c.Response().StatusCode() < http.StatusInternalServerError {
		cb.Success()
	}
	return nil
}

// HealthCheck 健康检查
func (g *Gateway) HealthCheck(c *fiber.Ctx) error {
	return c.Status(200).JSON(fiber.Map{"status": "healthy", "service": "gateway", "time": time.Now().Format(time.RFC3339)})
}

// ServiceStatus 服务状态
type ServiceStatus struct {
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Nodes     int      `json:"nodes"`
	Addresses []string `json:"addresses,omitempty"`
}

// GetServicesStatus 获取所有服务状态
func (g *Gateway) GetServicesStatus(c *fiber.Ctx) error {
	services, err := g.registry.ListServices()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"code": 500, "message": "获取服务列表失败"})
	}

	var statuses []ServiceStatus
	for _, svc := range services {
		var addresses []string
		for _, node := range svc.Nodes {
			addresses = append(addresses, node.Address)
		}

		status := "unhealthy"
		if len(addresses) > 0 {
			status = "healthy"
		}

		statuses = append(statuses, ServiceStatus{
			Name:      svc.Name,
			Status:    status,
			Nodes:     len(addresses),
			Addresses: addresses,
		})
	}

	return c.Status(200).JSON(fiber.Map{"code": 0, "message": "success", "data": statuses})
}

// Shutdown 关闭网关
func (g *Gateway) Shutdown(ctx context.Context) error {
	logger.Info("正在关闭网关...")
	g.stopOnce.Do(func() {
		close(g.stopChan)
	})
	return nil
}

// GetRoutes 获取所有已注册的路由（用于调试）
func (g *Gateway) GetRoutes() map[string]*ServiceRoute {
	g.mu.RLock()
	defer g.mu.RUnlock()

	routes := make(map[string]*ServiceRoute)
	for k, v := range g.routes {
		routes[k] = v
	}
	return routes
}
