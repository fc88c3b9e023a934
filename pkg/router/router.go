package router

import (
	"github.com/gofiber/fiber/v2"
)

// Route 路由配置
type Route struct {
	Method      string          // HTTP方法
	Path        string          // 路径，相对控制器前缀
	Handler     fiber.Handler   // 处理函数
	Middlewares []fiber.Handler // 路由级中间件
}

// Registrar 路由注册器接口
type Registrar interface {
	// Prefix 返回路由前缀
	Prefix() string
	// Routes 返回路由配置列表,接收命名中间件作为参数
	Routes(middlewares map[string]fiber.Handler) []Route
}

// Register 注册控制器路由，路径统一挂在控制器前缀之下
func Register(app fiber.Router, middlewares map[string]fiber.Handler, controllers ...Registrar) {
	for _, ctrl := range controllers {
		g := app.Group(ctrl.Prefix())

		for _, route := range ctrl.Routes(middlewares) {
			handlers := append(append([]fiber.Handler{}, route.Middlewares...), route.Handler)
			g.Add(route.Method, route.Path, handlers...)
		}
	}
}
