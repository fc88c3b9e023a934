package lifecycle

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goadmin/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

// Hook 生命周期钩子
type Hook func(s *Service) error

// Service 服务运行器
// 按 启动钩子 -> 注册 -> HTTP监听 -> 就绪钩子 的顺序启动，
// 收到退出信号后按相反顺序优雅关闭
type Service struct {
	name    string
	nodeID  string
	addr    string
	reg     registry.Registry
	regInfo *registry.Service
	app     *fiber.App
	bus     *eventBus

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// New 创建服务构建器
func New(name string) *Service {
	return &Service{
		name:   name,
		nodeID: name + "-1",
	}
}

// Node 设置节点ID
func (s *Service) Node(nodeID string) *Service {
	s.nodeID = nodeID
	return s
}

// Addr 设置监听地址
func (s *Service) Addr(addr string) *Service {
	s.addr = addr
	return s
}

// Registry 设置服务注册中心
func (s *Service) Registry(reg registry.Registry) *Service {
	s.reg = reg
	return s
}

// RegInfo 设置服务注册信息
func (s *Service) RegInfo(info *registry.Service) *Service {
	s.regInfo = info
	return s
}

// App 设置Fiber应用
func (s *Service) App(app *fiber.App) *Service {
	s.app = app
	return s
}

// OnStart 添加启动钩子，在HTTP监听之前执行
func (s *Service) OnStart(fn Hook) *Service {
	s.onStart = append(s.onStart, fn)
	return s
}

// OnReady 添加就绪钩子
func (s *Service) OnReady(fn Hook) *Service {
	s.onReady = append(s.onReady, fn)
	return s
}

// OnStop 添加停止钩子
func (s *Service) OnStop(fn Hook) *Service {
	s.onStop = append(s.onStop, fn)
	return s
}

// On 监听集群内的生命周期事件
func (s *Service) On(event Event, handler EventHandler) *Service {
	if s.bus == nil {
		s.bus = newEventBus(s.name, s.nodeID, s)
	}
	s.bus.on(event, handler)
	return s
}

// Name 服务名称
func (s *Service) Name() string {
	return s.name
}

// Run 运行服务，阻塞直到退出信号或监听失败
func (s *Service) Run() error {
	if s.bus == nil {
		s.bus = newEventBus(s.name, s.nodeID, s)
	}
	if err := s.bus.start(); err != nil {
		return fmt.Errorf("start lifecycle bus: %w", err)
	}

	s.bus.emit(EventStarting)

	for _, fn := range s.onStart {
		if err := fn(s); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}

	if s.reg != nil && s.regInfo != nil {
		if err := s.reg.Register(s.regInfo); err != nil {
			return fmt.Errorf("register service: %w", err)
		}
	}

	s.bus.emit(EventStarted)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务启动",
			zap.String("service", s.name),
			zap.String("address", s.addr),
		)
		if err := s.app.Listen(s.addr); err != nil {
			errCh <- err
		}
	}()

	// 等待监听器就位
	time.Sleep(100 * time.Millisecond)

	for _, fn := range s.onReady {
		if err := fn(s); err != nil {
			return fmt.Errorf("ready hook: %w", err)
		}
	}

	s.bus.emit(EventReady)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("收到退出信号，正在关闭服务...")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	return s.Shutdown()
}

// Shutdown 优雅关闭服务
func (s *Service) Shutdown() error {
	s.bus.emit(EventStopping)

	for _, fn := range s.onStop {
		if err := fn(s); err != nil {
			logger.Error("停止钩子执行失败", zap.Error(err))
		}
	}

	if s.reg != nil && s.regInfo != nil {
		if err := s.reg.Deregister(s.regInfo); err != nil {
			logger.Error("注销服务失败", zap.Error(err))
		}
	}

	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			logger.Error("关闭HTTP服务失败", zap.Error(err))
		}
	}

	s.bus.emit(EventStopped)

	if err := s.bus.stop(); err != nil {
		logger.Error("停止生命周期监听失败", zap.Error(err))
	}

	logger.Info("服务已关闭", zap.String("service", s.name))
	return nil
}
