package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/logger"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

const (
	servicePrefix = "registry:service:"
	ttlDuration   = 30 * time.Second
)

// RedisRegistry 基于 Redis 的服务注册中心
// 注册信息带TTL，由心跳续期，节点异常退出后自动过期下线
type RedisRegistry struct {
	cache     *database.Cache
	mu        sync.Mutex
	heartbeat map[string]*heartbeat
}

// heartbeat 单个服务的心跳续期句柄
// Ticker.Stop 不关闭通道，续期协程靠 done 退出
type heartbeat struct {
	ticker *time.Ticker
	done   chan struct{}
}

// NewRedisRegistry 创建基于 Redis 的注册中心
func NewRedisRegistry(cache *database.Cache) registry.Registry {
	return &RedisRegistry{
		cache:     cache,
		heartbeat: make(map[string]*heartbeat),
	}
}

// Init 初始化
func (r *RedisRegistry) Init(opts ...registry.Option) error {
	return nil
}

// Options 获取选项
func (r *RedisRegistry) Options() registry.Options {
	return registry.Options{}
}

// Register 注册服务
func (r *RedisRegistry) Register(s *registry.Service, opts ...registry.RegisterOption) error {
	if s == nil || len(s.Nodes) == 0 {
		return fmt.Errorf("service or nodes cannot be empty")
	}

	if err := r.write(s); err != nil {
		return err
	}

	logger.Debug("服务已注册",
		zap.String("service", s.Name),
		zap.Int("nodes", len(s.Nodes)),
	)

	r.startHeartbeat(s)
	return nil
}

// Deregister 注销服务
func (r *RedisRegistry) Deregister(s *registry.Service, opts ...registry.DeregisterOption) error {
	if s == nil {
		return fmt.Errorf("service cannot be nil")
	}

	r.stopHeartbeat(s.Name)
	return r.cache.Del(context.Background(), servicePrefix+s.Name)
}

// GetService 获取服务
func (r *RedisRegistry) GetService(name string, opts ...registry.GetOption) ([]*registry.Service, error) {
	var svc registry.Service
	hit, err := r.cache.GetJSON(context.Background(), servicePrefix+name, &svc)
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	if !hit {
		return nil, registry.ErrNotFound
	}
	return []*registry.Service{&svc}, nil
}

// ListServices 列出所有服务
func (r *RedisRegistry) ListServices(opts ...registry.ListOption) ([]*registry.Service, error) {
	ctx := context.Background()
	keys, err := r.cache.Keys(ctx, servicePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	services := make([]*registry.Service, 0, len(keys))
	for _, key := range keys {
		var svc registry.Service
		hit, err := r.cache.GetJSON(ctx, key, &svc)
		if err != nil || !hit {
			continue
		}
		services = append(services, &svc)
	}
	return services, nil
}

// Watch 监听服务变化（简化实现）
func (r *RedisRegistry) Watch(opts ...registry.WatchOption) (registry.Watcher, error) {
	return &redisWatcher{exit: make(chan bool)}, nil
}

// String 返回注册中心名称
func (r *RedisRegistry) String() string {
	return "redis"
}

// write 写入服务注册信息
func (r *RedisRegistry) write(s *registry.Service) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}
	return r.cache.Set(context.Background(), servicePrefix+s.Name, data, ttlDuration)
}

// startHeartbeat 启动心跳续期
func (r *RedisRegistry) startHeartbeat(s *registry.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hb, ok := r.heartbeat[s.Name]; ok {
		hb.ticker.Stop()
		close(hb.done)
	}

	hb := &heartbeat{
		ticker: time.NewTicker(ttlDuration / 3),
		done:   make(chan struct{}),
	}
	r.heartbeat[s.Name] = hb

	go func() {
		for {
			select {
			case <-hb.done:
				return
			case <-hb.ticker.C:
				if err := r.write(s); err != nil {
					logger.Warn("服务心跳续期失败", zap.String("service", s.Name), zap.Error(err))
				}
			}
		}
	}()
}

// stopHeartbeat 停止心跳
func (r *RedisRegistry) stopHeartbeat(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hb, ok := r.heartbeat[name]; ok {
		hb.ticker.Stop()
		close(hb.done)
		delete(r.heartbeat, name)
	}
}

// redisWatcher Redis 监听器（简化实现）
type redisWatcher struct {
	exit chan bool
}

func (w *redisWatcher) Next() (*registry.Result, error) {
	<-w.exit
	return nil, registry.ErrWatcherStopped
}

func (w *redisWatcher) Stop() {
	select {
	case <-w.exit:
		return
	default:
		close(w.exit)
	}
}
