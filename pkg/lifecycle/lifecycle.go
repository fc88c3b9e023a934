// Package lifecycle 提供服务生命周期管理
//
// 服务启动、就绪、停止各阶段执行钩子，阶段变更通过 Redis 发布订阅
// 广播给集群内其他节点，并向注册中心注册/注销服务。
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goadmin/pkg/database"
	"github.com/goadmin/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event 生命周期事件类型
type Event string

const (
	EventStarting Event = "starting" // 服务启动中
	EventStarted  Event = "started"  // 服务已启动
	EventReady    Event = "ready"    // 服务就绪
	EventStopping Event = "stopping" // 服务停止中
	EventStopped  Event = "stopped"  // 服务已停止
)

const lifecycleChannel = "service:lifecycle"

// EventMessage 生命周期消息
type EventMessage struct {
	Service   string    `json:"service"`
	NodeID    string    `json:"nodeId"`
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHandler 生命周期事件处理器
type EventHandler func(msg *EventMessage, s *Service)

// eventBus 基于 Redis 发布订阅的事件总线
type eventBus struct {
	service  string
	nodeID   string
	client   *redis.Client
	handlers map[Event][]EventHandler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	pubsub   *redis.PubSub
	owner    *Service
}

func newEventBus(service, nodeID string, owner *Service) *eventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &eventBus{
		service:  service,
		nodeID:   nodeID,
		client:   database.GetRedis(),
		handlers: make(map[Event][]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
		owner:    owner,
	}
}

// on 注册事件处理器
func (b *eventBus) on(event Event, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// emit 发布生命周期事件
func (b *eventBus) emit(event Event) error {
	msg := &EventMessage{
		Service:   b.service,
		NodeID:    b.nodeID,
		Event:     event,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal lifecycle message: %w", err)
	}
	return b.client.Publish(b.ctx, lifecycleChannel, data).Err()
}

// start 启动事件监听
func (b *eventBus) start() error {
	b.pubsub = b.client.Subscribe(b.ctx, lifecycleChannel)

	if _, err := b.pubsub.Receive(b.ctx); err != nil {
		return fmt.Errorf("subscribe lifecycle channel: %w", err)
	}

	go b.listen()
	return nil
}

func (b *eventBus) listen() {
	ch := b.pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(msg.Payload)
		}
	}
}

func (b *eventBus) dispatch(payload string) {
	var msg EventMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Error("解析生命周期消息失败", zap.Error(err))
		return
	}

	b.mu.RLock()
	handlers := b.handlers[msg.Event]
	b.mu.RUnlock()

	for _, handler := range handlers {
		go handler(&msg, b.owner)
	}
}

// stop 停止事件监听
func (b *eventBus) stop() error {
	b.cancel()
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
