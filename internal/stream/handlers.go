package stream

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "stream")

// BookUpdateHandler 订单簿事件处理器
type BookUpdateHandler interface {
	OnBookUpdate(ctx context.Context, event *BookEvent) error
}

// BookUpdateHandlerFunc 函数适配器
type BookUpdateHandlerFunc func(ctx context.Context, event *BookEvent) error

func (f BookUpdateHandlerFunc) OnBookUpdate(ctx context.Context, event *BookEvent) error {
	return f(ctx, event)
}

// StateChangeHandler 连接状态变化回调
type StateChangeHandler func(from, to State)

// MarketDataStream 行情流接口
type MarketDataStream interface {
	Open(ctx context.Context) error
	Subscribe(assetIDs []string, replaceExisting bool) error
	Unsubscribe(assetIDs []string) error
	Subscriptions() []string
	OnBookUpdate(handler BookUpdateHandler)
	OnStateChange(handler StateChangeHandler)
	Disconnect() error
	State() State
}

// HandlerList 处理器列表
type HandlerList struct {
	handlers []BookUpdateHandler
	mu       sync.RWMutex
}

// NewHandlerList 创建新的处理器列表
func NewHandlerList() *HandlerList {
	return &HandlerList{}
}

// Add 添加处理器
func (h *HandlerList) Add(handler BookUpdateHandler) {
	if handler == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handler)
}

// Snapshot 返回处理器快照（用于在无锁状态下遍历，避免长时间持锁）
func (h *HandlerList) Snapshot() []BookUpdateHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]BookUpdateHandler, len(h.handlers))
	copy(out, h.handlers)
	return out
}

// Emit 按注册顺序串行触发所有处理器。单个处理器的错误或 panic 不影响后续处理器。
func (h *HandlerList) Emit(ctx context.Context, event *BookEvent) {
	for i, handler := range h.Snapshot() {
		func(idx int, hd BookUpdateHandler) {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("订单簿处理器 %d panic: %v", idx, r)
				}
			}()
			if err := hd.OnBookUpdate(ctx, event); err != nil {
				log.Errorf("订单簿处理器 %d 执行失败: asset=%s kind=%s err=%v", idx, event.AssetID, event.Kind, err)
			}
		}(i, handler)
	}
}

// Count 返回处理器数量
func (h *HandlerList) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Clear 清空处理器
func (h *HandlerList) Clear() {
	h.mu.Lock()
	h.handlers = nil
	h.mu.Unlock()
}
