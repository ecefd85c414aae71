// Package ratelimit 按接口分组的客户端限速
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// 路由分组
const (
	RouteOrderPost    = "clob:order:post"
	RouteOrderDelete  = "clob:order:delete"
	RouteOrdersDelete = "clob:orders:delete"
	RouteOrdersGet    = "clob:orders:get"
	RouteBookGet      = "clob:book:get"
	RoutePriceGet     = "clob:price:get"
	RouteAuth         = "clob:auth"
	RouteRelay        = "relayer:general"
	RouteGeneral      = "clob:general"
)

// Manager 速率限制管理器，未登记的路由使用通用限制
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
}

// NewManager 创建带默认限额的管理器（交易所公布的 10 秒窗口限额）
func NewManager() *Manager {
	m := &Manager{
		limiters: make(map[string]*rate.Limiter),
		fallback: perWindow(5000, 10*time.Second),
	}
	m.Set(RouteOrderPost, 2400, 10*time.Second)
	m.Set(RouteOrderDelete, 2400, 10*time.Second)
	m.Set(RouteOrdersDelete, 800, 10*time.Second)
	m.Set(RouteOrdersGet, 150, 10*time.Second)
	m.Set(RouteBookGet, 200, 10*time.Second)
	m.Set(RoutePriceGet, 200, 10*time.Second)
	m.Set(RouteAuth, 50, 10*time.Second)
	m.Set(RouteRelay, 100, 10*time.Second)
	return m
}

// Unlimited 不限速（测试、回放）
func Unlimited() *Manager {
	return &Manager{
		limiters: make(map[string]*rate.Limiter),
		fallback: rate.NewLimiter(rate.Inf, 1),
	}
}

func perWindow(n int, window time.Duration) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
}

// Set 设置路由限额：window 内最多 n 次
func (m *Manager) Set(route string, n int, window time.Duration) {
	m.mu.Lock()
	m.limiters[route] = perWindow(n, window)
	m.mu.Unlock()
}

func (m *Manager) limiter(route string) *rate.Limiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.limiters[route]; ok {
		return l
	}
	return m.fallback
}

// Wait 阻塞直到允许请求或 ctx 结束
func (m *Manager) Wait(ctx context.Context, route string) error {
	if m == nil {
		return nil
	}
	return m.limiter(route).Wait(ctx)
}

// Allow 非阻塞检查
func (m *Manager) Allow(route string) bool {
	if m == nil {
		return true
	}
	return m.limiter(route).Allow()
}
