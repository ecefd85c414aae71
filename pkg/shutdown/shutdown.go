package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Handler 关闭处理函数
type Handler func(ctx context.Context) error

type callback struct {
	name    string
	handler Handler
}

// Manager 优雅关闭管理器：按注册顺序依次执行回调，整体受 ctx 截止时间约束
type Manager struct {
	callbacks []callback
	mu        sync.Mutex
	once      sync.Once
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback{name: name, handler: handler})
}

// Shutdown 执行所有关闭回调（阻塞调用，只执行一次）。
// 超时后不再启动后续回调，返回已执行回调中的第一个错误或 ctx 错误。
func (m *Manager) Shutdown(ctx context.Context) (err error) {
	m.once.Do(func() {
		m.mu.Lock()
		callbacks := append([]callback(nil), m.callbacks...)
		m.mu.Unlock()

		log.Infof("开始优雅关闭，共 %d 个回调", len(callbacks))
		for _, cb := range callbacks {
			if ctx.Err() != nil {
				log.Warnf("关闭超时，跳过 %s: %v", cb.name, ctx.Err())
				if err == nil {
					err = ctx.Err()
				}
				continue
			}
			if e := m.run(ctx, cb); e != nil {
				log.Errorf("关闭 %s 失败: %v", cb.name, e)
				if err == nil {
					err = e
				}
			}
		}
		log.Info("所有关闭回调已完成")
	})
	return err
}

// run 执行单个回调；回调阻塞超过截止时间时不再等待
func (m *Manager) run(ctx context.Context, cb callback) error {
	done := make(chan error, 1)
	go func() {
		done <- cb.handler(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
