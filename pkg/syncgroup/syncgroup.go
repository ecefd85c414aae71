// Package syncgroup 管理一组随连接生命周期启动和回收的 goroutine。
package syncgroup

import (
	"sync"
)

type syncGroupFunc func()

// SyncGroup 是 sync.WaitGroup 的包装器，自动管理 Add() 和 Done()。
// 一轮 Run 启动的 goroutine 全部退出（WaitAndClear）之前，不接受新的函数。
type SyncGroup struct {
	wg sync.WaitGroup

	mu      sync.Mutex
	pending []syncGroupFunc
	running int
}

// NewSyncGroup 创建新的 SyncGroup
func NewSyncGroup() *SyncGroup {
	return &SyncGroup{}
}

// Add 登记一个函数，等待下一次 Run。当前一轮仍在运行时返回 false。
func (w *SyncGroup) Add(fn syncGroupFunc) bool {
	if fn == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running > 0 {
		return false
	}
	w.pending = append(w.pending, fn)
	return true
}

// Run 启动所有已登记的函数并清空登记列表
func (w *SyncGroup) Run() {
	w.mu.Lock()
	fns := w.pending
	w.pending = nil
	w.running += len(fns)
	w.wg.Add(len(fns))
	w.mu.Unlock()

	for _, fn := range fns {
		go func(doFunc syncGroupFunc) {
			defer func() {
				w.mu.Lock()
				w.running--
				w.mu.Unlock()
				w.wg.Done()
			}()
			doFunc()
		}(fn)
	}
}

// Running 仍在运行的 goroutine 数量
func (w *SyncGroup) Running() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WaitAndClear 等待所有 goroutine 完成并丢弃未启动的函数
func (w *SyncGroup) WaitAndClear() {
	w.wg.Wait()
	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()
}

// Wait 等待所有 goroutine 完成（不清空）
func (w *SyncGroup) Wait() {
	w.wg.Wait()
}
