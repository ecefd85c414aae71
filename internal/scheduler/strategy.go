package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/betbot/polyclob/internal/marketstate"
)

// Strategy 策略钩子。所有钩子都在调度器 goroutine 上串行调用，
// 可以直接调用 Scheduler.Submit / Subscribe。
type Strategy interface {
	Name() string
	Initialize(ctx context.Context, s *Scheduler) error
	OnTick(ctx context.Context, prices Prices) error
	OnBookUpdate(ctx context.Context, assetID string, book *marketstate.Book) error
	OnOrderUpdate(ctx context.Context, result SubmissionResult)
	OnError(ctx context.Context, err error)
	Cleanup(ctx context.Context)
}

// BaseStrategy 提供空实现，具体策略嵌入后按需覆盖
type BaseStrategy struct{}

func (BaseStrategy) Initialize(context.Context, *Scheduler) error                 { return nil }
func (BaseStrategy) OnTick(context.Context, Prices) error                         { return nil }
func (BaseStrategy) OnBookUpdate(context.Context, string, *marketstate.Book) error { return nil }
func (BaseStrategy) OnOrderUpdate(context.Context, SubmissionResult)              {}
func (BaseStrategy) OnError(context.Context, error)                               {}
func (BaseStrategy) Cleanup(context.Context)                                      {}

// Factory 策略构造函数
type Factory func() Strategy

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterStrategy 注册策略，应在 init() 中调用；重复注册会 panic
func RegisterStrategy(id string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[id]; exists {
		panic(fmt.Errorf("strategy %s already registered", id))
	}
	registry[id] = factory
}

// NewStrategy 按 ID 创建策略
func NewStrategy(id string) (Strategy, error) {
	registryMu.RLock()
	factory, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %s not found", id)
	}
	return factory(), nil
}

// RegisteredStrategies 已注册的策略 ID
func RegisteredStrategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IdleStrategy 只维护行情与止盈止损，不主动下单
type IdleStrategy struct {
	BaseStrategy
}

func (IdleStrategy) Name() string { return "idle" }

func init() {
	RegisterStrategy("idle", func() Strategy { return IdleStrategy{} })
}
