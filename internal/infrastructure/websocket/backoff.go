package websocket

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffConfig 指数退避参数
type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultBackoff 默认重连退避：250ms 起步，翻倍，最长 30s，±20% 抖动
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialInterval:     250 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.2,
	}
}

// newBackOff ExponentialBackOff 不是并发安全的，每个重试循环各自创建
func (c BackoffConfig) newBackOff() *backoff.ExponentialBackOff {
	d := DefaultBackoff()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	if b.InitialInterval <= 0 {
		b.InitialInterval = d.InitialInterval
	}
	b.MaxInterval = c.MaxInterval
	if b.MaxInterval <= 0 {
		b.MaxInterval = d.MaxInterval
	}
	if b.InitialInterval > b.MaxInterval {
		b.InitialInterval = b.MaxInterval
	}
	b.Multiplier = c.Multiplier
	if b.Multiplier <= 1 {
		b.Multiplier = d.Multiplier
	}
	b.RandomizationFactor = c.RandomizationFactor
	if b.RandomizationFactor < 0 || b.RandomizationFactor > 1 {
		b.RandomizationFactor = d.RandomizationFactor
	}
	b.Reset()
	return b
}
