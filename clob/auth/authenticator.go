// Package auth 构建 CLOB 交易服务与中继服务的请求认证头。
//
// 两种方案互不相通：交易 API 使用 API 密钥 HMAC（L2），
// 中继 API 使用钱包签名。通过 Router 按目标服务选择。
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Scheme 认证方案
type Scheme int

const (
	SchemeHMAC Scheme = iota + 1
	SchemeWallet
)

func (s Scheme) String() string {
	switch s {
	case SchemeHMAC:
		return "hmac"
	case SchemeWallet:
		return "wallet"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// Destination 请求目标服务
type Destination int

const (
	DestTrade Destination = iota + 1
	DestRelay
)

func (d Destination) String() string {
	switch d {
	case DestTrade:
		return "trade"
	case DestRelay:
		return "relay"
	default:
		return fmt.Sprintf("destination(%d)", int(d))
	}
}

// scheme 每个目标服务要求的方案
func (d Destination) scheme() Scheme {
	switch d {
	case DestTrade:
		return SchemeHMAC
	case DestRelay:
		return SchemeWallet
	default:
		return 0
	}
}

// DefaultMaxClockSkew 本地时钟与请求时间戳允许的最大偏差
const DefaultMaxClockSkew = 30 * time.Second

var (
	ErrStaleTimestamp     = errors.New("auth: timestamp outside allowed clock skew")
	ErrSchemeMismatch     = errors.New("auth: scheme does not match destination")
	ErrMissingCredentials = errors.New("auth: credentials not configured")
)

// Authenticator 为单个请求生成认证头。
// timestamp 为 0 时使用注入的时钟。
type Authenticator interface {
	Scheme() Scheme
	BuildHeaders(method, path string, body []byte, timestamp int64) (http.Header, error)
}

// Option 认证器选项
type Option func(*clockPolicy)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(p *clockPolicy) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMaxClockSkew 设置允许的时钟偏差，<=0 表示不校验
func WithMaxClockSkew(d time.Duration) Option {
	return func(p *clockPolicy) { p.maxSkew = d }
}

type clockPolicy struct {
	now     func() time.Time
	maxSkew time.Duration
}

func newClockPolicy(opts []Option) clockPolicy {
	p := clockPolicy{now: time.Now, maxSkew: DefaultMaxClockSkew}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// resolve 返回要使用的时间戳，超出偏差则拒绝
func (p clockPolicy) resolve(timestamp int64) (int64, error) {
	now := p.now()
	if timestamp == 0 {
		return now.Unix(), nil
	}
	if p.maxSkew <= 0 {
		return timestamp, nil
	}
	skew := now.Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > p.maxSkew {
		return 0, errors.Wrapf(ErrStaleTimestamp, "timestamp=%d skew=%s", timestamp, skew)
	}
	return timestamp, nil
}

// Router 按目标服务选择认证器
type Router struct {
	Trade Authenticator
	Relay Authenticator
}

// For 返回目标服务对应的认证器。方案不匹配直接报错，不会降级。
func (r Router) For(dest Destination) (Authenticator, error) {
	var a Authenticator
	switch dest {
	case DestTrade:
		a = r.Trade
	case DestRelay:
		a = r.Relay
	default:
		return nil, fmt.Errorf("auth: unknown destination %s", dest)
	}
	if a == nil {
		return nil, errors.Wrapf(ErrMissingCredentials, "destination=%s", dest)
	}
	if a.Scheme() != dest.scheme() {
		return nil, errors.Wrapf(ErrSchemeMismatch, "destination=%s scheme=%s", dest, a.Scheme())
	}
	return a, nil
}
