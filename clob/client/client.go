package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/auth"
	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/keyvault"
	"github.com/betbot/polyclob/pkg/ratelimit"
)

var clobLog = logrus.WithField("component", "clob_client")

const (
	DefaultHost    = "https://clob.polymarket.com"
	DefaultTimeout = 10 * time.Second
)

// Config 客户端配置
type Config struct {
	Host    string
	ChainID types.Chain
	// Timeout 单次 HTTP 请求超时，0 使用默认值
	Timeout time.Duration
	// RetryCount 瞬时错误的重试次数（下单 POST 从不重试）
	RetryCount int
	// AuthOptions 传给 HMAC 认证器（时钟、允许偏差）
	AuthOptions []auth.Option
	// Limiter 为 nil 时使用默认限额
	Limiter *ratelimit.Manager
}

// Client CLOB 交易 API 客户端
type Client struct {
	host    string
	chainID types.Chain
	http    *resty.Client
	limiter *ratelimit.Manager

	key      keyvault.SigningKey
	authOpts []auth.Option

	mu    sync.RWMutex
	creds *types.ApiKeyCreds
	l2    *auth.HMACAuthenticator

	tickSizes sync.Map // tokenID -> types.TickSize
	negRisk   sync.Map // tokenID -> bool
}

// NewClient 创建客户端。key 为空时只能调用公开接口；creds 可稍后通过 SetCreds 设置。
func NewClient(cfg Config, key keyvault.SigningKey, creds *types.ApiKeyCreds) (*Client, error) {
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = DefaultHost
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = types.ChainPolygon
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewManager()
	}

	// resty 自动读取 HTTP_PROXY / HTTPS_PROXY
	rc := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry).
		SetLogger(restyLogger{clobLog}).
		SetHeader("User-Agent", "polyclob").
		SetHeader("Accept", "*/*")

	c := &Client{
		host:     host,
		chainID:  cfg.ChainID,
		http:     rc,
		limiter:  limiter,
		key:      key,
		authOpts: cfg.AuthOptions,
	}
	if creds != nil {
		if err := c.SetCreds(creds); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetCreds 设置 L2 API 凭证
func (c *Client) SetCreds(creds *types.ApiKeyCreds) error {
	if !c.key.Valid() {
		return fmt.Errorf("设置 API 凭证需要签名私钥: %w", signing.ErrKeyUnavailable)
	}
	l2, err := auth.NewHMACAuthenticator(c.key.Address(), creds, c.authOpts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.creds = &types.ApiKeyCreds{Key: creds.Key, Secret: creds.Secret, Passphrase: creds.Passphrase}
	c.l2 = l2
	c.mu.Unlock()
	return nil
}

// Creds 当前 API 凭证（可能为 nil）
func (c *Client) Creds() *types.ApiKeyCreds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

func (c *Client) l2Auth() (*auth.HMACAuthenticator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.l2 == nil {
		return nil, types.NewError(types.KindAuthFailure, "l2_auth", auth.ErrMissingCredentials)
	}
	return c.l2, nil
}

// Host 服务地址
func (c *Client) Host() string { return c.host }

// ChainID 链 ID
func (c *Client) ChainID() types.Chain { return c.chainID }

// Address 签名地址
func (c *Client) Address() (common.Address, error) {
	if !c.key.Valid() {
		return common.Address{}, signing.ErrKeyUnavailable
	}
	return c.key.Address(), nil
}

// restyLogger 将 resty 日志转到 logrus
type restyLogger struct{ entry *logrus.Entry }

func (l restyLogger) Errorf(format string, v ...interface{}) { l.entry.Errorf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.entry.Warnf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.entry.Debugf(format, v...) }
