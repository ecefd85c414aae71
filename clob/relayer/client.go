// Package relayer 免 gas 中继服务客户端：通过 Safe 代理钱包提交链上交易。
// 请求认证使用钱包签名，与交易 API 的 HMAC 认证分开。
package relayer

import (
	"context"
	"encoding/json"
	"math/big"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/auth"
	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/keyvault"
	"github.com/betbot/polyclob/pkg/ratelimit"
)

var relayerLog = logrus.WithField("component", "relayer")

const (
	RelayerURL        = "https://relayer-v2.polymarket.com"
	RelayerStagingURL = "https://relayer-v2-staging.polymarket.dev"

	DefaultTimeout = 30 * time.Second
)

// Config 中继客户端配置
type Config struct {
	Host    string
	ChainID types.Chain
	Timeout time.Duration
	// SafeAddress 为空时由签名地址推导
	SafeAddress string
	Limiter     *ratelimit.Manager
}

// Client 中继客户端
type Client struct {
	http    *resty.Client
	auth    auth.Authenticator
	key     keyvault.SigningKey
	chainID types.Chain
	safe    common.Address
	limiter *ratelimit.Manager
}

// NewClient 创建中继客户端。认证器从 router 按中继目标选择，方案不符直接报错。
func NewClient(cfg Config, key keyvault.SigningKey, router auth.Router) (*Client, error) {
	if !key.Valid() {
		return nil, signing.ErrKeyUnavailable
	}
	a, err := router.For(auth.DestRelay)
	if err != nil {
		return nil, err
	}
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = RelayerURL
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = types.ChainPolygon
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	safe := DeriveSafeAddress(key.Address(), common.HexToAddress(SafeFactoryAddr))
	if cfg.SafeAddress != "" {
		if !common.IsHexAddress(cfg.SafeAddress) {
			return nil, errors.Errorf("无效的 Safe 地址: %s", cfg.SafeAddress)
		}
		safe = common.HexToAddress(cfg.SafeAddress)
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewManager()
	}

	return &Client{
		http: resty.New().
			SetBaseURL(host).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "polyclob-relayer"),
		auth:    a,
		key:     key,
		chainID: cfg.ChainID,
		safe:    safe,
		limiter: limiter,
	}, nil
}

// SafeAddress 代理钱包地址
func (c *Client) SafeAddress() common.Address { return c.safe }

// Signer 签名地址
func (c *Client) Signer() common.Address { return c.key.Address() }

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any, submit bool) error {
	if err := c.limiter.Wait(ctx, ratelimit.RouteRelay); err != nil {
		return types.NewError(types.KindTransientNetwork, op, err)
	}
	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: 序列化请求体失败", op)
		}
		bodyBytes = b
	}
	h, err := c.auth.BuildHeaders(method, path, bodyBytes, 0)
	if err != nil {
		return types.NewError(types.KindAuthFailure, op, err)
	}

	req := c.http.R().SetContext(ctx)
	for k := range h {
		req.SetHeader(k, h.Get(k))
	}
	if bodyBytes != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(bodyBytes)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		var ne net.Error
		if submit && (errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())) {
			return types.NewError(types.KindOutcomeUnknown, op, err)
		}
		return types.NewError(types.KindTransientNetwork, op, err)
	}
	if !resp.IsSuccess() {
		return types.ClassifyStatus(op, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "%s: 解析响应失败", op)
	}
	return nil
}

// GetNonce 查询签名地址当前的 Safe nonce
func (c *Client) GetNonce(ctx context.Context) (string, error) {
	q := url.Values{"address": {c.key.Address().Hex()}, "type": {TxTypeSafe}}
	var resp nonceResponse
	if err := c.do(ctx, "relayer_nonce", "GET", "/nonce?"+q.Encode(), nil, &resp, false); err != nil {
		return "", err
	}
	if resp.Nonce == "" {
		return "", types.Errorf(types.KindRemoteRejection, "relayer_nonce", "empty nonce")
	}
	return resp.Nonce, nil
}

// IsDeployed Safe 是否已部署
func (c *Client) IsDeployed(ctx context.Context) (bool, error) {
	q := url.Values{"address": {c.safe.Hex()}}
	var resp deployedResponse
	if err := c.do(ctx, "relayer_deployed", "GET", "/deployed?"+q.Encode(), nil, &resp, false); err != nil {
		return false, err
	}
	return resp.Deployed, nil
}

// Deploy 通过中继部署 Safe（SAFE-CREATE）
func (c *Client) Deploy(ctx context.Context) (*SubmitResponse, error) {
	factory := common.HexToAddress(SafeFactoryAddr)
	hash, err := signing.CreateProxyHash(c.chainID, factory)
	if err != nil {
		return nil, err
	}
	sig, err := signing.SignHash(c.key.PrivateKey(), hash)
	if err != nil {
		return nil, err
	}
	req := TransactionRequest{
		Type:        TxTypeSafeCreate,
		From:        c.key.Address().Hex(),
		To:          factory.Hex(),
		ProxyWallet: c.safe.Hex(),
		Data:        "0x",
		Signature:   sig,
		SignatureParams: &SignatureParams{
			PaymentToken:    types.ZeroAddress,
			Payment:         "0",
			PaymentReceiver: types.ZeroAddress,
		},
	}
	return c.submit(ctx, req)
}

// Execute 签名并提交 Safe 交易。多笔交易打包为 MultiSend。
func (c *Client) Execute(ctx context.Context, txns []SafeTransaction, metadata string) (*SubmitResponse, error) {
	if len(txns) == 0 {
		return nil, errors.New("no transactions to execute")
	}
	nonceStr, err := c.GetNonce(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := hexutil.DecodeBig(nonceStr)
	if err != nil {
		var ok bool
		if nonce, ok = new(big.Int).SetString(nonceStr, 10); !ok {
			return nil, types.Errorf(types.KindRemoteRejection, "relayer_execute", "invalid nonce %q", nonceStr)
		}
	}

	tx, err := aggregate(txns)
	if err != nil {
		return nil, errors.Wrap(err, "打包交易失败")
	}
	sig, err := signing.SignSafeTx(c.key.PrivateKey(), c.chainID, c.safe, signing.SafeTx{
		To:        tx.To,
		Value:     tx.Value,
		Data:      tx.Data,
		Operation: tx.Operation,
		Nonce:     nonce,
	})
	if err != nil {
		return nil, err
	}

	req := TransactionRequest{
		Type:        TxTypeSafe,
		From:        c.key.Address().Hex(),
		To:          tx.To.Hex(),
		ProxyWallet: c.safe.Hex(),
		Data:        hexutil.Encode(tx.Data),
		Nonce:       nonce.String(),
		Signature:   sig,
		SignatureParams: &SignatureParams{
			GasPrice:       "0",
			Operation:      strconv.Itoa(int(tx.Operation)),
			SafeTxnGas:     "0",
			BaseGas:        "0",
			GasToken:       types.ZeroAddress,
			RefundReceiver: types.ZeroAddress,
		},
		Metadata: metadata,
	}
	return c.submit(ctx, req)
}

func (c *Client) submit(ctx context.Context, req TransactionRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.do(ctx, "relayer_submit", "POST", "/submit", req, &resp, true); err != nil {
		return nil, err
	}
	relayerLog.Infof("中继交易已提交: type=%s id=%s state=%s", req.Type, resp.TransactionID, resp.State)
	return &resp, nil
}

// GetTransaction 查询中继交易
func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	q := url.Values{"id": {id}}
	var txs []Transaction
	if err := c.do(ctx, "relayer_transaction", "GET", "/transaction?"+q.Encode(), nil, &txs, false); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, types.Errorf(types.KindRemoteRejection, "relayer_transaction", "transaction %s not found", id)
	}
	return &txs[0], nil
}

// WaitForTransaction 轮询直到交易进入终态或 ctx 结束
func (c *Client) WaitForTransaction(ctx context.Context, id string, interval time.Duration) (*Transaction, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tx, err := c.GetTransaction(ctx, id)
		if err != nil && !types.IsRetryable(err) {
			return nil, err
		}
		if err == nil && tx.Final() {
			if !tx.Succeeded() {
				return tx, types.Errorf(types.KindRemoteRejection, "relayer_wait", "transaction %s ended in %s", id, tx.State)
			}
			return tx, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
