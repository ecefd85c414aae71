package types

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ZeroAddress 公开订单的 taker
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// UserOrder 用户下单意图
type UserOrder struct {
	// TokenID 条件代币资产 ID（十进制字符串）
	TokenID string

	// Price 价格，取值 (0, 1]
	Price decimal.Decimal

	// Size 条件代币数量
	Size decimal.Decimal

	Side Side

	// FeeRateBps 手续费率（基点），可选
	FeeRateBps *int64

	// Nonce 链上取消用的 nonce，可选
	Nonce *int64

	// Expiration 过期时间戳（秒），0 表示不过期
	Expiration *int64

	// Taker 为空表示公开订单
	Taker *string
}

// Order 待签名的订单，字段顺序与交易所 EIP712 结构一致
type Order struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          Side
	SignatureType SignatureType
}

// SignedOrder 已签名的订单（线上 JSON 格式）
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder 提交载荷
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
	DeferExec bool        `json:"deferExec"`
}

// OrderResponse POST /order 响应
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`
}

// 订单状态
const (
	OrderStatusLive      = "live"
	OrderStatusMatched   = "matched"
	OrderStatusDelayed   = "delayed"
	OrderStatusUnmatched = "unmatched"
	OrderStatusCanceled  = "canceled"
)

// OrderResult 归一化后的提交结果
type OrderResult struct {
	Success bool
	OrderID string
	Status  string
	Message string
	Raw     *OrderResponse
}

// OrderResultFromResponse 解析交易所响应
func OrderResultFromResponse(resp *OrderResponse) OrderResult {
	if resp == nil {
		return OrderResult{Message: "empty response"}
	}
	if resp.Success && resp.ErrorMsg == "" {
		return OrderResult{
			Success: true,
			OrderID: resp.OrderID,
			Status:  strings.ToLower(resp.Status),
			Raw:     resp,
		}
	}
	msg := resp.ErrorMsg
	if msg == "" {
		msg = "order rejected"
	}
	return OrderResult{
		OrderID: resp.OrderID,
		Status:  strings.ToLower(resp.Status),
		Message: msg,
		Raw:     resp,
	}
}

// Filled 是否已成交（matched）
func (r OrderResult) Filled() bool {
	return r.Success && r.Status == OrderStatusMatched
}

// OpenOrder 订单详情
type OpenOrder struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	Owner           string   `json:"owner"`
	MakerAddress    string   `json:"maker_address"`
	Market          string   `json:"market"`
	AssetID         string   `json:"asset_id"`
	Side            string   `json:"side"`
	OriginalSize    string   `json:"original_size"`
	SizeMatched     string   `json:"size_matched"`
	Price           string   `json:"price"`
	AssociateTrades []string `json:"associate_trades"`
	Outcome         string   `json:"outcome"`
	CreatedAt       int64    `json:"created_at"`
	Expiration      string   `json:"expiration"`
	OrderType       string   `json:"order_type"`
}

// MatchedSize 已成交数量
func (o *OpenOrder) MatchedSize() decimal.Decimal {
	d, err := decimal.NewFromString(o.SizeMatched)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OpenOrdersAPIResponse GET /data/orders 分页响应
type OpenOrdersAPIResponse struct {
	Data       []OpenOrder `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// OpenOrderParams 查询开放订单参数
type OpenOrderParams struct {
	ID      *string
	Market  *string
	AssetID *string
}

// CreateOrderOptions 创建订单选项
type CreateOrderOptions struct {
	TickSize TickSize
	NegRisk  bool
}

// CancelResponse 撤单响应
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}
