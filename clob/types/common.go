package types

import "strings"

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide 解析方向（大小写不敏感）
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// Uint8 返回 EIP712 中使用的数值：BUY = 0, SELL = 1
func (s Side) Uint8() uint8 {
	if s == SideBuy {
		return 0
	}
	return 1
}

// Opposite 返回反方向
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType 订单类型
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel
	OrderTypeFOK OrderType = "FOK" // Fill or Kill
	OrderTypeGTD OrderType = "GTD" // Good Till Date
	OrderTypeFAK OrderType = "FAK" // Fill and Kill
)

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名类型
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // 普通外部账户
	SignatureTypePolyProxy  SignatureType = 1 // POLY_PROXY（Magic 邮箱登录）
	SignatureTypeGnosisSafe SignatureType = 2 // GNOSIS_SAFE 代理钱包
)

// IsContractWallet 是否为合约钱包签名
func (t SignatureType) IsContractWallet() bool {
	return t == SignatureTypePolyProxy || t == SignatureTypeGnosisSafe
}

// TickSize 价格精度
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ApiKeyCreds API 密钥凭证
type ApiKeyCreds struct {
	Key        string
	Secret     string
	Passphrase string
}

// Valid 三项都存在才可用于 L2 认证
func (c *ApiKeyCreds) Valid() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// ToCreds 转换为凭证
func (r ApiKeyRaw) ToCreds() *ApiKeyCreds {
	return &ApiKeyCreds{Key: r.ApiKey, Secret: r.Secret, Passphrase: r.Passphrase}
}
