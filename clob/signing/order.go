package signing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/keyvault"
)

// orderTypes 交易所 Order 结构，字段顺序必须与合约一致
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

// ExchangeDomain 订单签名域
type ExchangeDomain struct {
	ChainID           types.Chain
	VerifyingContract string
}

func orEmpty(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// HashOrder 计算订单的 EIP712 摘要
func HashOrder(domain ExchangeDomain, order *types.Order) ([]byte, error) {
	if order == nil {
		return nil, fmt.Errorf("order is nil")
	}
	if order.TokenID == nil || order.MakerAmount == nil || order.TakerAmount == nil {
		return nil, fmt.Errorf("order amounts/tokenId are required")
	}
	if !common.IsHexAddress(domain.VerifyingContract) {
		return nil, fmt.Errorf("invalid verifying contract: %q", domain.VerifyingContract)
	}

	taker := order.Taker
	if taker == "" {
		taker = types.ZeroAddress
	}

	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              ExchangeDomainName,
			Version:           ExchangeVersion,
			ChainId:           math.NewHexOrDecimal256(int64(domain.ChainID)),
			VerifyingContract: common.HexToAddress(domain.VerifyingContract).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"salt":          big.NewInt(order.Salt),
			"maker":         common.HexToAddress(order.Maker).Hex(),
			"signer":        common.HexToAddress(order.Signer).Hex(),
			"taker":         common.HexToAddress(taker).Hex(),
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    orEmpty(order.Expiration),
			"nonce":         orEmpty(order.Nonce),
			"feeRateBps":    orEmpty(order.FeeRateBps),
			"side":          big.NewInt(int64(order.Side.Uint8())),
			"signatureType": big.NewInt(int64(order.SignatureType)),
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}
	return hash, nil
}

// OrderSigner 订单签名器，私钥由调用方注入
type OrderSigner struct {
	key     keyvault.SigningKey
	chainID types.Chain
}

// NewOrderSigner 创建订单签名器
func NewOrderSigner(key keyvault.SigningKey, chainID types.Chain) *OrderSigner {
	return &OrderSigner{key: key, chainID: chainID}
}

// Address 签名者地址
func (s *OrderSigner) Address() common.Address {
	return s.key.Address()
}

// ChainID 链 ID
func (s *OrderSigner) ChainID() types.Chain {
	return s.chainID
}

// Sign 对订单签名。相同字段（含 salt）得到相同签名。
// 仅在私钥不可用时失败；字段合法性由调用方负责。
func (s *OrderSigner) Sign(order *types.Order, verifyingContract string) (*types.SignedOrder, error) {
	if s == nil || !s.key.Valid() {
		return nil, ErrKeyUnavailable
	}
	hash, err := HashOrder(ExchangeDomain{ChainID: s.chainID, VerifyingContract: verifyingContract}, order)
	if err != nil {
		return nil, err
	}
	sig, err := SignHash(s.key.PrivateKey(), hash)
	if err != nil {
		return nil, err
	}

	taker := order.Taker
	if taker == "" {
		taker = types.ZeroAddress
	}
	return &types.SignedOrder{
		Salt:          order.Salt,
		Maker:         common.HexToAddress(order.Maker).Hex(),
		Signer:        common.HexToAddress(order.Signer).Hex(),
		Taker:         common.HexToAddress(taker).Hex(),
		TokenID:       order.TokenID.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Expiration:    orEmpty(order.Expiration).String(),
		Nonce:         orEmpty(order.Nonce).String(),
		FeeRateBps:    orEmpty(order.FeeRateBps).String(),
		Side:          order.Side,
		SignatureType: int(order.SignatureType),
		Signature:     sig,
	}, nil
}
