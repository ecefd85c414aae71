package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
)

// RoundConfig 舍入配置（小数位数）
type RoundConfig struct {
	Price  int32
	Size   int32
	Amount int32
}

// RoundingConfig 根据 tick size 返回舍入配置
var RoundingConfig = map[types.TickSize]RoundConfig{
	types.TickSize01:    {Price: 1, Size: 2, Amount: 3},
	types.TickSize001:   {Price: 2, Size: 2, Amount: 4},
	types.TickSize0001:  {Price: 3, Size: 2, Amount: 5},
	types.TickSize00001: {Price: 4, Size: 2, Amount: 6},
}

// ErrInvalidOrder 订单参数不合法
var ErrInvalidOrder = fmt.Errorf("invalid order")

// OrderBuilder 订单构建器：校验、舍入、计算金额、签名
type OrderBuilder struct {
	signer        *signing.OrderSigner
	signatureType types.SignatureType
	funderAddress string
	contracts     ContractConfig
	newSalt       func() (int64, error)
}

// NewOrderBuilder 创建订单构建器。funderAddress 为空时 maker 等于签名地址。
func NewOrderBuilder(signer *signing.OrderSigner, signatureType types.SignatureType, funderAddress string) (*OrderBuilder, error) {
	contracts, err := GetContractConfig(signer.ChainID())
	if err != nil {
		return nil, err
	}
	if funderAddress != "" && !common.IsHexAddress(funderAddress) {
		return nil, fmt.Errorf("无效的 funder 地址: %s", funderAddress)
	}
	return &OrderBuilder{
		signer:        signer,
		signatureType: signatureType,
		funderAddress: funderAddress,
		contracts:     *contracts,
		newSalt:       signing.NewSalt,
	}, nil
}

// Build 构建并签名订单
func (ob *OrderBuilder) Build(userOrder *types.UserOrder, opts types.CreateOrderOptions) (*types.SignedOrder, error) {
	order, err := ob.BuildUnsigned(userOrder, opts)
	if err != nil {
		return nil, err
	}
	return ob.signer.Sign(order, ob.exchange(opts.NegRisk))
}

// BuildWithHash 构建并签名订单，同时返回订单哈希（即交易所的订单 ID）
func (ob *OrderBuilder) BuildWithHash(userOrder *types.UserOrder, opts types.CreateOrderOptions) (*types.SignedOrder, string, error) {
	order, err := ob.BuildUnsigned(userOrder, opts)
	if err != nil {
		return nil, "", err
	}
	exchange := ob.exchange(opts.NegRisk)
	hash, err := signing.HashOrder(signing.ExchangeDomain{ChainID: ob.signer.ChainID(), VerifyingContract: exchange}, order)
	if err != nil {
		return nil, "", err
	}
	signed, err := ob.signer.Sign(order, exchange)
	if err != nil {
		return nil, "", err
	}
	return signed, hexutil.Encode(hash), nil
}

func (ob *OrderBuilder) exchange(negRisk bool) string {
	if negRisk {
		return ob.contracts.NegRiskExchange
	}
	return ob.contracts.Exchange
}

// BuildUnsigned 校验并计算订单字段，不签名
func (ob *OrderBuilder) BuildUnsigned(userOrder *types.UserOrder, opts types.CreateOrderOptions) (*types.Order, error) {
	if userOrder == nil {
		return nil, fmt.Errorf("%w: order is nil", ErrInvalidOrder)
	}
	side, ok := types.ParseSide(string(userOrder.Side))
	if !ok {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidOrder, userOrder.Side)
	}
	if !userOrder.Price.IsPositive() || userOrder.Price.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: price %s not in (0, 1]", ErrInvalidOrder, userOrder.Price)
	}
	if !userOrder.Size.IsPositive() {
		return nil, fmt.Errorf("%w: size %s must be positive", ErrInvalidOrder, userOrder.Size)
	}
	tickSize := opts.TickSize
	if tickSize == "" {
		tickSize = types.TickSize001
	}
	rc, ok := RoundingConfig[tickSize]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported tick size %s", ErrInvalidOrder, tickSize)
	}

	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(userOrder.TokenID), 10)
	if !ok || tokenID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tokenID %q", ErrInvalidOrder, userOrder.TokenID)
	}

	rawMaker, rawTaker := getOrderRawAmounts(side, userOrder.Size, userOrder.Price, rc)
	makerAmount := parseUnits(rawMaker, CollateralTokenDecimals)
	takerAmount := parseUnits(rawTaker, CollateralTokenDecimals)
	if makerAmount.Sign() <= 0 || takerAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: size %s rounds to zero", ErrInvalidOrder, userOrder.Size)
	}

	salt, err := ob.newSalt()
	if err != nil {
		return nil, fmt.Errorf("生成 salt 失败: %w", err)
	}

	signer := ob.signer.Address().Hex()
	maker := signer
	if ob.funderAddress != "" {
		maker = common.HexToAddress(ob.funderAddress).Hex()
	}
	taker := types.ZeroAddress
	if userOrder.Taker != nil && *userOrder.Taker != "" {
		taker = *userOrder.Taker
	}

	return &types.Order{
		Salt:          salt,
		Maker:         maker,
		Signer:        signer,
		Taker:         taker,
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    optionalInt(userOrder.Expiration),
		Nonce:         optionalInt(userOrder.Nonce),
		FeeRateBps:    optionalInt(userOrder.FeeRateBps),
		Side:          side,
		SignatureType: ob.signatureType,
	}, nil
}

func optionalInt(v *int64) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return big.NewInt(*v)
}

// decimalPlaces 返回小数位数（不计末尾 0）
func decimalPlaces(d decimal.Decimal) int32 {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}

// getOrderRawAmounts 计算 maker/taker 金额。
// BUY: maker 支付 size*price USDC，taker 得到 size 份；SELL 相反。
func getOrderRawAmounts(side types.Side, size, price decimal.Decimal, rc RoundConfig) (rawMaker, rawTaker decimal.Decimal) {
	rawPrice := price.Round(rc.Price)
	shares := size.RoundFloor(rc.Size)

	amount := shares.Mul(rawPrice)
	if decimalPlaces(amount) > rc.Amount {
		amount = amount.RoundCeil(rc.Amount + 4)
		if decimalPlaces(amount) > rc.Amount {
			amount = amount.RoundFloor(rc.Amount)
		}
	}

	if side == types.SideBuy {
		return amount, shares
	}
	return shares, amount
}

// parseUnits 按精度转换为整数单位，向下取整
func parseUnits(value decimal.Decimal, decimals int32) *big.Int {
	return value.Shift(decimals).Floor().BigInt()
}

// CreateOrder 查询 tick size / neg-risk 后构建并签名订单
func (c *Client) CreateOrder(ctx context.Context, ob *OrderBuilder, userOrder *types.UserOrder) (*types.SignedOrder, error) {
	tickSize, err := c.GetTickSize(ctx, userOrder.TokenID)
	if err != nil {
		return nil, err
	}
	negRisk, err := c.GetNegRisk(ctx, userOrder.TokenID)
	if err != nil {
		return nil, err
	}
	return ob.Build(userOrder, types.CreateOrderOptions{TickSize: tickSize, NegRisk: negRisk})
}

// CreateAndPostOrder 构建、签名并提交订单
func (c *Client) CreateAndPostOrder(ctx context.Context, ob *OrderBuilder, userOrder *types.UserOrder, orderType types.OrderType) (types.OrderResult, error) {
	signed, err := c.CreateOrder(ctx, ob, userOrder)
	if err != nil {
		return types.OrderResult{}, err
	}
	return c.PostOrder(ctx, signed, orderType)
}

// SubmitOrder 与 CreateAndPostOrder 相同，但总是返回本地计算的订单 ID，
// 提交结果未知时可以用它查询对账
func (c *Client) SubmitOrder(ctx context.Context, ob *OrderBuilder, userOrder *types.UserOrder, orderType types.OrderType) (types.OrderResult, string, error) {
	tickSize, err := c.GetTickSize(ctx, userOrder.TokenID)
	if err != nil {
		return types.OrderResult{}, "", err
	}
	negRisk, err := c.GetNegRisk(ctx, userOrder.TokenID)
	if err != nil {
		return types.OrderResult{}, "", err
	}
	signed, orderID, err := ob.BuildWithHash(userOrder, types.CreateOrderOptions{TickSize: tickSize, NegRisk: negRisk})
	if err != nil {
		return types.OrderResult{}, "", err
	}
	res, err := c.PostOrder(ctx, signed, orderType)
	if res.OrderID == "" {
		res.OrderID = orderID
	}
	return res, orderID, err
}
