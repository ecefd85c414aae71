package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
)

func newTestBuilder(t *testing.T) *OrderBuilder {
	t.Helper()
	ob, err := NewOrderBuilder(signing.NewOrderSigner(testKey(t), types.ChainPolygon), types.SignatureTypeEOA, "")
	require.NoError(t, err)
	ob.newSalt = func() (int64, error) { return 479249096354, nil }
	return ob
}

func userOrder(side types.Side, price, size string) *types.UserOrder {
	return &types.UserOrder{
		TokenID: "1234",
		Price:   decimal.RequireFromString(price),
		Size:    decimal.RequireFromString(size),
		Side:    side,
	}
}

func TestBuildMatchesKnownSignature(t *testing.T) {
	ob := newTestBuilder(t)
	signed, err := ob.Build(userOrder(types.SideBuy, "0.45", "10"), types.CreateOrderOptions{TickSize: types.TickSize001})
	require.NoError(t, err)

	assert.Equal(t, "4500000", signed.MakerAmount)
	assert.Equal(t, "10000000", signed.TakerAmount)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signed.Maker)
	assert.Equal(t, types.ZeroAddress, signed.Taker)
	assert.Equal(t,
		"0x9590b62c663dd021cbd1002941d302e8f38590675f9865764aabc2494018fb0e068ecfeae77bebe7b3f1c629c30517b631234b3a1875f723230ee50cfb8584a91c",
		signed.Signature)
}

func TestBuildWithHashReturnsOrderID(t *testing.T) {
	ob := newTestBuilder(t)
	signed, orderID, err := ob.BuildWithHash(userOrder(types.SideBuy, "0.45", "10"), types.CreateOrderOptions{TickSize: types.TickSize001})
	require.NoError(t, err)
	assert.Equal(t, "0x62a0f46f1e3112457e60dee421602e77ffd9cafe205b712c6ff215e4606c2222", orderID)
	assert.Equal(t, "4500000", signed.MakerAmount)
}

func TestBuildSellSwapsAmounts(t *testing.T) {
	ob := newTestBuilder(t)
	order, err := ob.BuildUnsigned(userOrder("sell", "0.45", "10"), types.CreateOrderOptions{TickSize: types.TickSize001})
	require.NoError(t, err)
	assert.Equal(t, types.SideSell, order.Side)
	assert.Equal(t, "10000000", order.MakerAmount.String())
	assert.Equal(t, "4500000", order.TakerAmount.String())
}

func TestBuildRounding(t *testing.T) {
	ob := newTestBuilder(t)

	// size 向下取 2 位，价格按 tick 取 2 位
	order, err := ob.BuildUnsigned(userOrder(types.SideBuy, "0.333", "10.555"), types.CreateOrderOptions{TickSize: types.TickSize001})
	require.NoError(t, err)
	assert.Equal(t, "10550000", order.TakerAmount.String())
	assert.Equal(t, "3481500", order.MakerAmount.String())

	// tick 0.1：金额最多 3 位小数
	order, err = ob.BuildUnsigned(userOrder(types.SideBuy, "0.5", "3.33"), types.CreateOrderOptions{TickSize: types.TickSize01})
	require.NoError(t, err)
	assert.Equal(t, "3330000", order.TakerAmount.String())
	assert.Equal(t, "1665000", order.MakerAmount.String())
}

func TestBuildNegRiskUsesNegRiskExchange(t *testing.T) {
	ob := newTestBuilder(t)
	uo := userOrder(types.SideBuy, "0.45", "10")
	opts := types.CreateOrderOptions{TickSize: types.TickSize001}

	plain, err := ob.Build(uo, opts)
	require.NoError(t, err)
	opts.NegRisk = true
	neg, err := ob.Build(uo, opts)
	require.NoError(t, err)
	assert.NotEqual(t, plain.Signature, neg.Signature)

	order, err := ob.BuildUnsigned(uo, opts)
	require.NoError(t, err)
	hash, err := signing.HashOrder(signing.ExchangeDomain{ChainID: types.ChainPolygon, VerifyingContract: PolygonMainnetContracts.NegRiskExchange}, order)
	require.NoError(t, err)
	addr, err := signing.RecoverAddress(hash, neg.Signature)
	require.NoError(t, err)
	assert.Equal(t, testKey(t).Address(), addr)
}

func TestBuildFunderIsMaker(t *testing.T) {
	funder := "0x6e0c80c90ea6c15917308F820Eac91Ce2724B5b5"
	ob, err := NewOrderBuilder(signing.NewOrderSigner(testKey(t), types.ChainPolygon), types.SignatureTypeGnosisSafe, funder)
	require.NoError(t, err)
	order, err := ob.BuildUnsigned(userOrder(types.SideBuy, "0.45", "10"), types.CreateOrderOptions{})
	require.NoError(t, err)
	assert.Equal(t, funder, order.Maker)
	assert.Equal(t, testKey(t).Address().Hex(), order.Signer)
	assert.Equal(t, types.SignatureTypeGnosisSafe, order.SignatureType)
}

func TestBuildValidation(t *testing.T) {
	ob := newTestBuilder(t)
	opts := types.CreateOrderOptions{TickSize: types.TickSize001}
	cases := map[string]*types.UserOrder{
		"zero price":     userOrder(types.SideBuy, "0", "10"),
		"price above 1":  userOrder(types.SideBuy, "1.01", "10"),
		"negative size":  userOrder(types.SideBuy, "0.5", "-1"),
		"zero size":      userOrder(types.SideBuy, "0.5", "0"),
		"bad side":       userOrder("HOLD", "0.5", "10"),
		"rounds to zero": userOrder(types.SideBuy, "0.5", "0.001"),
		"bad token":      {TokenID: "abc", Price: decimal.RequireFromString("0.5"), Size: decimal.NewFromInt(1), Side: types.SideBuy},
	}
	for name, uo := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ob.Build(uo, opts)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}

	_, err := ob.Build(userOrder(types.SideBuy, "0.5", "10"), types.CreateOrderOptions{TickSize: "0.5"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestBuildOptionalFields(t *testing.T) {
	ob := newTestBuilder(t)
	fee, nonce, exp := int64(10), int64(3), int64(1800000000)
	uo := userOrder(types.SideBuy, "0.45", "10")
	uo.FeeRateBps, uo.Nonce, uo.Expiration = &fee, &nonce, &exp

	signed, err := ob.Build(uo, types.CreateOrderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "10", signed.FeeRateBps)
	assert.Equal(t, "3", signed.Nonce)
	assert.Equal(t, "1800000000", signed.Expiration)
}
