package client

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/ratelimit"
)

// GetServerTime 服务器时间（秒）
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	var ts types.ServerTimeResponse
	err := c.do(ctx, request{
		op: "get_server_time", route: ratelimit.RouteGeneral,
		method: "GET", path: EndpointTime,
	}, &ts)
	return int64(ts), err
}

// GetOrderBook 获取订单簿快照
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBookSummary, error) {
	var book types.OrderBookSummary
	err := c.do(ctx, request{
		op: "get_order_book", route: ratelimit.RouteBookGet,
		method: "GET", path: EndpointGetOrderBook,
		query: map[string]string{"token_id": tokenID},
	}, &book)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FetchBook 行情流缺口后的快照来源
func (c *Client) FetchBook(ctx context.Context, assetID string) (*types.OrderBookSummary, error) {
	return c.GetOrderBook(ctx, assetID)
}

// GetPrice 获取某一方向的最优价格
func (c *Client) GetPrice(ctx context.Context, tokenID string, side types.Side) (decimal.Decimal, error) {
	var resp types.PriceResponse
	err := c.do(ctx, request{
		op: "get_price", route: ratelimit.RoutePriceGet,
		method: "GET", path: EndpointGetPrice,
		query: map[string]string{"token_id": tokenID, "side": string(side)},
	}, &resp)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(resp.Price)
}

// GetMidpoint 获取中间价
func (c *Client) GetMidpoint(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	var resp types.MidpointResponse
	err := c.do(ctx, request{
		op: "get_midpoint", route: ratelimit.RoutePriceGet,
		method: "GET", path: EndpointGetMidpoint,
		query: map[string]string{"token_id": tokenID},
	}, &resp)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(resp.Mid)
}

// GetTickSize 获取最小价格步长，结果按 token 缓存
func (c *Client) GetTickSize(ctx context.Context, tokenID string) (types.TickSize, error) {
	if v, ok := c.tickSizes.Load(tokenID); ok {
		return v.(types.TickSize), nil
	}
	var resp types.TickSizeResponse
	err := c.do(ctx, request{
		op: "get_tick_size", route: ratelimit.RouteGeneral,
		method: "GET", path: EndpointGetTickSize,
		query: map[string]string{"token_id": tokenID},
	}, &resp)
	if err != nil {
		return "", err
	}
	ts := types.TickSize(strconv.FormatFloat(resp.MinimumTickSize, 'f', -1, 64))
	if _, ok := RoundingConfig[ts]; !ok {
		return "", types.Errorf(types.KindRemoteRejection, "get_tick_size", "不支持的 tick size: %s", ts)
	}
	c.tickSizes.Store(tokenID, ts)
	return ts, nil
}

// GetNegRisk 查询是否为 neg-risk 市场，结果按 token 缓存
func (c *Client) GetNegRisk(ctx context.Context, tokenID string) (bool, error) {
	if v, ok := c.negRisk.Load(tokenID); ok {
		return v.(bool), nil
	}
	var resp types.NegRiskResponse
	err := c.do(ctx, request{
		op: "get_neg_risk", route: ratelimit.RouteGeneral,
		method: "GET", path: EndpointGetNegRisk,
		query: map[string]string{"token_id": tokenID},
	}, &resp)
	if err != nil {
		return false, err
	}
	c.negRisk.Store(tokenID, resp.NegRisk)
	return resp.NegRisk, nil
}
