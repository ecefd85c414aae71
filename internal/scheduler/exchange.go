package scheduler

import (
	"context"

	"github.com/betbot/polyclob/clob/client"
	"github.com/betbot/polyclob/clob/types"
)

// Exchange 订单提交与查询
type Exchange interface {
	// SubmitOrder 签名并提交订单。即使返回错误，也应尽量返回本地计算的订单 ID。
	SubmitOrder(ctx context.Context, order *types.UserOrder, orderType types.OrderType) (types.OrderResult, string, error)
	GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error)
}

// ClientExchange 基于 CLOB REST 客户端的 Exchange
type ClientExchange struct {
	Client  *client.Client
	Builder *client.OrderBuilder
}

func NewClientExchange(c *client.Client, b *client.OrderBuilder) *ClientExchange {
	return &ClientExchange{Client: c, Builder: b}
}

func (e *ClientExchange) SubmitOrder(ctx context.Context, order *types.UserOrder, orderType types.OrderType) (types.OrderResult, string, error) {
	return e.Client.SubmitOrder(ctx, e.Builder, order, orderType)
}

func (e *ClientExchange) GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error) {
	return e.Client.GetOrder(ctx, orderID)
}
