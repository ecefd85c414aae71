package client

import (
	"context"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/ratelimit"
)

// PostOrder 提交已签名订单。
// 业务拒绝（success=false）返回 RemoteRejection；请求超时返回 OutcomeUnknown，
// 调用方需要查询订单后才能确认结果。
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (types.OrderResult, error) {
	creds := c.Creds()
	if creds == nil {
		return types.OrderResult{}, types.Errorf(types.KindAuthFailure, "post_order", "API 凭证未配置")
	}
	if orderType == "" {
		orderType = types.OrderTypeGTC
	}
	payload := types.NewOrder{
		Order:     *order,
		Owner:     creds.Key,
		OrderType: orderType,
	}

	var resp types.OrderResponse
	err := c.do(ctx, request{
		op: "post_order", route: ratelimit.RouteOrderPost,
		method: "POST", path: EndpointPostOrder,
		body: payload, auth: authL2, submit: true,
	}, &resp)
	if err != nil {
		return types.OrderResult{}, err
	}

	result := types.OrderResultFromResponse(&resp)
	if !result.Success {
		return result, types.Errorf(types.KindRemoteRejection, "post_order", "%s", result.Message)
	}
	clobLog.Infof("订单已提交: id=%s status=%s", result.OrderID, result.Status)
	return result, nil
}

// CancelOrder 撤销单个订单
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.CancelResponse, error) {
	var resp types.CancelResponse
	err := c.do(ctx, request{
		op: "cancel_order", route: ratelimit.RouteOrderDelete,
		method: "DELETE", path: EndpointCancelOrder,
		body: map[string]string{"orderID": orderID}, auth: authL2,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelOrders 批量撤单
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) (*types.CancelResponse, error) {
	if len(orderIDs) == 0 {
		return &types.CancelResponse{}, nil
	}
	var resp types.CancelResponse
	err := c.do(ctx, request{
		op: "cancel_orders", route: ratelimit.RouteOrdersDelete,
		method: "DELETE", path: EndpointCancelOrders,
		body: orderIDs, auth: authL2,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelAll 撤销全部挂单
func (c *Client) CancelAll(ctx context.Context) (*types.CancelResponse, error) {
	var resp types.CancelResponse
	err := c.do(ctx, request{
		op: "cancel_all", route: ratelimit.RouteOrdersDelete,
		method: "DELETE", path: EndpointCancelAll,
		auth: authL2,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrder 查询订单
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error) {
	var order types.OpenOrder
	err := c.do(ctx, request{
		op: "get_order", route: ratelimit.RouteOrdersGet,
		method: "GET", path: EndpointGetOrder + orderID,
		auth: authL2,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOpenOrders 查询全部开放订单（自动翻页）
func (c *Client) GetOpenOrders(ctx context.Context, params *types.OpenOrderParams) ([]types.OpenOrder, error) {
	query := map[string]string{}
	if params != nil {
		if params.ID != nil {
			query["id"] = *params.ID
		}
		if params.Market != nil {
			query["market"] = *params.Market
		}
		if params.AssetID != nil {
			query["asset_id"] = *params.AssetID
		}
	}

	var orders []types.OpenOrder
	cursor := ""
	for {
		if cursor != "" {
			query["next_cursor"] = cursor
		}
		var page types.OpenOrdersAPIResponse
		err := c.do(ctx, request{
			op: "get_open_orders", route: ratelimit.RouteOrdersGet,
			method: "GET", path: EndpointGetOpenOrders,
			query: query, auth: authL2,
		}, &page)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page.Data...)
		if page.NextCursor == "" || page.NextCursor == endCursor || page.NextCursor == cursor {
			return orders, nil
		}
		cursor = page.NextCursor
	}
}
