package client

import (
	"context"

	"github.com/betbot/polyclob/clob/auth"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/ratelimit"
)

func (c *Client) l1Headers(nonce int64) (*types.L1PolyHeader, error) {
	return auth.L1Headers(c.key, c.chainID, nonce, 0)
}

// CreateAPIKey 创建新的 API 密钥（L1）
func (c *Client) CreateAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	var raw types.ApiKeyRaw
	err := c.do(ctx, request{
		op: "create_api_key", route: ratelimit.RouteAuth,
		method: "POST", path: EndpointCreateAPIKey,
		auth: authL1, l1Nonce: nonce,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw.ToCreds(), nil
}

// DeriveAPIKey 推导已存在的 API 密钥（L1）
func (c *Client) DeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	var raw types.ApiKeyRaw
	err := c.do(ctx, request{
		op: "derive_api_key", route: ratelimit.RouteAuth,
		method: "GET", path: EndpointDeriveAPIKey,
		auth: authL1, l1Nonce: nonce,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw.ToCreds(), nil
}

// CreateOrDeriveAPIKey 先尝试推导，账户没有密钥（被拒绝）时再创建
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	creds, err := c.DeriveAPIKey(ctx, nonce)
	if err == nil && creds.Valid() {
		return creds, nil
	}
	if err != nil && types.KindOf(err) != types.KindRemoteRejection {
		return nil, err
	}
	clobLog.Infof("未找到可推导的 API 密钥，创建新密钥")
	return c.CreateAPIKey(ctx, nonce)
}
