package client

// API 端点
const (
	EndpointTime = "/time"

	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"

	EndpointGetOrderBook = "/book"
	EndpointGetMidpoint  = "/midpoint"
	EndpointGetPrice     = "/price"
	EndpointGetTickSize  = "/tick-size"
	EndpointGetNegRisk   = "/neg-risk"

	EndpointPostOrder     = "/order"
	EndpointCancelOrder   = "/order"
	EndpointCancelOrders  = "/orders"
	EndpointCancelAll     = "/cancel-all"
	EndpointGetOrder      = "/data/order/"
	EndpointGetOpenOrders = "/data/orders"
)

// endCursor 分页结束标记
const endCursor = "LTE="
