package types

// OrderBookSummary GET /book 响应，与 WS book 事件结构一致
type OrderBookSummary struct {
	Market       string         `json:"market"`
	AssetID      string         `json:"asset_id"`
	Timestamp    string         `json:"timestamp"`
	Bids         []OrderSummary `json:"bids"`
	Asks         []OrderSummary `json:"asks"`
	MinOrderSize string         `json:"min_order_size"`
	TickSize     string         `json:"tick_size"`
	NegRisk      bool           `json:"neg_risk"`
	Hash         string         `json:"hash"`
}

// OrderSummary 价位
type OrderSummary struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// PriceResponse GET /price
type PriceResponse struct {
	Price string `json:"price"`
}

// MidpointResponse GET /midpoint
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// TickSizeResponse GET /tick-size
type TickSizeResponse struct {
	MinimumTickSize float64 `json:"minimum_tick_size"`
}

// NegRiskResponse GET /neg-risk
type NegRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

// ServerTimeResponse GET /time 返回秒级时间戳
type ServerTimeResponse int64
