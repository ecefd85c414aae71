package websocket

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/marketstate"
)

// flexInt 兼容 "1700000000000" 与 1700000000000 两种写法
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid timestamp %q", s)
	}
	*f = flexInt(v)
	return nil
}

type wireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type eventHeader struct {
	EventType string `json:"event_type"`
}

// bookMessage 全量快照。旧版本协议使用 buys/sells
type bookMessage struct {
	AssetID   string      `json:"asset_id"`
	Market    string      `json:"market"`
	Bids      []wireLevel `json:"bids"`
	Asks      []wireLevel `json:"asks"`
	Buys      []wireLevel `json:"buys"`
	Sells     []wireLevel `json:"sells"`
	Timestamp flexInt     `json:"timestamp"`
	Hash      string      `json:"hash"`
}

func (b *bookMessage) levels() (bids, asks []marketstate.Level, err error) {
	rawBids, rawAsks := b.Bids, b.Asks
	if len(rawBids) == 0 {
		rawBids = b.Buys
	}
	if len(rawAsks) == 0 {
		rawAsks = b.Sells
	}
	if bids, err = parseLevels(rawBids); err != nil {
		return nil, nil, err
	}
	if asks, err = parseLevels(rawAsks); err != nil {
		return nil, nil, err
	}
	return bids, asks, nil
}

type priceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"`
	Hash    string `json:"hash"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

// priceChangeMessage 增量。新协议把每个资产的变化放在 price_changes 里，
// 旧协议是单资产的 changes
type priceChangeMessage struct {
	AssetID      string        `json:"asset_id"`
	Market       string        `json:"market"`
	PriceChanges []priceChange `json:"price_changes"`
	Changes      []priceChange `json:"changes"`
	Timestamp    flexInt       `json:"timestamp"`
	Hash         string        `json:"hash"`
}

// assetDelta 单个资产的一组增量
type assetDelta struct {
	assetID string
	changes []marketstate.Change
	meta    marketstate.Meta
}

// deltas 按资产分组，保持资产首次出现的顺序
func (p *priceChangeMessage) deltas() ([]assetDelta, error) {
	items := p.PriceChanges
	if len(items) == 0 {
		items = p.Changes
	}
	var out []assetDelta
	index := make(map[string]int)
	for _, it := range items {
		asset := it.AssetID
		if asset == "" {
			asset = p.AssetID
		}
		if asset == "" {
			continue
		}
		side, ok := types.ParseSide(it.Side)
		if !ok {
			return nil, errors.Errorf("price_change: invalid side %q", it.Side)
		}
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "price_change: price %q", it.Price)
		}
		size, err := decimal.NewFromString(it.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "price_change: size %q", it.Size)
		}

		i, seen := index[asset]
		if !seen {
			i = len(out)
			index[asset] = i
			out = append(out, assetDelta{
				assetID: asset,
				meta:    marketstate.Meta{Market: p.Market, Hash: p.Hash, Timestamp: int64(p.Timestamp)},
			})
		}
		if it.Hash != "" {
			out[i].meta.Hash = it.Hash
		}
		out[i].changes = append(out[i].changes, marketstate.Change{Side: side, Price: price, Size: size})
	}
	return out, nil
}

type lastTradeMessage struct {
	AssetID   string  `json:"asset_id"`
	Market    string  `json:"market"`
	Price     string  `json:"price"`
	Size      string  `json:"size"`
	Side      string  `json:"side"`
	Timestamp flexInt `json:"timestamp"`
}

type tickSizeMessage struct {
	AssetID     string  `json:"asset_id"`
	Market      string  `json:"market"`
	OldTickSize string  `json:"old_tick_size"`
	NewTickSize string  `json:"new_tick_size"`
	Timestamp   flexInt `json:"timestamp"`
}

func parseLevels(raw []wireLevel) ([]marketstate.Level, error) {
	out := make([]marketstate.Level, 0, len(raw))
	for _, l := range raw {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "level price %q", l.Price)
		}
		size, err := decimal.NewFromString(l.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "level size %q", l.Size)
		}
		out = append(out, marketstate.Level{Price: price, Size: size})
	}
	return out, nil
}

// snapshotFromSummary 把 REST /book 响应转换成快照参数
func snapshotFromSummary(s *types.OrderBookSummary) (bids, asks []marketstate.Level, meta marketstate.Meta, err error) {
	conv := func(in []types.OrderSummary) []wireLevel {
		out := make([]wireLevel, len(in))
		for i, l := range in {
			out[i] = wireLevel{Price: l.Price, Size: l.Size}
		}
		return out
	}
	if bids, err = parseLevels(conv(s.Bids)); err != nil {
		return
	}
	if asks, err = parseLevels(conv(s.Asks)); err != nil {
		return
	}
	var ts flexInt
	if s.Timestamp != "" {
		if err = ts.UnmarshalJSON([]byte(s.Timestamp)); err != nil {
			return
		}
	}
	meta = marketstate.Meta{Market: s.Market, Hash: s.Hash, Timestamp: int64(ts)}
	return
}

// getProxyFromEnv 从环境变量获取代理 URL
func getProxyFromEnv() string {
	proxyVars := []string{"HTTPS_PROXY", "HTTP_PROXY", "https_proxy", "http_proxy"}
	for _, v := range proxyVars {
		if proxy := strings.TrimSpace(os.Getenv(v)); proxy != "" {
			return proxy
		}
	}
	return ""
}

func preview(b []byte) string {
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}
