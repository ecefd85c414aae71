package stream

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/internal/marketstate"
)

// EventKind 市场事件类型
type EventKind string

const (
	EventBook        EventKind = "book"
	EventPriceChange EventKind = "price_change"
	EventLastTrade   EventKind = "last_trade_price"
	EventTickSize    EventKind = "tick_size_change"
	// EventResync 缺口后通过 REST 快照重建了订单簿
	EventResync EventKind = "resync"
)

// BookEvent 订单簿相关事件。
// Book 是事件发生后发布的不可变快照，LastTrade/TickSize 事件可能为 nil。
type BookEvent struct {
	Kind    EventKind
	AssetID string
	Market  string
	Book    *marketstate.Book

	// last_trade_price
	TradePrice decimal.Decimal
	TradeSize  decimal.Decimal

	// tick_size_change
	OldTickSize string
	NewTickSize string

	ReceivedAt time.Time
}

// State 行情连接状态
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateLive
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// MarshalText 状态以字符串输出（status 接口）
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
