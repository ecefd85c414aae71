package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
)

// Position 持仓
type Position struct {
	ID       string          `json:"id"`
	AssetID  string          `json:"asset_id"`
	Market   string          `json:"market,omitempty"`
	Side     types.Side      `json:"side"`
	Entry    decimal.Decimal `json:"entry_price"`
	Size     decimal.Decimal `json:"size"`
	OpenedAt time.Time       `json:"opened_at"`

	// 阈值为零表示未设置
	TakeProfit decimal.Decimal `json:"take_profit"`
	StopLoss   decimal.Decimal `json:"stop_loss"`

	OrderID string `json:"order_id,omitempty"`
	// OverCap 成交时已达到持仓上限
	OverCap bool `json:"over_cap,omitempty"`
}

// Notional 入场名义金额（USDC）
func (p *Position) Notional() decimal.Decimal {
	return p.Entry.Mul(p.Size)
}

func (p *Position) clone() *Position {
	cp := *p
	return &cp
}

// UnrealizedPnl 按中间价计算未实现盈亏。
// BUY: (mid - entry) * size；SELL: (entry - mid) * size
func UnrealizedPnl(p *Position, mid decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return pnl(p.Side, p.Entry, mid, p.Size)
}

func pnl(side types.Side, entry, exit, size decimal.Decimal) decimal.Decimal {
	if side == types.SideSell {
		return entry.Sub(exit).Mul(size)
	}
	return exit.Sub(entry).Mul(size)
}

// ExitReason 止盈止损判断结果
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitTakeProfit
	ExitStopLoss
)

func (r ExitReason) String() string {
	switch r {
	case ExitTakeProfit:
		return "take_profit"
	case ExitStopLoss:
		return "stop_loss"
	default:
		return "none"
	}
}

// CheckExit 纯函数：BUY 在 mid >= TP 止盈、mid <= SL 止损，SELL 方向相反
func CheckExit(p *Position, mid decimal.Decimal) ExitReason {
	if p == nil || !mid.IsPositive() {
		return ExitNone
	}
	if p.Side == types.SideSell {
		if p.TakeProfit.IsPositive() && mid.LessThanOrEqual(p.TakeProfit) {
			return ExitTakeProfit
		}
		if p.StopLoss.IsPositive() && mid.GreaterThanOrEqual(p.StopLoss) {
			return ExitStopLoss
		}
		return ExitNone
	}
	if p.TakeProfit.IsPositive() && mid.GreaterThanOrEqual(p.TakeProfit) {
		return ExitTakeProfit
	}
	if p.StopLoss.IsPositive() && mid.LessThanOrEqual(p.StopLoss) {
		return ExitStopLoss
	}
	return ExitNone
}

// minThreshold 阈值价格的下限与上限边距
var minThreshold = decimal.RequireFromString(string(types.TickSize0001))

// Thresholds 由入场价和偏移量计算止盈止损价，偏移为零表示不设置。
// 结果限制在 [0.001, 0.999]，偏移过大时阈值落在边界而不是被关闭。
func Thresholds(side types.Side, entry, tpOffset, slOffset decimal.Decimal) (tp, sl decimal.Decimal) {
	if side == types.SideSell {
		if tpOffset.IsPositive() {
			tp = clampThreshold(entry.Sub(tpOffset))
		}
		if slOffset.IsPositive() {
			sl = clampThreshold(entry.Add(slOffset))
		}
		return
	}
	if tpOffset.IsPositive() {
		tp = clampThreshold(entry.Add(tpOffset))
	}
	if slOffset.IsPositive() {
		sl = clampThreshold(entry.Sub(slOffset))
	}
	return
}

func clampThreshold(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(minThreshold) {
		return minThreshold
	}
	if max := decimal.NewFromInt(1).Sub(minThreshold); p.GreaterThan(max) {
		return max
	}
	return p
}
