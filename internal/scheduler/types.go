package scheduler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/marketstate"
)

// Quote 单个资产的报价快照
type Quote struct {
	AssetID string          `json:"asset_id"`
	BestBid decimal.Decimal `json:"best_bid"`
	BestAsk decimal.Decimal `json:"best_ask"`
	Mid     decimal.Decimal `json:"mid"`
	HasBid  bool            `json:"has_bid"`
	HasAsk  bool            `json:"has_ask"`
	Seq     uint64          `json:"seq"`
}

// HasMid 两侧都有报价
func (q Quote) HasMid() bool { return q.HasBid && q.HasAsk }

func quoteOf(b *marketstate.Book) Quote {
	q := Quote{AssetID: b.AssetID, Seq: b.Seq}
	if l, ok := b.BestBid(); ok {
		q.BestBid, q.HasBid = l.Price, true
	}
	if l, ok := b.BestAsk(); ok {
		q.BestAsk, q.HasAsk = l.Price, true
	}
	q.Mid, _ = b.Mid()
	return q
}

// Prices 每个资产的报价
type Prices map[string]Quote

// Intent 交易意图
type Intent struct {
	AssetID   string
	Market    string
	Side      types.Side
	Price     decimal.Decimal
	Size      decimal.Decimal
	OrderType types.OrderType

	// 开仓成交后设置到持仓上的止盈止损价格
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
	// 价格为零时按成交价加减偏移计算止盈止损
	TakeProfitOffset decimal.Decimal
	StopLossOffset   decimal.Decimal

	// PositionID 非空表示这是平仓单
	PositionID string
	Reason     string
}

// Notional USDC 名义金额
func (i Intent) Notional() decimal.Decimal { return i.Price.Mul(i.Size) }

// Outcome 提交结果分类
type Outcome int

const (
	OutcomeFilled Outcome = iota
	// OutcomeAccepted 已挂单未成交
	OutcomeAccepted
	OutcomeRejected
	// OutcomeUnknown 提交超时，需要查询后才能确认
	OutcomeUnknown
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "invalid"
	}
}

// SubmissionResult 一次提交（或对账）的结果
type SubmissionResult struct {
	ID          string
	Intent      Intent
	Outcome     Outcome
	OrderID     string
	Status      string
	FilledSize  decimal.Decimal
	FilledPrice decimal.Decimal
	Err         error
	SubmittedAt time.Time
	Elapsed     time.Duration
}

// ReconcilePolicy 结果未知时的对账时机
type ReconcilePolicy int

const (
	// ReconcileNextTick 挂起订单，下一个 tick 查询
	ReconcileNextTick ReconcilePolicy = iota
	// ReconcileImmediately 在提交任务内立即查询
	ReconcileImmediately
)

// ParseReconcilePolicy 解析配置值
func ParseReconcilePolicy(s string) (ReconcilePolicy, bool) {
	switch s {
	case "", "next_tick":
		return ReconcileNextTick, true
	case "immediate", "immediately":
		return ReconcileImmediately, true
	default:
		return ReconcileNextTick, false
	}
}
