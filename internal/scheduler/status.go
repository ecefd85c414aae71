package scheduler

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/internal/ledger"
	"github.com/betbot/polyclob/internal/stream"
)

// PositionView 持仓及其按中间价计算的浮动盈亏
type PositionView struct {
	ledger.Position
	Mid           decimal.Decimal `json:"mid"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

// Status 只读状态快照，每个 tick 刷新一次
type Status struct {
	Strategy      string          `json:"strategy"`
	Running       bool            `json:"running"`
	Halted        bool            `json:"halted"`
	DryRun        bool            `json:"dry_run"`
	StreamState   stream.State    `json:"stream_state"`
	Subscriptions []string        `json:"subscriptions"`
	Quotes        []Quote         `json:"quotes"`
	Positions     []PositionView  `json:"positions"`
	RealizedPnl   decimal.Decimal `json:"realized_pnl"`
	DailyPnl      decimal.Decimal `json:"daily_pnl"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	InFlight      int64           `json:"in_flight"`
	Pending       int             `json:"pending_orders"`
	Reserved      int             `json:"reserved_positions"`
	LastError     string          `json:"last_error,omitempty"`
	LastTick      time.Time       `json:"last_tick"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Status 返回最近一次刷新的状态；在途数量与行情状态实时读取。可在任意 goroutine 调用。
func (s *Scheduler) Status() Status {
	st := *s.status.Load()
	st.Running = s.running.Load() && !s.stopped.Load()
	st.InFlight = s.inflight.Load()
	st.StreamState = s.stream.State()
	return st
}

// refreshStatus 只在调度器 goroutine 上调用
func (s *Scheduler) refreshStatus(prices Prices) {
	st := &Status{
		Strategy:      s.strategy.Name(),
		Halted:        s.haltErr != nil,
		DryRun:        s.cfg.DryRun,
		Subscriptions: s.stream.Subscriptions(),
		Quotes:        make([]Quote, 0, len(prices)),
		RealizedPnl:   s.ledger.RealizedPnl(),
		DailyPnl:      s.ledger.DailyPnl(),
		Pending:       len(s.parked),
		Reserved:      s.ledger.Reserved(),
		LastTick:      s.lastTick,
		UpdatedAt:     s.now(),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	for _, q := range prices {
		st.Quotes = append(st.Quotes, q)
	}
	sort.Slice(st.Quotes, func(i, j int) bool { return st.Quotes[i].AssetID < st.Quotes[j].AssetID })

	positions := s.ledger.Positions()
	st.Positions = make([]PositionView, 0, len(positions))
	for _, p := range positions {
		v := PositionView{Position: *p}
		if q, ok := prices[p.AssetID]; ok && q.HasMid() {
			v.Mid = q.Mid
			v.UnrealizedPnl = ledger.UnrealizedPnl(p, q.Mid)
			st.UnrealizedPnl = st.UnrealizedPnl.Add(v.UnrealizedPnl)
		}
		st.Positions = append(st.Positions, v)
	}
	s.status.Store(st)
}
