package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
)

// RiskConfig 交易前风控配置。约定：阈值 <= 0 表示关闭对应限制。
type RiskConfig struct {
	MinTradeSize decimal.Decimal // 单笔最小 USDC
	MaxTradeSize decimal.Decimal // 单笔最大 USDC

	MinPrice decimal.Decimal // 不在此价格以下买入
	MaxPrice decimal.Decimal // 不在此价格以上买入

	MaxPerMarket     decimal.Decimal
	MaxTotalExposure decimal.Decimal

	// DailyLossLimit 当日亏损达到该值时熔断，次日（UTC）自动恢复
	DailyLossLimit decimal.Decimal

	// TradeCooldown 同一资产两次交易的最小间隔
	TradeCooldown time.Duration

	MaxConsecutiveErrors int64
}

// DefaultRiskConfig 默认风控
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MinTradeSize:         decimal.NewFromInt(5),
		MaxTradeSize:         decimal.NewFromInt(25),
		MinPrice:             decimal.RequireFromString("0.05"),
		MaxPrice:             decimal.RequireFromString("0.95"),
		MaxPerMarket:         decimal.NewFromInt(50),
		MaxTotalExposure:     decimal.NewFromInt(200),
		DailyLossLimit:       decimal.NewFromInt(50),
		TradeCooldown:        30 * time.Second,
		MaxConsecutiveErrors: 5,
	}
}

// RejectReason 风控拒绝原因
type RejectReason string

const (
	RejectHalted         RejectReason = "halted"
	RejectDailyLoss      RejectReason = "daily_loss_limit"
	RejectConsecutiveErr RejectReason = "consecutive_errors"
	RejectTradeSize      RejectReason = "trade_size"
	RejectPriceBand      RejectReason = "price_band"
	RejectMaxPositions   RejectReason = "max_positions"
	RejectMarketExposure RejectReason = "market_exposure"
	RejectTotalExposure  RejectReason = "total_exposure"
	RejectCooldown       RejectReason = "cooldown"
)

// Rejection 风控拒绝
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("risk rejected (%s): %s", r.Reason, r.Detail)
}

// TradeIntent 待检查的交易
type TradeIntent struct {
	AssetID  string
	Market   string
	Side     types.Side
	Price    decimal.Decimal
	Notional decimal.Decimal // USDC
}

// Risk 风控：熔断状态走原子变量，冷却表加锁
type Risk struct {
	cfg    RiskConfig
	ledger *Ledger

	halted            atomic.Bool
	consecutiveErrors atomic.Int64

	mu        sync.Mutex
	lastTrade map[string]time.Time
	now       func() time.Time
}

// NewRisk 创建风控，持仓与盈亏从 ledger 读取
func NewRisk(cfg RiskConfig, ledger *Ledger) *Risk {
	return &Risk{
		cfg:       cfg,
		ledger:    ledger,
		lastTrade: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Halt 手动熔断
func (r *Risk) Halt() { r.halted.Store(true) }

// Resume 手动恢复，同时清空连续错误计数
func (r *Risk) Resume() {
	r.halted.Store(false)
	r.consecutiveErrors.Store(0)
}

// Halted 是否处于熔断
func (r *Risk) Halted() bool { return r.halted.Load() }

// OnSuccess 一次执行成功，清空连续错误计数
func (r *Risk) OnSuccess() { r.consecutiveErrors.Store(0) }

// OnError 一次执行失败
func (r *Risk) OnError() { r.consecutiveErrors.Add(1) }

// RecordTrade 记录成交时间用于冷却
func (r *Risk) RecordTrade(assetID string) {
	r.mu.Lock()
	r.lastTrade[assetID] = r.now()
	r.mu.Unlock()
}

// CheckTrade 检查交易是否允许；SELL（平仓）只受熔断与冷却限制
func (r *Risk) CheckTrade(in TradeIntent) *Rejection {
	if r.halted.Load() {
		return &Rejection{RejectHalted, "trading halted"}
	}
	if max := r.cfg.MaxConsecutiveErrors; max > 0 && r.consecutiveErrors.Load() >= max {
		r.halted.Store(true)
		return &Rejection{RejectConsecutiveErr, fmt.Sprintf("%d consecutive errors", r.consecutiveErrors.Load())}
	}
	if limit := r.cfg.DailyLossLimit; limit.IsPositive() && r.ledger != nil {
		if daily := r.ledger.DailyPnl(); daily.LessThanOrEqual(limit.Neg()) {
			return &Rejection{RejectDailyLoss, fmt.Sprintf("daily pnl %s <= -%s", daily, limit)}
		}
	}
	if rej := r.checkCooldown(in.AssetID); rej != nil {
		return rej
	}
	if in.Side != types.SideBuy {
		return nil
	}

	if min := r.cfg.MinTradeSize; min.IsPositive() && in.Notional.LessThan(min) {
		return &Rejection{RejectTradeSize, fmt.Sprintf("trade %s < min %s", in.Notional, min)}
	}
	if max := r.cfg.MaxTradeSize; max.IsPositive() && in.Notional.GreaterThan(max) {
		return &Rejection{RejectTradeSize, fmt.Sprintf("trade %s > max %s", in.Notional, max)}
	}
	if min := r.cfg.MinPrice; min.IsPositive() && in.Price.LessThan(min) {
		return &Rejection{RejectPriceBand, fmt.Sprintf("price %s < %s", in.Price, min)}
	}
	if max := r.cfg.MaxPrice; max.IsPositive() && in.Price.GreaterThan(max) {
		return &Rejection{RejectPriceBand, fmt.Sprintf("price %s > %s", in.Price, max)}
	}
	if r.ledger == nil {
		return nil
	}
	if !r.ledger.CanOpenPosition() {
		return &Rejection{RejectMaxPositions, fmt.Sprintf("%d positions open, %d pending", r.ledger.Count(), r.ledger.Reserved())}
	}
	if max := r.cfg.MaxPerMarket; max.IsPositive() {
		if cur := r.ledger.Exposure(in.Market, in.AssetID); cur.Add(in.Notional).GreaterThan(max) {
			return &Rejection{RejectMarketExposure, fmt.Sprintf("%s + %s > %s", cur, in.Notional, max)}
		}
	}
	if max := r.cfg.MaxTotalExposure; max.IsPositive() {
		if cur := r.ledger.TotalExposure(); cur.Add(in.Notional).GreaterThan(max) {
			return &Rejection{RejectTotalExposure, fmt.Sprintf("%s + %s > %s", cur, in.Notional, max)}
		}
	}
	return nil
}

func (r *Risk) checkCooldown(assetID string) *Rejection {
	if r.cfg.TradeCooldown <= 0 {
		return nil
	}
	r.mu.Lock()
	last, ok := r.lastTrade[assetID]
	now := r.now()
	r.mu.Unlock()
	if ok && now.Sub(last) < r.cfg.TradeCooldown {
		return &Rejection{RejectCooldown, fmt.Sprintf("%s remaining", r.cfg.TradeCooldown-now.Sub(last))}
	}
	return nil
}
