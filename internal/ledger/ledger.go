// Package ledger 跟踪持仓、已实现/未实现盈亏以及交易前风控。
//
// Ledger 本身不触发任何动作：止盈止损由调度器对照中间价判断后调用 Close。
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/types"
)

var ledgerLog = logrus.WithField("component", "ledger")

var (
	ErrMaxPositions     = errors.New("ledger: max open positions reached")
	ErrPositionNotFound = errors.New("ledger: position not found")
	ErrInvalidPosition  = errors.New("ledger: invalid position")
)

// Config 持仓配置
type Config struct {
	MaxPositions int
}

// Ledger 持仓账本
type Ledger struct {
	mu sync.RWMutex

	cfg       Config
	positions map[string]*Position
	reserved  map[string]reservation
	realized  decimal.Decimal
	daily     decimal.Decimal
	dayKey    int64

	store Store
	now   func() time.Time
}

// New 创建账本。store 非空时从中恢复状态，之后每次变更都会保存。
func New(cfg Config, store Store) (*Ledger, error) {
	if cfg.MaxPositions < 1 {
		cfg.MaxPositions = 1
	}
	l := &Ledger{
		cfg:       cfg,
		positions: make(map[string]*Position),
		reserved:  make(map[string]reservation),
		store:     store,
		now:       time.Now,
	}
	if store == nil {
		return l, nil
	}
	snap, err := store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load ledger state")
	}
	if snap != nil {
		for _, p := range snap.Positions {
			l.positions[p.ID] = p.clone()
		}
		l.realized = snap.RealizedPnl
		l.daily = snap.DailyPnl
		l.dayKey = snap.DayKey
		ledgerLog.Infof("恢复账本: %d 个持仓, 已实现盈亏 %s", len(l.positions), l.realized)
	}
	return l, nil
}

// reservation 已提交但尚未成交的开仓单占用的仓位与名义金额
type reservation struct {
	assetID  string
	market   string
	notional decimal.Decimal
}

// CanOpenPosition 是否还能开新仓，预留中的开仓单也占用名额
func (l *Ledger) CanOpenPosition() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)+len(l.reserved) < l.cfg.MaxPositions
}

// Reserve 为在途或挂单中的开仓单预留一个仓位与名义金额，id 重复时覆盖
func (l *Ledger) Reserve(id, assetID, market string, notional decimal.Decimal) {
	l.mu.Lock()
	l.reserved[id] = reservation{assetID: assetID, market: market, notional: notional}
	l.mu.Unlock()
}

// Release 释放预留，返回是否存在
func (l *Ledger) Release(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.reserved[id]
	delete(l.reserved, id)
	return ok
}

// Reserved 预留数量
func (l *Ledger) Reserved() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reserved)
}

// Open 记录一笔成交的开仓。tp/sl 为价格阈值，零表示不设置。
// 成交已经发生，超过持仓上限时照常记录，持仓标记 OverCap。
func (l *Ledger) Open(assetID string, side types.Side, price, size, tp, sl decimal.Decimal) (*Position, error) {
	if assetID == "" || !price.IsPositive() || !size.IsPositive() {
		return nil, ErrInvalidPosition
	}
	if side != types.SideBuy && side != types.SideSell {
		return nil, ErrInvalidPosition
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	p := &Position{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		Side:       side,
		Entry:      price,
		Size:       size,
		OpenedAt:   l.now(),
		TakeProfit: tp,
		StopLoss:   sl,
		OverCap:    len(l.positions) >= l.cfg.MaxPositions,
	}
	l.positions[p.ID] = p
	if p.OverCap {
		ledgerLog.Warnf("⚠️ 持仓数超过上限 %d: %s 仍然记录", l.cfg.MaxPositions, p.ID)
	}
	ledgerLog.Infof("开仓 %s: %s %s x %s @ %s (tp=%s sl=%s)", p.ID, side, assetID, size, price, tp, sl)
	l.persistLocked()
	return p.clone(), nil
}

// Annotate 补充市场与订单号
func (l *Ledger) Annotate(id, market, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[id]
	if !ok {
		return ErrPositionNotFound
	}
	if market != "" {
		p.Market = market
	}
	if orderID != "" {
		p.OrderID = orderID
	}
	l.persistLocked()
	return nil
}

// Close 全部平仓，返回已实现盈亏
func (l *Ledger) Close(id string, exitPrice decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[id]
	if !ok {
		return decimal.Zero, ErrPositionNotFound
	}
	return l.closeLocked(p, exitPrice), nil
}

func (l *Ledger) closeLocked(p *Position, exitPrice decimal.Decimal) decimal.Decimal {
	realized := pnl(p.Side, p.Entry, exitPrice, p.Size)
	delete(l.positions, p.ID)
	l.bookLocked(realized)
	ledgerLog.Infof("平仓 %s @ %s, 盈亏 %s", p.ID, exitPrice, realized)
	l.persistLocked()
	return realized
}

// Reduce 部分平仓；减仓数量不小于持仓时等同于 Close
func (l *Ledger) Reduce(id string, size, exitPrice decimal.Decimal) (decimal.Decimal, error) {
	if !size.IsPositive() {
		return decimal.Zero, ErrInvalidPosition
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[id]
	if !ok {
		return decimal.Zero, ErrPositionNotFound
	}
	if size.GreaterThanOrEqual(p.Size) {
		return l.closeLocked(p, exitPrice), nil
	}

	realized := pnl(p.Side, p.Entry, exitPrice, size)
	p.Size = p.Size.Sub(size)
	l.bookLocked(realized)
	ledgerLog.Infof("减仓 %s: -%s @ %s, 剩余 %s, 盈亏 %s", id, size, exitPrice, p.Size, realized)
	l.persistLocked()
	return realized, nil
}

// Position 按 ID 查询持仓副本
func (l *Ledger) Position(id string) (*Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Positions 所有持仓副本，按开仓时间排序
func (l *Ledger) Positions() []*Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Count 持仓数量
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// UnrealizedPnl 未实现盈亏
func (l *Ledger) UnrealizedPnl(p *Position, mid decimal.Decimal) decimal.Decimal {
	return UnrealizedPnl(p, mid)
}

// RealizedPnl 累计已实现盈亏
func (l *Ledger) RealizedPnl() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realized
}

// DailyPnl 当日（UTC）已实现盈亏
func (l *Ledger) DailyPnl() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked()
	return l.daily
}

// Exposure 某个市场（market 为空时按资产）的入场名义金额，包含预留
func (l *Ledger) Exposure(market, assetID string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	match := func(m, a string) bool {
		return (market != "" && m == market) || (market == "" && a == assetID)
	}
	total := decimal.Zero
	for _, p := range l.positions {
		if match(p.Market, p.AssetID) {
			total = total.Add(p.Notional())
		}
	}
	for _, r := range l.reserved {
		if match(r.market, r.assetID) {
			total = total.Add(r.notional)
		}
	}
	return total
}

// TotalExposure 全部持仓与预留的入场名义金额
func (l *Ledger) TotalExposure() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := decimal.Zero
	for _, p := range l.positions {
		total = total.Add(p.Notional())
	}
	for _, r := range l.reserved {
		total = total.Add(r.notional)
	}
	return total
}

func (l *Ledger) bookLocked(realized decimal.Decimal) {
	l.rollDayLocked()
	l.realized = l.realized.Add(realized)
	l.daily = l.daily.Add(realized)
}

func (l *Ledger) rollDayLocked() {
	key := dayKey(l.now())
	if key != l.dayKey {
		l.dayKey = key
		l.daily = decimal.Zero
	}
}

func dayKey(t time.Time) int64 {
	t = t.UTC()
	return int64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// persistLocked 保存失败只记录日志，内存状态仍然有效
func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	l.rollDayLocked()
	snap := &Snapshot{
		RealizedPnl: l.realized,
		DailyPnl:    l.daily,
		DayKey:      l.dayKey,
	}
	for _, p := range l.positions {
		snap.Positions = append(snap.Positions, p.clone())
	}
	if err := l.store.Save(snap); err != nil {
		ledgerLog.Errorf("保存账本失败: %v", err)
	}
}
