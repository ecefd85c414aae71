// Package scheduler 驱动策略：单 goroutine 的 tick 循环负责策略回调、
// 账本变更与止盈止损；订单提交在独立 goroutine 上执行，结果在 tick 开始时统一应用。
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/ledger"
	"github.com/betbot/polyclob/internal/marketstate"
	"github.com/betbot/polyclob/internal/metrics"
	"github.com/betbot/polyclob/internal/stream"
	"github.com/betbot/polyclob/pkg/sigchan"
)

var schedLog = logrus.WithField("component", "scheduler")

const (
	defaultTickInterval      = time.Second
	defaultSubmitTimeout     = 15 * time.Second
	defaultReconcileInterval = 5 * time.Second
	resultBuffer             = 64
)

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrHalted         = errors.New("scheduler halted")
	ErrInvalidIntent  = errors.New("invalid intent")
)

// Config 调度器配置
type Config struct {
	TickInterval time.Duration
	// SubmitTimeout 单次提交/查询的超时，与 Stop 无关
	SubmitTimeout time.Duration
	// ReconcileInterval 挂单与未决订单的查询间隔
	ReconcileInterval time.Duration
	Reconcile         ReconcilePolicy
	OrderType         types.OrderType
	DryRun            bool
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = defaultSubmitTimeout
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = defaultReconcileInterval
	}
	if c.OrderType == "" {
		c.OrderType = types.OrderTypeGTC
	}
	return c
}

type parkedOrder struct {
	result      SubmissionResult
	lastChecked time.Time
	checking    bool
}

// Scheduler 策略调度器
type Scheduler struct {
	cfg      Config
	strategy Strategy
	stream   stream.MarketDataStream
	store    *marketstate.Store
	ledger   *ledger.Ledger
	risk     *ledger.Risk
	exchange Exchange

	results  chan SubmissionResult
	wg       sync.WaitGroup
	inflight atomic.Int64
	dedupe   *inFlightDeduper

	notifyMu sync.Mutex
	dirty    map[string]struct{}
	notifyC  *sigchan.Chan

	// 以下字段只在调度器 goroutine 上访问
	parked   map[string]*parkedOrder
	closing  map[string]string // positionID -> submission ID
	dryFills []SubmissionResult
	lastErr  error
	haltErr  error
	lastTick time.Time

	status   atomic.Pointer[Status]
	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	stopC    chan struct{}
	doneC    chan struct{}
	now      func() time.Time
}

// New 创建调度器。risk 可以为 nil；exchange 只有在 DryRun 下可以为 nil。
func New(cfg Config, strategy Strategy, md stream.MarketDataStream, store *marketstate.Store, l *ledger.Ledger, risk *ledger.Risk, exchange Exchange) (*Scheduler, error) {
	switch {
	case strategy == nil:
		return nil, errors.New("scheduler: strategy is required")
	case md == nil:
		return nil, errors.New("scheduler: market data stream is required")
	case store == nil:
		return nil, errors.New("scheduler: book store is required")
	case l == nil:
		return nil, errors.New("scheduler: ledger is required")
	case exchange == nil && !cfg.DryRun:
		return nil, errors.New("scheduler: exchange is required unless dry-run")
	}
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:      cfg,
		strategy: strategy,
		stream:   md,
		store:    store,
		ledger:   l,
		risk:     risk,
		exchange: exchange,
		results:  make(chan SubmissionResult, resultBuffer),
		dedupe:   newInFlightDeduper(8*cfg.SubmitTimeout, 16),
		dirty:    make(map[string]struct{}),
		notifyC:  sigchan.New(1),
		parked:   make(map[string]*parkedOrder),
		closing:  make(map[string]string),
		stopC:    make(chan struct{}),
		doneC:    make(chan struct{}),
		now:      time.Now,
	}
	md.OnBookUpdate(stream.BookUpdateHandlerFunc(s.onStreamEvent))
	md.OnStateChange(func(from, to stream.State) {
		schedLog.Debugf("行情状态 %s -> %s", from, to)
	})
	s.refreshStatus(Prices{})
	return s, nil
}

// Store 订单簿存储
func (s *Scheduler) Store() *marketstate.Store { return s.store }

// Ledger 持仓账本
func (s *Scheduler) Ledger() *ledger.Ledger { return s.ledger }

// DryRun 是否为模拟模式
func (s *Scheduler) DryRun() bool { return s.cfg.DryRun }

// Subscribe 追加订阅资产
func (s *Scheduler) Subscribe(assetIDs ...string) error {
	return s.stream.Subscribe(assetIDs, false)
}

// Unsubscribe 退订资产
func (s *Scheduler) Unsubscribe(assetIDs ...string) error {
	return s.stream.Unsubscribe(assetIDs)
}

// onStreamEvent 在行情读 goroutine 上调用，只做合并通知，不阻塞
func (s *Scheduler) onStreamEvent(_ context.Context, ev *stream.BookEvent) error {
	switch ev.Kind {
	case stream.EventBook, stream.EventPriceChange, stream.EventResync:
	default:
		return nil
	}
	s.notifyMu.Lock()
	s.dirty[ev.AssetID] = struct{}{}
	s.notifyMu.Unlock()
	s.notifyC.Emit()
	return nil
}

// Run 运行 tick 循环，直到 ctx 取消、Stop 或认证失败熔断。
// 熔断时返回的错误同时匹配 ErrHalted 与原因。
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.doneC)
	defer s.stopped.Store(true)

	schedLog.Infof("启动策略 %s (tick=%s dryRun=%v)", s.strategy.Name(), s.cfg.TickInterval, s.cfg.DryRun)
	if err := s.call("Initialize", func() error { return s.strategy.Initialize(ctx, s) }); err != nil {
		_ = s.stream.Disconnect()
		return errors.Wrapf(err, "initialize strategy %s", s.strategy.Name())
	}
	if err := s.stream.Open(ctx); err != nil {
		return errors.Wrap(err, "open market stream")
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.stopC:
			break loop
		case <-ticker.C:
			s.tick(ctx)
		case <-s.notifyC.C():
			s.dispatchBookUpdates(ctx)
		}
		if s.haltErr != nil {
			break loop
		}
	}
	ticker.Stop()
	s.shutdown(context.WithoutCancel(ctx))
	return s.haltErr
}

// Stop 停止 tick 循环并等待 Run 完成关闭流程。不能在策略回调中调用。
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopC) })
	if s.running.Load() {
		<-s.doneC
	}
}

// shutdown 断开行情、等待在途提交、应用结果、清理策略
func (s *Scheduler) shutdown(ctx context.Context) {
	schedLog.Infof("停止调度器，等待 %d 个在途提交", s.inflight.Load())
	if err := s.stream.Disconnect(); err != nil {
		schedLog.Warnf("断开行情失败: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	for waiting := true; waiting; {
		select {
		case r := <-s.results:
			s.applyResult(ctx, r)
		case <-done:
			waiting = false
		}
	}
	s.drainResults(ctx)
	for id, p := range s.parked {
		schedLog.Warnf("订单 %s 仍未确认 (%s)，需要人工核对", id, p.result.Outcome)
	}

	s.callVoid("Cleanup", func() { s.strategy.Cleanup(ctx) })
	s.refreshStatus(s.prices())
	schedLog.Infof("调度器已停止")
}

// tick 单次调度：应用结果 -> 对账 -> OnTick -> 止盈止损 -> 刷新状态
func (s *Scheduler) tick(ctx context.Context) {
	s.drainResults(ctx)
	s.reconcileParked(ctx)

	prices := s.prices()
	if s.haltErr == nil {
		if err := s.call("OnTick", func() error { return s.strategy.OnTick(ctx, prices) }); err != nil {
			s.handleError(ctx, err)
		}
	}
	if s.haltErr == nil {
		s.evaluateExits(ctx, prices)
	}
	s.lastTick = s.now()
	s.refreshStatus(prices)
}

func (s *Scheduler) prices() Prices {
	prices := make(Prices)
	for _, id := range s.store.Assets() {
		if b := s.store.Book(id); b != nil {
			prices[id] = quoteOf(b)
		}
	}
	return prices
}

// dispatchBookUpdates 把合并后的通知逐个交给策略
func (s *Scheduler) dispatchBookUpdates(ctx context.Context) {
	s.notifyMu.Lock()
	dirty := s.dirty
	s.dirty = make(map[string]struct{})
	s.notifyMu.Unlock()

	ids := make([]string, 0, len(dirty))
	for id := range dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if s.haltErr != nil {
			return
		}
		book := s.store.Book(id)
		if book == nil {
			continue
		}
		if err := s.call("OnBookUpdate", func() error { return s.strategy.OnBookUpdate(ctx, id, book) }); err != nil {
			s.handleError(ctx, err)
		}
	}
}

// Submit 提交交易意图，返回提交 ID。只能在调度器 goroutine（策略回调）中调用。
// 开仓 BUY 先经过风控；PositionID 非空的平仓单跳过风控。
func (s *Scheduler) Submit(ctx context.Context, in Intent) (string, error) {
	if s.haltErr != nil {
		return "", s.haltErr
	}
	if err := validateIntent(in); err != nil {
		return "", err
	}
	if in.OrderType == "" {
		in.OrderType = s.cfg.OrderType
	}
	if in.PositionID == "" {
		if s.risk != nil {
			if rej := s.risk.CheckTrade(ledger.TradeIntent{
				AssetID:  in.AssetID,
				Market:   in.Market,
				Side:     in.Side,
				Price:    in.Price,
				Notional: in.Notional(),
			}); rej != nil {
				schedLog.Infof("风控拒绝 %s %s: %v", in.Side, in.AssetID, rej)
				return "", rej
			}
		} else if in.Side == types.SideBuy && !s.ledger.CanOpenPosition() {
			return "", ledger.ErrMaxPositions
		}
	}

	key := dedupeKey(in.AssetID, in.Side)
	if err := s.dedupe.TryAcquire(key); err != nil {
		return "", err
	}

	id := uuid.NewString()
	submittedAt := s.now()
	metrics.OrdersSubmitted.Add(1)
	// 开仓单从提交到终态一直占用仓位与敞口
	if in.PositionID == "" {
		s.ledger.Reserve(id, in.AssetID, in.Market, in.Notional())
	}
	if s.cfg.DryRun {
		schedLog.Infof("[dry-run] %s %s x %s @ %s (%s)", in.Side, in.AssetID, in.Size, in.Price, in.Reason)
		s.dryFills = append(s.dryFills, SubmissionResult{
			ID:          id,
			Intent:      in,
			Outcome:     OutcomeFilled,
			OrderID:     "dry-run-" + id,
			Status:      types.OrderStatusMatched,
			FilledSize:  in.Size,
			FilledPrice: in.Price,
			SubmittedAt: submittedAt,
		})
		return id, nil
	}

	schedLog.Infof("提交 %s %s x %s @ %s (%s) id=%s", in.Side, in.AssetID, in.Size, in.Price, in.Reason, id)
	s.wg.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Add(-1)
		s.results <- s.execute(ctx, id, in, submittedAt)
	}()
	return id, nil
}

func validateIntent(in Intent) error {
	switch {
	case in.AssetID == "":
		return errors.Wrap(ErrInvalidIntent, "asset id is empty")
	case in.Side != types.SideBuy && in.Side != types.SideSell:
		return errors.Wrapf(ErrInvalidIntent, "side %q", in.Side)
	case !in.Price.IsPositive() || in.Price.GreaterThan(decimal.NewFromInt(1)):
		return errors.Wrapf(ErrInvalidIntent, "price %s outside (0, 1]", in.Price)
	case !in.Size.IsPositive():
		return errors.Wrapf(ErrInvalidIntent, "size %s", in.Size)
	case in.TakeProfitOffset.IsNegative() || in.StopLossOffset.IsNegative():
		return errors.Wrapf(ErrInvalidIntent, "negative exit offset tp=%s sl=%s", in.TakeProfitOffset, in.StopLossOffset)
	}
	return nil
}

// execute 在提交 goroutine 上运行。超时上下文不继承取消，Stop 不会打断在途提交。
func (s *Scheduler) execute(ctx context.Context, id string, in Intent, submittedAt time.Time) SubmissionResult {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()

	order := &types.UserOrder{
		TokenID: in.AssetID,
		Price:   in.Price,
		Size:    in.Size,
		Side:    in.Side,
	}
	res, orderID, err := s.exchange.SubmitOrder(sctx, order, in.OrderType)
	r := SubmissionResult{
		ID:          id,
		Intent:      in,
		OrderID:     res.OrderID,
		Status:      res.Status,
		SubmittedAt: submittedAt,
	}
	if r.OrderID == "" {
		r.OrderID = orderID
	}
	r = classify(r, res, err)

	if r.Outcome == OutcomeUnknown && s.cfg.Reconcile == ReconcileImmediately && r.OrderID != "" {
		qctx, qcancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
		r = s.reconcile(qctx, r)
		qcancel()
	}
	r.Elapsed = s.now().Sub(submittedAt)
	return r
}

// classify 把提交返回值归类为成交、挂单、拒绝、撤销或未知
func classify(r SubmissionResult, res types.OrderResult, err error) SubmissionResult {
	switch {
	case err != nil:
		r.Err = err
		switch types.KindOf(err) {
		case types.KindOutcomeUnknown:
			r.Outcome = OutcomeUnknown
		case types.KindTransientNetwork:
			// 请求可能已经到达交易所
			if r.OrderID != "" {
				r.Outcome = OutcomeUnknown
			} else {
				r.Outcome = OutcomeRejected
			}
		default:
			r.Outcome = OutcomeRejected
		}
	case !res.Success:
		r.Outcome = OutcomeRejected
		r.Err = types.Errorf(types.KindRemoteRejection, "submit_order", "%s", res.Message)
	case res.Status == types.OrderStatusMatched:
		r.Outcome = OutcomeFilled
		r.FilledSize = r.Intent.Size
		r.FilledPrice = r.Intent.Price
	case res.Status == types.OrderStatusUnmatched || res.Status == types.OrderStatusCanceled:
		r.Outcome = OutcomeCanceled
	default:
		r.Outcome = OutcomeAccepted
	}
	return r
}

// reconcile 查询订单确认结果；查询失败时保持原结果并记录错误
func (s *Scheduler) reconcile(ctx context.Context, r SubmissionResult) SubmissionResult {
	metrics.ReconcileRuns.Add(1)
	o, err := s.exchange.GetOrder(ctx, r.OrderID)
	if err == nil && (o == nil || o.ID == "") {
		err = types.Errorf(types.KindRemoteRejection, "get_order", "order %s not found", r.OrderID)
	}
	if err != nil {
		metrics.ReconcileErrors.Add(1)
		if r.Outcome == OutcomeUnknown && types.KindOf(err) == types.KindRemoteRejection {
			r.Outcome = OutcomeRejected
			r.Err = errors.Wrapf(err, "reconcile %s", r.OrderID)
			return r
		}
		r.Err = errors.Wrapf(err, "reconcile %s", r.OrderID)
		return r
	}
	return applyOrderState(r, o)
}

func applyOrderState(r SubmissionResult, o *types.OpenOrder) SubmissionResult {
	status := strings.ToLower(o.Status)
	matched := o.MatchedSize()
	price := r.Intent.Price
	if p, err := decimal.NewFromString(o.Price); err == nil && p.IsPositive() {
		price = p
	}
	r.Status = status
	r.Err = nil

	switch status {
	case types.OrderStatusMatched:
		r.Outcome = OutcomeFilled
		r.FilledSize = r.Intent.Size
		if matched.IsPositive() {
			r.FilledSize = matched
		}
		r.FilledPrice = price
	case types.OrderStatusLive, types.OrderStatusDelayed:
		r.Outcome = OutcomeAccepted
	default:
		if matched.IsPositive() {
			r.Outcome = OutcomeFilled
			r.FilledSize = matched
			r.FilledPrice = price
		} else {
			r.Outcome = OutcomeCanceled
		}
	}
	return r
}

// drainResults 安全点：应用全部已完成的提交结果
func (s *Scheduler) drainResults(ctx context.Context) {
	fills := s.dryFills
	s.dryFills = nil
	for _, r := range fills {
		s.applyResult(ctx, r)
	}
	for {
		select {
		case r := <-s.results:
			s.applyResult(ctx, r)
		default:
			return
		}
	}
}

func (s *Scheduler) applyResult(ctx context.Context, r SubmissionResult) {
	key := dedupeKey(r.Intent.AssetID, r.Intent.Side)
	var prev *parkedOrder
	if r.OrderID != "" {
		prev = s.parked[r.OrderID]
		delete(s.parked, r.OrderID)
	}

	switch r.Outcome {
	case OutcomeFilled:
		metrics.OrdersFilled.Add(1)
		s.dedupe.Release(key)
		s.ledger.Release(r.ID)
		s.applyFill(r)
		if s.risk != nil {
			s.risk.OnSuccess()
			s.risk.RecordTrade(r.Intent.AssetID)
		}
	case OutcomeAccepted, OutcomeUnknown:
		if r.OrderID == "" {
			s.dedupe.Release(key)
			s.ledger.Release(r.ID)
			s.clearClosing(r)
			if r.Err == nil {
				r.Err = types.Errorf(types.KindOutcomeUnknown, "submit_order", "no order id to reconcile")
			}
			break
		}
		p := &parkedOrder{result: r}
		if prev != nil {
			p.lastChecked = s.now()
		}
		s.parked[r.OrderID] = p
		if prev != nil && prev.result.Outcome == r.Outcome {
			if r.Err != nil {
				schedLog.Warnf("订单 %s 对账失败，稍后重试: %v", r.OrderID, r.Err)
			}
			return
		}
		if r.Outcome == OutcomeUnknown {
			metrics.OrdersUnknown.Add(1)
		}
		schedLog.Infof("订单 %s %s，等待确认", r.OrderID, r.Outcome)
	case OutcomeRejected:
		metrics.OrdersRejected.Add(1)
		s.dedupe.Release(key)
		s.ledger.Release(r.ID)
		s.clearClosing(r)
		if s.risk != nil {
			s.risk.OnError()
		}
	case OutcomeCanceled:
		metrics.OrdersCanceled.Add(1)
		s.dedupe.Release(key)
		s.ledger.Release(r.ID)
		s.clearClosing(r)
		schedLog.Infof("订单 %s 未成交已撤销", r.OrderID)
	}

	s.callVoid("OnOrderUpdate", func() { s.strategy.OnOrderUpdate(ctx, r) })
	if r.Err != nil && r.Outcome != OutcomeAccepted {
		s.handleError(ctx, r.Err)
	}
}

func (s *Scheduler) clearClosing(r SubmissionResult) {
	if r.Intent.PositionID != "" {
		delete(s.closing, r.Intent.PositionID)
	}
}

// applyFill 成交写入账本：平仓单减仓，其余开仓
func (s *Scheduler) applyFill(r SubmissionResult) {
	in := r.Intent
	if in.PositionID != "" {
		delete(s.closing, in.PositionID)
		realized, err := s.ledger.Reduce(in.PositionID, r.FilledSize, r.FilledPrice)
		if err != nil {
			schedLog.Errorf("平仓成交但账本更新失败: position=%s order=%s err=%v", in.PositionID, r.OrderID, err)
			s.lastErr = err
			return
		}
		schedLog.Infof("平仓成交 %s: %s x %s @ %s, 盈亏 %s", in.PositionID, in.AssetID, r.FilledSize, r.FilledPrice, realized)
		return
	}
	tp, sl := ledger.Thresholds(in.Side, r.FilledPrice, in.TakeProfitOffset, in.StopLossOffset)
	if in.TakeProfit.IsPositive() {
		tp = in.TakeProfit
	}
	if in.StopLoss.IsPositive() {
		sl = in.StopLoss
	}
	p, err := s.ledger.Open(in.AssetID, in.Side, r.FilledPrice, r.FilledSize, tp, sl)
	if err != nil {
		schedLog.Errorf("开仓成交但账本记录失败: order=%s err=%v", r.OrderID, err)
		s.lastErr = err
		return
	}
	if p.OverCap {
		metrics.OverCapFills.Add(1)
		schedLog.Warnf("⚠️ 订单 %s 成交时持仓已达上限，持仓 %s 已记录", r.OrderID, p.ID)
	}
	if err := s.ledger.Annotate(p.ID, in.Market, r.OrderID); err != nil {
		schedLog.Warnf("持仓 %s 补充订单号失败: %v", p.ID, err)
	}
}

// reconcileParked 为到期的挂起订单启动查询任务
func (s *Scheduler) reconcileParked(ctx context.Context) {
	if s.exchange == nil || len(s.parked) == 0 {
		return
	}
	now := s.now()
	ids := make([]string, 0, len(s.parked))
	for id := range s.parked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := s.parked[id]
		if p.checking {
			continue
		}
		if !p.lastChecked.IsZero() && now.Sub(p.lastChecked) < s.cfg.ReconcileInterval {
			continue
		}
		p.checking = true
		p.lastChecked = now
		r := p.result
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
			defer cancel()
			s.results <- s.reconcile(qctx, r)
		}()
	}
}

// evaluateExits 对照中间价检查止盈止损，触发时提交反向平仓单
func (s *Scheduler) evaluateExits(ctx context.Context, prices Prices) {
	for _, p := range s.ledger.Positions() {
		if _, pending := s.closing[p.ID]; pending {
			continue
		}
		q, ok := prices[p.AssetID]
		if !ok || !q.HasMid() {
			continue
		}
		reason := ledger.CheckExit(p, q.Mid)
		if reason == ledger.ExitNone {
			continue
		}

		in := Intent{
			AssetID:    p.AssetID,
			Market:     p.Market,
			Side:       p.Side.Opposite(),
			Price:      q.BestBid,
			Size:       p.Size,
			PositionID: p.ID,
			Reason:     reason.String(),
		}
		if in.Side == types.SideBuy {
			in.Price = q.BestAsk
		}
		schedLog.Infof("持仓 %s 触发 %s: mid=%s entry=%s", p.ID, reason, q.Mid, p.Entry)
		id, err := s.Submit(ctx, in)
		if err != nil {
			if !errors.Is(err, ErrDuplicateInFlight) {
				schedLog.Warnf("持仓 %s 平仓提交失败: %v", p.ID, err)
				s.lastErr = err
			}
			continue
		}
		s.closing[p.ID] = id
	}
}

// handleError 通知策略；认证失败熔断调度器
func (s *Scheduler) handleError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	s.lastErr = err
	schedLog.Errorf("策略 %s 错误: %v", s.strategy.Name(), err)
	s.callVoid("OnError", func() { s.strategy.OnError(ctx, err) })
	if errors.Is(err, types.ErrAuthFailure) {
		s.halt(err)
	}
}

func (s *Scheduler) halt(cause error) {
	if s.haltErr != nil {
		return
	}
	s.haltErr = fmt.Errorf("%w: %w", ErrHalted, cause)
	if s.risk != nil {
		s.risk.Halt()
	}
	schedLog.Errorf("🛑 调度器熔断: %v", cause)
}

// call 调用策略钩子，panic 转为错误
func (s *Scheduler) call(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s %s panic: %v", s.strategy.Name(), hook, r)
		}
	}()
	return fn()
}

func (s *Scheduler) callVoid(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			schedLog.Errorf("strategy %s %s panic: %v", s.strategy.Name(), hook, r)
		}
	}()
	fn()
}
