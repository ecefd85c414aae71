package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/ledger"
	"github.com/betbot/polyclob/internal/marketstate"
	"github.com/betbot/polyclob/internal/stream"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// eventLog 记录跨组件的调用顺序
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeStream struct {
	mu           sync.Mutex
	handlers     []stream.BookUpdateHandler
	subs         []string
	opened       bool
	disconnected bool
	log          *eventLog
}

func (f *fakeStream) Open(context.Context) error {
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) Subscribe(ids []string, replace bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if replace {
		f.subs = nil
	}
	f.subs = append(f.subs, ids...)
	return nil
}

func (f *fakeStream) Unsubscribe([]string) error { return nil }

func (f *fakeStream) Subscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subs...)
}

func (f *fakeStream) OnBookUpdate(h stream.BookUpdateHandler) {
	f.mu.Lock()
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
}

func (f *fakeStream) OnStateChange(stream.StateChangeHandler) {}

func (f *fakeStream) Disconnect() error {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
	if f.log != nil {
		f.log.add("disconnect")
	}
	return nil
}

func (f *fakeStream) State() stream.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opened && !f.disconnected {
		return stream.StateLive
	}
	return stream.StateDisconnected
}

func (f *fakeStream) isDisconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

func (f *fakeStream) emit(ev *stream.BookEvent) {
	f.mu.Lock()
	hs := append([]stream.BookUpdateHandler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range hs {
		_ = h.OnBookUpdate(context.Background(), ev)
	}
}

type fakeExchange struct {
	mu       sync.Mutex
	submits  []types.UserOrder
	submitFn func(order *types.UserOrder) (types.OrderResult, string, error)
	orders   map[string]*types.OpenOrder
	getErr   error
	gets     int
}

func (f *fakeExchange) SubmitOrder(_ context.Context, order *types.UserOrder, _ types.OrderType) (types.OrderResult, string, error) {
	f.mu.Lock()
	f.submits = append(f.submits, *order)
	fn := f.submitFn
	f.mu.Unlock()
	if fn == nil {
		return types.OrderResult{Success: true, OrderID: "0x" + string(order.Side), Status: types.OrderStatusMatched}, "0x" + string(order.Side), nil
	}
	return fn(order)
}

func (f *fakeExchange) GetOrder(_ context.Context, orderID string) (*types.OpenOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, types.Errorf(types.KindRemoteRejection, "get_order", "HTTP 404: not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeExchange) submitted() []types.UserOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.UserOrder(nil), f.submits...)
}

func (f *fakeExchange) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type recordingStrategy struct {
	BaseStrategy
	mu          sync.Mutex
	ticks       []Prices
	bookUpdates []string
	updates     []SubmissionResult
	errs        []error
	cleaned     bool
	log         *eventLog

	onInit func(ctx context.Context, s *Scheduler) error
	onTick func(ctx context.Context, prices Prices) error
}

func (r *recordingStrategy) Name() string { return "recording" }

func (r *recordingStrategy) Initialize(ctx context.Context, s *Scheduler) error {
	if r.onInit != nil {
		return r.onInit(ctx, s)
	}
	return nil
}

func (r *recordingStrategy) OnTick(ctx context.Context, prices Prices) error {
	r.mu.Lock()
	r.ticks = append(r.ticks, prices)
	r.mu.Unlock()
	if r.onTick != nil {
		return r.onTick(ctx, prices)
	}
	return nil
}

func (r *recordingStrategy) OnBookUpdate(_ context.Context, assetID string, _ *marketstate.Book) error {
	r.mu.Lock()
	r.bookUpdates = append(r.bookUpdates, assetID)
	r.mu.Unlock()
	return nil
}

func (r *recordingStrategy) OnOrderUpdate(_ context.Context, res SubmissionResult) {
	r.mu.Lock()
	r.updates = append(r.updates, res)
	r.mu.Unlock()
}

func (r *recordingStrategy) OnError(_ context.Context, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordingStrategy) Cleanup(context.Context) {
	r.mu.Lock()
	r.cleaned = true
	n := len(r.updates)
	r.mu.Unlock()
	if r.log != nil {
		r.log.add("cleanup")
		if n > 0 {
			r.log.add("cleanup-after-result")
		}
	}
}

func (r *recordingStrategy) outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, 0, len(r.updates))
	for _, u := range r.updates {
		out = append(out, u.Outcome)
	}
	return out
}

func (r *recordingStrategy) errList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type harness struct {
	s      *Scheduler
	stream *fakeStream
	store  *marketstate.Store
	ledger *ledger.Ledger
	risk   *ledger.Risk
	ex     *fakeExchange
	strat  *recordingStrategy
}

func newHarness(t *testing.T, cfg Config, riskCfg ledger.RiskConfig) *harness {
	t.Helper()
	return newHarnessWithCap(t, cfg, riskCfg, 3)
}

func newHarnessWithCap(t *testing.T, cfg Config, riskCfg ledger.RiskConfig, maxPositions int) *harness {
	t.Helper()
	h := &harness{
		stream: &fakeStream{},
		store:  marketstate.NewStore(),
		ex:     &fakeExchange{orders: make(map[string]*types.OpenOrder)},
		strat:  &recordingStrategy{},
	}
	l, err := ledger.New(ledger.Config{MaxPositions: maxPositions}, nil)
	require.NoError(t, err)
	h.ledger = l
	h.risk = ledger.NewRisk(riskCfg, l)

	var ex Exchange = h.ex
	if cfg.DryRun {
		ex = nil
	}
	h.s, err = New(cfg, h.strat, h.stream, h.store, l, h.risk, ex)
	require.NoError(t, err)
	return h
}

func (h *harness) setBook(t *testing.T, assetID, bid, ask string) {
	t.Helper()
	_, err := h.store.ApplySnapshot(assetID,
		[]marketstate.Level{{Price: d(bid), Size: d("100")}},
		[]marketstate.Level{{Price: d(ask), Size: d("100")}},
		marketstate.Meta{Market: "m1"})
	require.NoError(t, err)
}

// step 等待全部提交/查询任务完成后执行一次 tick
func (h *harness) step() {
	h.s.wg.Wait()
	h.s.tick(context.Background())
}

func buyIntent() Intent {
	return Intent{
		AssetID:    "a1",
		Market:     "m1",
		Side:       types.SideBuy,
		Price:      d("0.45"),
		Size:       d("10"),
		TakeProfit: d("0.55"),
		StopLoss:   d("0.40"),
		Reason:     "test",
	}
}

func TestTickDeliversPricesAndCoalescedBookUpdates(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	h.setBook(t, "a1", "0.40", "0.42")

	h.stream.emit(&stream.BookEvent{Kind: stream.EventBook, AssetID: "a1"})
	h.stream.emit(&stream.BookEvent{Kind: stream.EventPriceChange, AssetID: "a1"})
	h.stream.emit(&stream.BookEvent{Kind: stream.EventLastTrade, AssetID: "a1"})
	h.stream.emit(&stream.BookEvent{Kind: stream.EventPriceChange, AssetID: "missing"})

	select {
	case <-h.s.notifyC.C():
	default:
		t.Fatal("expected a notification")
	}
	h.s.dispatchBookUpdates(context.Background())
	assert.Equal(t, []string{"a1"}, h.strat.bookUpdates)

	h.step()
	require.Len(t, h.strat.ticks, 1)
	q := h.strat.ticks[0]["a1"]
	assert.True(t, q.Mid.Equal(d("0.41")))
	assert.True(t, q.BestBid.Equal(d("0.40")))
	assert.True(t, q.HasMid())

	st := h.s.Status()
	require.Len(t, st.Quotes, 1)
	assert.Equal(t, "recording", st.Strategy)
	assert.False(t, st.Halted)
}

func TestFilledBuyOpensPositionAndTakeProfitCloses(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	h.setBook(t, "a1", "0.44", "0.46")

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()

	positions := h.ledger.Positions()
	require.Len(t, positions, 1)
	p := positions[0]
	assert.True(t, p.Entry.Equal(d("0.45")))
	assert.True(t, p.TakeProfit.Equal(d("0.55")))
	assert.Equal(t, "0xBUY", p.OrderID)
	assert.Equal(t, "m1", p.Market)

	// mid 0.50：未触发
	h.setBook(t, "a1", "0.49", "0.51")
	h.step()
	assert.Len(t, h.ex.submitted(), 1)

	// mid 0.55：止盈
	h.setBook(t, "a1", "0.54", "0.56")
	h.step()
	subs := h.ex.submitted()
	require.Len(t, subs, 2)
	assert.Equal(t, types.SideSell, subs[1].Side)
	assert.True(t, subs[1].Price.Equal(d("0.54")))
	assert.True(t, subs[1].Size.Equal(d("10")))

	h.step()
	assert.Equal(t, 0, h.ledger.Count())
	assert.True(t, h.ledger.RealizedPnl().Equal(d("0.9")))
	assert.Equal(t, []Outcome{OutcomeFilled, OutcomeFilled}, h.strat.outcomes())
	assert.True(t, h.s.Status().RealizedPnl.Equal(d("0.9")))
}

func TestStopLossSubmitsOnceWhileExitPending(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	h.ex.submitFn = func(o *types.UserOrder) (types.OrderResult, string, error) {
		if o.Side == types.SideBuy {
			return types.OrderResult{Success: true, OrderID: "0xbuy", Status: types.OrderStatusMatched}, "0xbuy", nil
		}
		return types.OrderResult{Success: true, OrderID: "0xsell", Status: types.OrderStatusLive}, "0xsell", nil
	}
	h.ex.orders["0xsell"] = &types.OpenOrder{ID: "0xsell", Status: "LIVE", SizeMatched: "0"}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()
	require.Equal(t, 1, h.ledger.Count())

	h.setBook(t, "a1", "0.39", "0.41")
	for i := 0; i < 4; i++ {
		h.step()
	}
	sells := 0
	for _, o := range h.ex.submitted() {
		if o.Side == types.SideSell {
			sells++
		}
	}
	assert.Equal(t, 1, sells)
	assert.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, 1, h.s.Status().Pending)
	assert.GreaterOrEqual(t, h.ex.getCount(), 1)

	// 挂单最终撤销：下一次评估重新提交平仓
	h.ex.mu.Lock()
	h.ex.orders["0xsell"].Status = "CANCELED"
	h.ex.mu.Unlock()
	h.s.cfg.ReconcileInterval = time.Nanosecond
	h.step()
	h.step()
	h.s.wg.Wait()
	sells = 0
	for _, o := range h.ex.submitted() {
		if o.Side == types.SideSell {
			sells++
		}
	}
	assert.Equal(t, 2, sells)
}

func TestUnknownOutcomeReconciledNextTick(t *testing.T) {
	h := newHarness(t, Config{Reconcile: ReconcileNextTick}, ledger.RiskConfig{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		return types.OrderResult{}, "0xabc", types.NewError(types.KindOutcomeUnknown, "post_order", context.DeadlineExceeded)
	}
	h.ex.orders["0xabc"] = &types.OpenOrder{ID: "0xabc", Status: "MATCHED", SizeMatched: "10", OriginalSize: "10", Price: "0.45"}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.s.wg.Wait()
	assert.Equal(t, 0, h.ex.getCount())

	h.step()
	assert.Equal(t, 0, h.ledger.Count(), "unknown outcome must not touch the ledger")
	assert.Equal(t, []Outcome{OutcomeUnknown}, h.strat.outcomes())

	h.step()
	assert.Equal(t, 1, h.ex.getCount())
	require.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, "0xabc", h.ledger.Positions()[0].OrderID)
	assert.Equal(t, []Outcome{OutcomeUnknown, OutcomeFilled}, h.strat.outcomes())
	assert.Equal(t, 0, h.s.Status().Pending)
}

func TestUnknownOutcomeReconciledImmediately(t *testing.T) {
	h := newHarness(t, Config{Reconcile: ReconcileImmediately}, ledger.RiskConfig{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		return types.OrderResult{}, "0xabc", types.NewError(types.KindOutcomeUnknown, "post_order", context.DeadlineExceeded)
	}
	h.ex.orders["0xabc"] = &types.OpenOrder{ID: "0xabc", Status: "MATCHED", SizeMatched: "10"}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()

	assert.Equal(t, 1, h.ex.getCount())
	assert.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, []Outcome{OutcomeFilled}, h.strat.outcomes())
}

func TestUnknownOutcomeNotFoundIsRejected(t *testing.T) {
	h := newHarness(t, Config{Reconcile: ReconcileImmediately}, ledger.RiskConfig{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		return types.OrderResult{}, "0xgone", types.NewError(types.KindOutcomeUnknown, "post_order", context.DeadlineExceeded)
	}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()

	assert.Equal(t, 0, h.ledger.Count())
	assert.Equal(t, []Outcome{OutcomeRejected}, h.strat.outcomes())
	require.Len(t, h.strat.errList(), 1)
	assert.ErrorIs(t, h.strat.errList()[0], types.ErrRemoteRejection)

	// 拒绝后释放去重，可以再次提交
	_, err = h.s.Submit(context.Background(), buyIntent())
	assert.NoError(t, err)
	h.s.wg.Wait()
}

func TestReconcileQueryFailureKeepsOrderParked(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		return types.OrderResult{}, "0xabc", types.NewError(types.KindOutcomeUnknown, "post_order", context.DeadlineExceeded)
	}
	h.ex.getErr = types.Errorf(types.KindTransientNetwork, "get_order", "HTTP 503")

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()
	h.step()

	assert.Equal(t, 1, h.ex.getCount())
	assert.Equal(t, 1, h.s.Status().Pending)
	assert.Equal(t, []Outcome{OutcomeUnknown}, h.strat.outcomes())

	_, err = h.s.Submit(context.Background(), buyIntent())
	assert.ErrorIs(t, err, ErrDuplicateInFlight)
}

func TestRiskGatesBuyIntents(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{
		MaxTradeSize:  d("5"),
		TradeCooldown: time.Minute,
	})

	_, err := h.s.Submit(context.Background(), buyIntent()) // 4.5 USDC
	require.NoError(t, err)
	h.step()

	var rej *ledger.Rejection
	big := buyIntent()
	big.AssetID = "a2"
	big.Size = d("20")
	_, err = h.s.Submit(context.Background(), big)
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ledger.RejectTradeSize, rej.Reason)

	_, err = h.s.Submit(context.Background(), buyIntent())
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ledger.RejectCooldown, rej.Reason)

	assert.Len(t, h.ex.submitted(), 1)
}

func TestPositionCapCountsInFlightBuys(t *testing.T) {
	h := newHarnessWithCap(t, Config{}, ledger.RiskConfig{}, 1)
	release := make(chan struct{})
	h.ex.submitFn = func(o *types.UserOrder) (types.OrderResult, string, error) {
		<-release
		id := "0x" + o.TokenID
		return types.OrderResult{Success: true, OrderID: id, Status: types.OrderStatusMatched}, id, nil
	}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	assert.Equal(t, 1, h.ledger.Reserved())

	second := buyIntent()
	second.AssetID = "a2"
	_, err = h.s.Submit(context.Background(), second)
	var rej *ledger.Rejection
	require.True(t, errors.As(err, &rej), "in-flight buy must hold the only slot")
	assert.Equal(t, ledger.RejectMaxPositions, rej.Reason)

	close(release)
	h.step()
	assert.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, 0, h.ledger.Reserved())
	assert.Len(t, h.ex.submitted(), 1)
	assert.Equal(t, []Outcome{OutcomeFilled}, h.strat.outcomes())
}

func TestFillBeyondCapIsStillRecorded(t *testing.T) {
	h := newHarnessWithCap(t, Config{}, ledger.RiskConfig{}, 1)
	h.ex.submitFn = func(o *types.UserOrder) (types.OrderResult, string, error) {
		id := "0x" + o.TokenID
		return types.OrderResult{Success: true, OrderID: id, Status: types.OrderStatusMatched}, id, nil
	}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()
	require.Equal(t, 1, h.ledger.Count())

	// SELL 开仓不受仓位上限约束，成交后账本必须照常记录
	short := buyIntent()
	short.AssetID = "a2"
	short.Side = types.SideSell
	short.TakeProfit, short.StopLoss = decimal.Zero, decimal.Zero
	_, err = h.s.Submit(context.Background(), short)
	require.NoError(t, err)
	h.step()

	positions := h.ledger.Positions()
	require.Len(t, positions, 2)
	var over *ledger.Position
	for _, p := range positions {
		if p.AssetID == "a2" {
			over = p
		}
	}
	require.NotNil(t, over)
	assert.True(t, over.OverCap)
	assert.Equal(t, "0xa2", over.OrderID)
	assert.Equal(t, []Outcome{OutcomeFilled, OutcomeFilled}, h.strat.outcomes())
	assert.Empty(t, h.strat.errList())
}

func TestRestingBuyHoldsExposureUntilCanceled(t *testing.T) {
	h := newHarness(t, Config{ReconcileInterval: time.Nanosecond}, ledger.RiskConfig{MaxTotalExposure: d("8")})
	h.ex.submitFn = func(o *types.UserOrder) (types.OrderResult, string, error) {
		id := "0x" + o.TokenID
		return types.OrderResult{Success: true, OrderID: id, Status: types.OrderStatusLive}, id, nil
	}
	h.ex.orders["0xa1"] = &types.OpenOrder{ID: "0xa1", Status: "LIVE", SizeMatched: "0"}

	_, err := h.s.Submit(context.Background(), buyIntent()) // 4.5 USDC
	require.NoError(t, err)
	h.step()
	assert.Equal(t, 1, h.s.Status().Pending)
	assert.Equal(t, 1, h.ledger.Reserved())
	assert.True(t, h.ledger.TotalExposure().Equal(d("4.5")))

	second := buyIntent()
	second.AssetID = "a2"
	_, err = h.s.Submit(context.Background(), second)
	var rej *ledger.Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ledger.RejectTotalExposure, rej.Reason)

	h.ex.mu.Lock()
	h.ex.orders["0xa1"].Status = "CANCELED"
	h.ex.mu.Unlock()
	for i := 0; i < 3 && h.ledger.Reserved() > 0; i++ {
		h.step()
	}
	assert.Equal(t, 0, h.ledger.Reserved())
	assert.Equal(t, 0, h.ledger.Count())
	assert.Contains(t, h.strat.outcomes(), OutcomeCanceled)

	_, err = h.s.Submit(context.Background(), second)
	require.NoError(t, err)
	h.s.wg.Wait()
}

func TestOffsetsSetThresholdsFromFillPrice(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	in := buyIntent()
	in.TakeProfit, in.StopLoss = decimal.Zero, decimal.Zero
	in.TakeProfitOffset = d("0.60")
	in.StopLossOffset = d("0.05")
	_, err := h.s.Submit(context.Background(), in)
	require.NoError(t, err)
	h.step()

	ps := h.ledger.Positions()
	require.Len(t, ps, 1)
	assert.True(t, ps[0].TakeProfit.Equal(d("0.999")), ps[0].TakeProfit.String())
	assert.True(t, ps[0].StopLoss.Equal(d("0.40")), ps[0].StopLoss.String())

	bad := buyIntent()
	bad.AssetID = "a2"
	bad.StopLossOffset = d("-0.1")
	_, err = h.s.Submit(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidIntent)
}

func TestSubmitValidatesIntent(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	bad := buyIntent()
	bad.Price = d("1.2")
	_, err := h.s.Submit(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidIntent)

	bad = buyIntent()
	bad.Size = decimal.Zero
	_, err = h.s.Submit(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidIntent)
	assert.Empty(t, h.ex.submitted())
}

func TestDuplicateInFlightSubmission(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	release := make(chan struct{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		<-release
		return types.OrderResult{Success: true, OrderID: "0x1", Status: types.OrderStatusMatched}, "0x1", nil
	}

	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	_, err = h.s.Submit(context.Background(), buyIntent())
	assert.ErrorIs(t, err, ErrDuplicateInFlight)
	assert.Equal(t, int64(1), h.s.Status().InFlight)

	close(release)
	h.step()
	assert.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, int64(0), h.s.Status().InFlight)
}

func TestDryRunNeverCallsExchange(t *testing.T) {
	h := newHarness(t, Config{DryRun: true}, ledger.RiskConfig{})
	_, err := h.s.Submit(context.Background(), buyIntent())
	require.NoError(t, err)
	h.step()

	require.Equal(t, 1, h.ledger.Count())
	assert.Contains(t, h.ledger.Positions()[0].OrderID, "dry-run-")
	assert.Empty(t, h.ex.submitted())
	assert.True(t, h.s.Status().DryRun)
}

func TestNewRequiresExchangeUnlessDryRun(t *testing.T) {
	l, err := ledger.New(ledger.Config{MaxPositions: 1}, nil)
	require.NoError(t, err)
	_, err = New(Config{}, IdleStrategy{}, &fakeStream{}, marketstate.NewStore(), l, nil, nil)
	assert.Error(t, err)
	_, err = New(Config{DryRun: true}, IdleStrategy{}, &fakeStream{}, marketstate.NewStore(), l, nil, nil)
	assert.NoError(t, err)
}

func TestAuthFailureHaltsRun(t *testing.T) {
	h := newHarness(t, Config{TickInterval: 10 * time.Millisecond}, ledger.RiskConfig{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		return types.OrderResult{}, "", types.Errorf(types.KindAuthFailure, "post_order", "HTTP 401: Unauthorized")
	}
	h.strat.onInit = func(ctx context.Context, s *Scheduler) error {
		_, err := s.Submit(ctx, buyIntent())
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, err, types.ErrAuthFailure)
	require.NoError(t, ctx.Err(), "run must stop on its own")

	errs := h.strat.errList()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], types.ErrAuthFailure)
	assert.True(t, h.strat.cleaned)
	assert.True(t, h.stream.isDisconnected())
	assert.True(t, h.risk.Halted())

	st := h.s.Status()
	assert.True(t, st.Halted)
	assert.False(t, st.Running)
	assert.Len(t, h.ex.submitted(), 1, "auth failures are never retried")
}

func TestStopDrainsInFlightBeforeCleanup(t *testing.T) {
	log := &eventLog{}
	h := newHarness(t, Config{TickInterval: 10 * time.Millisecond}, ledger.RiskConfig{})
	h.stream.log = log
	h.strat.log = log

	started := make(chan struct{})
	release := make(chan struct{})
	h.ex.submitFn = func(*types.UserOrder) (types.OrderResult, string, error) {
		close(started)
		<-release
		return types.OrderResult{Success: true, OrderID: "0x1", Status: types.OrderStatusMatched}, "0x1", nil
	}
	h.strat.onInit = func(ctx context.Context, s *Scheduler) error {
		if err := s.Subscribe("a1"); err != nil {
			return err
		}
		_, err := s.Submit(ctx, buyIntent())
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- h.s.Run(context.Background()) }()
	<-started

	stopped := make(chan struct{})
	go func() {
		h.s.Stop()
		close(stopped)
	}()

	require.Eventually(t, h.stream.isDisconnected, 2*time.Second, 5*time.Millisecond)
	select {
	case <-stopped:
		t.Fatal("Stop returned before in-flight submission finished")
	default:
	}

	close(release)
	<-stopped
	require.NoError(t, <-runErr)

	assert.Equal(t, []string{"disconnect", "cleanup", "cleanup-after-result"}, log.list())
	assert.Equal(t, 1, h.ledger.Count())
	assert.Equal(t, []string{"a1"}, h.s.Status().Subscriptions)
	assert.ErrorIs(t, h.s.Run(context.Background()), ErrAlreadyRunning)
}

func TestStrategyPanicIsReportedAsError(t *testing.T) {
	h := newHarness(t, Config{}, ledger.RiskConfig{})
	h.strat.onTick = func(context.Context, Prices) error { panic("boom") }

	h.step()
	errs := h.strat.errList()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "boom")
	assert.Contains(t, h.s.Status().LastError, "boom")
}

func TestClassify(t *testing.T) {
	in := buyIntent()
	base := SubmissionResult{Intent: in, OrderID: "0x1"}

	r := classify(base, types.OrderResult{Success: true, Status: types.OrderStatusLive}, nil)
	assert.Equal(t, OutcomeAccepted, r.Outcome)

	r = classify(base, types.OrderResult{Success: true, Status: types.OrderStatusUnmatched}, nil)
	assert.Equal(t, OutcomeCanceled, r.Outcome)

	r = classify(base, types.OrderResult{}, types.Errorf(types.KindTransientNetwork, "post_order", "HTTP 502"))
	assert.Equal(t, OutcomeUnknown, r.Outcome)

	noID := SubmissionResult{Intent: in}
	r = classify(noID, types.OrderResult{}, types.Errorf(types.KindTransientNetwork, "tick_size", "HTTP 502"))
	assert.Equal(t, OutcomeRejected, r.Outcome)

	r = classify(base, types.OrderResult{Message: "not enough balance"}, types.Errorf(types.KindRemoteRejection, "post_order", "not enough balance"))
	assert.Equal(t, OutcomeRejected, r.Outcome)
	assert.ErrorIs(t, r.Err, types.ErrRemoteRejection)
}

func TestApplyOrderStatePartialFill(t *testing.T) {
	base := SubmissionResult{Intent: buyIntent(), OrderID: "0x1", Outcome: OutcomeAccepted}
	r := applyOrderState(base, &types.OpenOrder{ID: "0x1", Status: "CANCELED", SizeMatched: "4", Price: "0.45"})
	assert.Equal(t, OutcomeFilled, r.Outcome)
	assert.True(t, r.FilledSize.Equal(d("4")))

	r = applyOrderState(base, &types.OpenOrder{ID: "0x1", Status: "CANCELED", SizeMatched: "0"})
	assert.Equal(t, OutcomeCanceled, r.Outcome)
}

func TestStrategyRegistry(t *testing.T) {
	s, err := NewStrategy("idle")
	require.NoError(t, err)
	assert.Equal(t, "idle", s.Name())
	assert.Contains(t, RegisteredStrategies(), "idle")

	_, err = NewStrategy("nope")
	assert.Error(t, err)
	assert.Panics(t, func() { RegisterStrategy("idle", func() Strategy { return IdleStrategy{} }) })
}

func TestInFlightDeduperTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	dd := newInFlightDeduper(time.Second, 4)
	dd.now = func() time.Time { return now }

	key := dedupeKey("a1", types.SideBuy)
	require.NoError(t, dd.TryAcquire(key))
	assert.ErrorIs(t, dd.TryAcquire(key), ErrDuplicateInFlight)
	assert.NoError(t, dd.TryAcquire(dedupeKey("a1", types.SideSell)))

	now = now.Add(2 * time.Second)
	assert.NoError(t, dd.TryAcquire(key))
	dd.Release(key)
	assert.NoError(t, dd.TryAcquire(key))
}
