// Package websocket 实现 CLOB 市场频道的重连行情流。
//
// 单个读 goroutine 解析消息、写入 marketstate.Store 并串行回调处理器；
// 快照重拉与网络写操作不在读 goroutine 上阻塞。
package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/marketstate"
	"github.com/betbot/polyclob/internal/metrics"
	"github.com/betbot/polyclob/internal/stream"
	"github.com/betbot/polyclob/pkg/sigchan"
	"github.com/betbot/polyclob/pkg/syncgroup"
)

var marketLog = logrus.WithField("component", "market_stream")

// DefaultURL 市场频道地址
const DefaultURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

const (
	defaultPingInterval     = 10 * time.Second
	defaultHeartbeatTimeout = 30 * time.Second
	defaultSnapshotTimeout  = 10 * time.Second
	writeTimeout            = 10 * time.Second
	closeWait               = 5 * time.Second
)

var (
	ErrAlreadyOpen  = errors.New("market stream already open")
	ErrStreamClosed = errors.New("market stream closed")
)

// SnapshotFetcher 通过 REST 拉取订单簿快照（clob/client.Client 实现）
type SnapshotFetcher interface {
	FetchBook(ctx context.Context, assetID string) (*types.OrderBookSummary, error)
}

// Config 行情流配置
type Config struct {
	URL              string
	ProxyURL         string
	PingInterval     time.Duration
	HeartbeatTimeout time.Duration
	HandshakeTimeout time.Duration
	// SnapshotTimeout 单次 REST 快照请求超时
	SnapshotTimeout time.Duration
	Backoff         BackoffConfig
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		PingInterval:     defaultPingInterval,
		HeartbeatTimeout: defaultHeartbeatTimeout,
		HandshakeTimeout: 30 * time.Second,
		SnapshotTimeout:  defaultSnapshotTimeout,
		Backoff:          DefaultBackoff(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.SnapshotTimeout <= 0 {
		c.SnapshotTimeout = d.SnapshotTimeout
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = d.Backoff
	}
	if c.ProxyURL == "" {
		c.ProxyURL = getProxyFromEnv()
	}
	return c
}

// MarketStream 市场行情流
type MarketStream struct {
	cfg     Config
	store   *marketstate.Store
	fetcher SnapshotFetcher

	handlers *stream.HandlerList

	stateMu       sync.Mutex
	state         stream.State
	stateHandlers []stream.StateChangeHandler

	subMu sync.Mutex
	subs  map[string]struct{}

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	// dispatchMu 串行化消息分发与重新同步结果，保护以下字段
	dispatchMu  sync.Mutex
	resyncing   map[string]uint64
	resyncGen   uint64
	staleBefore map[string]int64

	lastMessageAt atomic.Int64
	attempt       atomic.Int32
	reconnectBo   *backoff.ExponentialBackOff // 只在连接循环中使用

	openMu    sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
	closeOnce sync.Once

	reconnectC *sigchan.Chan
	sg         *syncgroup.SyncGroup // 连接循环
	connSg     *syncgroup.SyncGroup // 单个连接的读/心跳 goroutine
	tasks      sync.WaitGroup       // 快照重拉任务
}

// NewMarketStream 创建行情流。store 为 nil 时内部新建；fetcher 为 nil 时缺口通过重连恢复。
func NewMarketStream(cfg Config, store *marketstate.Store, fetcher SnapshotFetcher) *MarketStream {
	if store == nil {
		store = marketstate.NewStore()
	}
	cfg = cfg.withDefaults()
	return &MarketStream{
		cfg:         cfg,
		reconnectBo: cfg.Backoff.newBackOff(),
		store:       store,
		fetcher:     fetcher,
		handlers:    stream.NewHandlerList(),
		state:       stream.StateDisconnected,
		subs:        make(map[string]struct{}),
		resyncing:   make(map[string]uint64),
		staleBefore: make(map[string]int64),
		reconnectC:  sigchan.New(1),
		sg:          syncgroup.NewSyncGroup(),
		connSg:      syncgroup.NewSyncGroup(),
	}
}

var _ stream.MarketDataStream = (*MarketStream)(nil)

// Store 行情写入的订单簿存储
func (m *MarketStream) Store() *marketstate.Store { return m.store }

// OnBookUpdate 注册订单簿事件处理器。处理器在读 goroutine 上按到达顺序串行调用，
// 处理器内不能同步调用 Subscribe/Unsubscribe。
func (m *MarketStream) OnBookUpdate(handler stream.BookUpdateHandler) {
	m.handlers.Add(handler)
}

// Subscriptions 当前订阅的资产（已排序）
func (m *MarketStream) Subscriptions() []string {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return m.subscriptionsLocked()
}

func (m *MarketStream) subscriptionsLocked() []string {
	out := make([]string, 0, len(m.subs))
	for id := range m.subs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Open 启动连接循环，立即返回
func (m *MarketStream) Open(ctx context.Context) error {
	m.openMu.Lock()
	defer m.openMu.Unlock()
	if m.closed {
		return ErrStreamClosed
	}
	if m.cancel != nil {
		return ErrAlreadyOpen
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	runCtx := m.ctx
	m.sg.Add(func() {
		m.run(runCtx)
	})
	m.sg.Run()
	return nil
}

// Subscribe 修改订阅集合。已连接时发送增量订阅，不重连。
func (m *MarketStream) Subscribe(assetIDs []string, replaceExisting bool) error {
	m.subMu.Lock()
	var added, removed []string
	next := make(map[string]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		next[id] = struct{}{}
		if _, ok := m.subs[id]; !ok {
			added = append(added, id)
		}
	}
	if replaceExisting {
		for id := range m.subs {
			if _, ok := next[id]; !ok {
				removed = append(removed, id)
			}
		}
		m.subs = next
	} else {
		for id := range next {
			m.subs[id] = struct{}{}
		}
	}
	m.subMu.Unlock()

	sort.Strings(added)
	sort.Strings(removed)
	m.forget(removed)
	if !m.connected() {
		return nil
	}
	if len(removed) > 0 {
		if err := m.writeJSON(operationMessage(removed, "unsubscribe")); err != nil {
			return errors.Wrap(err, "send unsubscribe")
		}
	}
	if len(added) > 0 {
		if err := m.writeJSON(operationMessage(added, "subscribe")); err != nil {
			return errors.Wrap(err, "send subscribe")
		}
		marketLog.Infof("增量订阅 %d 个资产", len(added))
	}
	return nil
}

// Unsubscribe 移除资产并删除对应订单簿
func (m *MarketStream) Unsubscribe(assetIDs []string) error {
	m.subMu.Lock()
	var removed []string
	for _, id := range assetIDs {
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			removed = append(removed, id)
		}
	}
	m.subMu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	m.forget(removed)
	if !m.connected() {
		return nil
	}
	return errors.Wrap(m.writeJSON(operationMessage(removed, "unsubscribe")), "send unsubscribe")
}

// forget 丢弃已退订资产的订单簿与同步状态
func (m *MarketStream) forget(ids []string) {
	if len(ids) == 0 {
		return
	}
	m.dispatchMu.Lock()
	for _, id := range ids {
		delete(m.resyncing, id)
		delete(m.staleBefore, id)
		m.store.Drop(id)
	}
	m.dispatchMu.Unlock()
}

func (m *MarketStream) subscribed(id string) bool {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	_, ok := m.subs[id]
	return ok
}

func (m *MarketStream) connected() bool {
	s := m.State()
	if s != stream.StateSubscribing && s != stream.StateLive {
		return false
	}
	m.connMu.Lock()
	defer m.connMu.Unlock()
	return m.conn != nil
}

func operationMessage(ids []string, op string) map[string]any {
	return map[string]any{
		"assets_ids": ids,
		"operation":  op,
	}
}

// Disconnect 关闭连接并停止所有 goroutine，可重复调用
func (m *MarketStream) Disconnect() error {
	m.closeOnce.Do(func() {
		m.openMu.Lock()
		m.closed = true
		cancel := m.cancel
		m.openMu.Unlock()

		if cancel != nil {
			cancel()
		}
		m.closeConn()

		done := make(chan struct{})
		go func() {
			m.sg.WaitAndClear()
			m.tasks.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(closeWait):
			marketLog.Warnf("等待行情 goroutine 退出超时（%s），继续关闭", closeWait)
		}
		m.setState(stream.StateDisconnected)
	})
	return nil
}

// run 连接循环：拨号、订阅、等待连接失败、退避重连
func (m *MarketStream) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m.setState(stream.StateConnecting)

		conn, err := m.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			marketLog.Warnf("行情连接失败: %v", err)
			m.setState(stream.StateReconnecting)
			if !m.sleepBackoff(ctx) {
				return
			}
			continue
		}

		m.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		m.setState(stream.StateReconnecting)
		if !m.sleepBackoff(ctx) {
			return
		}
	}
}

// serve 运行单个连接直到它失败或 ctx 取消
func (m *MarketStream) serve(ctx context.Context, conn *websocket.Conn) {
	connCtx, connCancel := context.WithCancel(ctx)
	defer connCancel()

	m.reconnectC.Drain()
	m.connMu.Lock()
	m.conn = conn
	m.connMu.Unlock()
	m.lastMessageAt.Store(time.Now().UnixNano())

	m.setState(stream.StateSubscribing)
	subscribeDeadline := time.Now().Add(m.cfg.HeartbeatTimeout)

	m.connSg.Add(func() {
		m.read(connCtx, conn, connCancel, subscribeDeadline)
	})
	m.connSg.Add(func() {
		m.ping(connCtx, connCancel)
	})
	m.connSg.Run()

	assets := m.Subscriptions()
	if err := m.writeJSON(map[string]any{"assets_ids": assets, "type": "market"}); err != nil {
		marketLog.Warnf("发送订阅失败: %v", err)
		connCancel()
	} else {
		marketLog.Infof("📡 已订阅 %d 个资产", len(assets))
		if len(assets) == 0 {
			m.goLive()
		}
	}

	select {
	case <-connCtx.Done():
	case <-m.reconnectC.C():
		marketLog.Warnf("收到重连信号，关闭当前连接")
	}
	connCancel()
	m.closeConn()
	m.connSg.WaitAndClear()
}

func (m *MarketStream) closeConn() {
	m.connMu.Lock()
	conn := m.conn
	m.conn = nil
	m.connMu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (m *MarketStream) sleepBackoff(ctx context.Context) bool {
	n := m.attempt.Add(1)
	if n == 1 {
		m.reconnectBo.Reset()
	}
	wait := m.reconnectBo.NextBackOff()
	marketLog.Infof("%s 后第 %d 次重连", wait, n)
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// dial 拨号 WebSocket 连接
func (m *MarketStream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.cfg.HandshakeTimeout,
	}
	if m.cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(m.cfg.ProxyURL)
		if err == nil {
			dialer.Proxy = http.ProxyURL(proxyURL)
		}
	}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return nil, types.NewError(types.KindTransientNetwork, "ws_dial", err)
	}
	return conn, nil
}

func (m *MarketStream) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.writeMessage(b)
}

func (m *MarketStream) writeMessage(b []byte) error {
	m.connMu.Lock()
	conn := m.conn
	m.connMu.Unlock()
	if conn == nil {
		return errors.New("连接未建立")
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// read 读循环。任何消息都会刷新存活时间，超过 HeartbeatTimeout 无消息即判定连接失效。
func (m *MarketStream) read(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subscribeDeadline time.Time) {
	defer cancel()
	for {
		deadline := time.Now().Add(m.cfg.HeartbeatTimeout)
		if m.State() == stream.StateSubscribing && subscribeDeadline.Before(deadline) {
			deadline = subscribeDeadline
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var netErr net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				marketLog.Infof("服务端关闭连接: %v", err)
			case errors.As(err, &netErr) && netErr.Timeout():
				marketLog.Warnf("心跳超时（%s 内无消息），触发重连", m.cfg.HeartbeatTimeout)
			default:
				marketLog.Warnf("WebSocket 读取错误: %v，触发重连", err)
			}
			return
		}
		m.lastMessageAt.Store(time.Now().UnixNano())
		m.dispatch(ctx, message)
	}
}

// ping 定时发送文本 PING
func (m *MarketStream) ping(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.writeMessage([]byte("PING")); err != nil {
				marketLog.Warnf("发送 PING 失败: %v，触发重连", err)
				cancel()
				return
			}
		}
	}
}

// LastMessageAt 最近一次收到消息的时间
func (m *MarketStream) LastMessageAt() time.Time {
	return time.Unix(0, m.lastMessageAt.Load())
}

func (m *MarketStream) goLive() {
	if m.setState(stream.StateLive) {
		m.attempt.Store(0)
	}
}

func (m *MarketStream) dispatch(ctx context.Context, message []byte) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.handleMessage(ctx, message)
}

// handleMessage 解析单条消息；调用方持有 dispatchMu
func (m *MarketStream) handleMessage(ctx context.Context, message []byte) {
	message = bytes.TrimSpace(message)
	if len(message) == 0 {
		return
	}
	switch string(message) {
	case "PING":
		if err := m.writeMessage([]byte("PONG")); err != nil {
			marketLog.Warnf("回复 PONG 失败: %v", err)
		}
		return
	case "PONG":
		return
	}

	if message[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(message, &raws); err != nil {
			marketLog.Debugf("解析消息数组失败: %v, msg=%q", err, preview(message))
			return
		}
		for _, raw := range raws {
			m.handleMessage(ctx, raw)
		}
		return
	}

	var head eventHeader
	if err := json.Unmarshal(message, &head); err != nil {
		marketLog.Debugf("解析消息类型失败(可能是非JSON): %v, msg=%q", err, preview(message))
		return
	}

	switch head.EventType {
	case "book":
		var msg bookMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			marketLog.Warnf("解析 book 消息失败: %v", err)
			return
		}
		m.onBook(ctx, &msg)
	case "price_change":
		var msg priceChangeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			marketLog.Warnf("解析 price_change 消息失败: %v", err)
			return
		}
		m.onPriceChange(ctx, &msg)
	case "last_trade_price":
		var msg lastTradeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			marketLog.Warnf("解析 last_trade_price 消息失败: %v", err)
			return
		}
		m.onLastTrade(ctx, &msg)
	case "tick_size_change":
		var msg tickSizeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			marketLog.Warnf("解析 tick_size_change 消息失败: %v", err)
			return
		}
		m.onTickSize(ctx, &msg)
	default:
		marketLog.Debugf("收到未知消息类型: %q (%s)", head.EventType, preview(message))
	}
}

func (m *MarketStream) onBook(ctx context.Context, msg *bookMessage) {
	if msg.AssetID == "" || !m.subscribed(msg.AssetID) {
		return
	}
	bids, asks, err := msg.levels()
	if err != nil {
		marketLog.Warnf("book 价位解析失败: asset=%s err=%v", msg.AssetID, err)
		return
	}
	book, err := m.store.ApplySnapshot(msg.AssetID, bids, asks, marketstate.Meta{
		Market:    msg.Market,
		Hash:      msg.Hash,
		Timestamp: int64(msg.Timestamp),
	})
	if err != nil {
		marketLog.Warnf("book 快照被拒绝: asset=%s err=%v", msg.AssetID, err)
		m.startResync(ctx, msg.AssetID)
		return
	}
	delete(m.resyncing, msg.AssetID)
	delete(m.staleBefore, msg.AssetID)

	if m.State() == stream.StateSubscribing {
		m.goLive()
	}
	m.emit(ctx, &stream.BookEvent{Kind: stream.EventBook, AssetID: msg.AssetID, Market: book.Market, Book: book})
}

func (m *MarketStream) onPriceChange(ctx context.Context, msg *priceChangeMessage) {
	deltas, err := msg.deltas()
	if err != nil {
		marketLog.Warnf("price_change 解析失败: %v", err)
		return
	}
	for _, d := range deltas {
		if !m.subscribed(d.assetID) {
			continue
		}
		if _, ok := m.resyncing[d.assetID]; ok {
			marketLog.Debugf("资产 %s 重新同步中，丢弃增量", d.assetID)
			continue
		}
		book, err := m.store.ApplyDelta(d.assetID, d.changes, d.meta)
		if err != nil {
			if errors.Is(err, marketstate.ErrSequenceGap) && d.meta.Timestamp <= m.staleBefore[d.assetID] {
				// 早于 REST 快照的增量
				continue
			}
			marketLog.Warnf("增量应用失败，重新同步: asset=%s err=%v", d.assetID, err)
			m.startResync(ctx, d.assetID)
			continue
		}
		delete(m.staleBefore, d.assetID)
		m.emit(ctx, &stream.BookEvent{Kind: stream.EventPriceChange, AssetID: d.assetID, Market: book.Market, Book: book})
	}
}

func (m *MarketStream) onLastTrade(ctx context.Context, msg *lastTradeMessage) {
	if !m.subscribed(msg.AssetID) {
		return
	}
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		marketLog.Debugf("last_trade_price 价格无效: %q", msg.Price)
		return
	}
	size, _ := decimal.NewFromString(msg.Size)
	m.emit(ctx, &stream.BookEvent{
		Kind:       stream.EventLastTrade,
		AssetID:    msg.AssetID,
		Market:     msg.Market,
		Book:       m.store.Book(msg.AssetID),
		TradePrice: price,
		TradeSize:  size,
	})
}

func (m *MarketStream) onTickSize(ctx context.Context, msg *tickSizeMessage) {
	if !m.subscribed(msg.AssetID) {
		return
	}
	marketLog.Infof("tick size 变化: asset=%s %s -> %s", msg.AssetID, msg.OldTickSize, msg.NewTickSize)
	m.emit(ctx, &stream.BookEvent{
		Kind:        stream.EventTickSize,
		AssetID:     msg.AssetID,
		Market:      msg.Market,
		Book:        m.store.Book(msg.AssetID),
		OldTickSize: msg.OldTickSize,
		NewTickSize: msg.NewTickSize,
	})
}

func (m *MarketStream) emit(ctx context.Context, ev *stream.BookEvent) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	m.handlers.Emit(ctx, ev)
}

// startResync 标记资产为重新同步中并异步拉取快照；调用方持有 dispatchMu
func (m *MarketStream) startResync(ctx context.Context, assetID string) {
	if _, ok := m.resyncing[assetID]; ok {
		return
	}
	m.resyncGen++
	gen := m.resyncGen
	m.resyncing[assetID] = gen

	if m.fetcher == nil {
		marketLog.Warnf("无快照来源，通过重连恢复: asset=%s", assetID)
		m.reconnectC.Emit()
		return
	}
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		m.resync(ctx, assetID, gen)
	}()
}

// resync 拉取并应用 REST 快照。拉取失败或快照不可用都按退避重试，期间资产保持重新同步状态、
// 增量一律丢弃，直到成功、被服务端快照取代或 ctx 取消
func (m *MarketStream) resync(ctx context.Context, assetID string, gen uint64) {
	bo := m.cfg.Backoff.newBackOff()
	for attempt := 1; ; attempt++ {
		fctx, cancel := context.WithTimeout(ctx, m.cfg.SnapshotTimeout)
		summary, err := m.fetcher.FetchBook(fctx, assetID)
		cancel()

		m.dispatchMu.Lock()
		if m.resyncing[assetID] != gen {
			m.dispatchMu.Unlock()
			return
		}
		if err == nil {
			err = m.applyResync(ctx, assetID, summary)
		}
		m.dispatchMu.Unlock()
		if err == nil {
			return
		}

		marketLog.Warnf("快照重新同步失败(第 %d 次): asset=%s err=%v", attempt, assetID, err)
		t := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// applyResync 调用方持有 dispatchMu；失败时资产仍处于重新同步状态
func (m *MarketStream) applyResync(ctx context.Context, assetID string, summary *types.OrderBookSummary) error {
	if summary == nil {
		return errors.New("empty snapshot")
	}
	bids, asks, meta, err := snapshotFromSummary(summary)
	if err != nil {
		return errors.Wrap(err, "parse snapshot")
	}
	book, err := m.store.ApplySnapshot(assetID, bids, asks, meta)
	if err != nil {
		return errors.Wrap(err, "snapshot rejected")
	}
	delete(m.resyncing, assetID)
	m.staleBefore[assetID] = meta.Timestamp
	metrics.StreamResyncs.Add(1)
	marketLog.Infof("资产 %s 已通过快照重新同步", assetID)
	m.emit(ctx, &stream.BookEvent{Kind: stream.EventResync, AssetID: assetID, Market: book.Market, Book: book})
	return nil
}
