package marketstate

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
)

var (
	ErrCrossedBook = errors.New("marketstate: crossed book")
	ErrNoSnapshot  = errors.New("marketstate: no snapshot for asset")
	ErrSequenceGap = errors.New("marketstate: delta older than book")
)

// Store 订单簿存储。写操作串行，读操作无锁。
type Store struct {
	mu    sync.RWMutex
	books map[string]*atomic.Pointer[Book]

	// wmu 串行化写方（读循环与重新同步任务）
	wmu sync.Mutex
	now func() time.Time
}

// NewStore 创建存储
func NewStore() *Store {
	return &Store{
		books: make(map[string]*atomic.Pointer[Book]),
		now:   time.Now,
	}
}

func (s *Store) slot(id string, create bool) *atomic.Pointer[Book] {
	s.mu.RLock()
	p, ok := s.books[id]
	s.mu.RUnlock()
	if ok || !create {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.books[id]; !ok {
		p = new(atomic.Pointer[Book])
		s.books[id] = p
	}
	return p
}

// ApplySnapshot 整体替换订单簿。交叉的快照不会发布。
func (s *Store) ApplySnapshot(id string, bids, asks []Level, meta Meta) (*Book, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	slot := s.slot(id, true)
	var seq uint64
	if cur := slot.Load(); cur != nil {
		seq = cur.Seq
	}
	next := &Book{
		AssetID:   id,
		Market:    meta.Market,
		Bids:      normalize(bids, true),
		Asks:      normalize(asks, false),
		Hash:      meta.Hash,
		Timestamp: meta.Timestamp,
		Seq:       seq + 1,
		UpdatedAt: s.now(),
	}
	if next.Crossed() {
		return nil, types.NewError(types.KindStateCorruption, "apply_snapshot", ErrCrossedBook)
	}
	slot.Store(next)
	return next, nil
}

// ApplyDelta 应用增量。未知订单簿、时间戳倒退或结果交叉都返回状态错误，原簿保持不变。
func (s *Store) ApplyDelta(id string, changes []Change, meta Meta) (*Book, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	slot := s.slot(id, false)
	if slot == nil || slot.Load() == nil {
		return nil, types.NewError(types.KindStateCorruption, "apply_delta", ErrNoSnapshot)
	}
	cur := slot.Load()
	if meta.Timestamp > 0 && meta.Timestamp < cur.Timestamp {
		return nil, types.NewError(types.KindStateCorruption, "apply_delta", ErrSequenceGap)
	}

	bids, asks := cur.Bids, cur.Asks
	for _, ch := range changes {
		if ch.Side == types.SideBuy {
			bids = upsert(bids, ch.Price, ch.Size, true)
		} else {
			asks = upsert(asks, ch.Price, ch.Size, false)
		}
	}

	next := &Book{
		AssetID:   id,
		Market:    cur.Market,
		Bids:      bids,
		Asks:      asks,
		Hash:      cur.Hash,
		Timestamp: cur.Timestamp,
		Seq:       cur.Seq + 1,
		UpdatedAt: s.now(),
	}
	if meta.Market != "" {
		next.Market = meta.Market
	}
	if meta.Hash != "" {
		next.Hash = meta.Hash
	}
	if meta.Timestamp > 0 {
		next.Timestamp = meta.Timestamp
	}
	if next.Crossed() {
		return nil, types.NewError(types.KindStateCorruption, "apply_delta", ErrCrossedBook)
	}
	slot.Store(next)
	return next, nil
}

// Book 当前快照，不存在返回 nil
func (s *Store) Book(id string) *Book {
	slot := s.slot(id, false)
	if slot == nil {
		return nil
	}
	return slot.Load()
}

// BestBid 最优买价
func (s *Store) BestBid(id string) (Level, bool) { return s.Book(id).BestBid() }

// BestAsk 最优卖价
func (s *Store) BestAsk(id string) (Level, bool) { return s.Book(id).BestAsk() }

// Mid 中间价
func (s *Store) Mid(id string) (decimal.Decimal, bool) { return s.Book(id).Mid() }

// Spread 价差
func (s *Store) Spread(id string) (decimal.Decimal, bool) { return s.Book(id).Spread() }

// Drop 删除订单簿（取消订阅或重新同步前）
func (s *Store) Drop(id string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	delete(s.books, id)
	s.mu.Unlock()
}

// Assets 当前有订单簿的资产
func (s *Store) Assets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for id, p := range s.books {
		if p.Load() != nil {
			out = append(out, id)
		}
	}
	return out
}
