package ledger

import (
	"encoding/json"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/internal/metrics"
)

// Snapshot 账本持久化内容，只包含持仓与盈亏，不含任何凭证
type Snapshot struct {
	Positions   []*Position
	RealizedPnl decimal.Decimal
	DailyPnl    decimal.Decimal
	DayKey      int64
}

// Store 账本持久化
type Store interface {
	// Load 没有保存过任何状态时返回 (nil, nil)
	Load() (*Snapshot, error)
	Save(*Snapshot) error
	Close() error
}

const (
	positionPrefix = "ledger/position/"
	keyRealized    = "ledger/pnl/realized"
	keyDaily       = "ledger/pnl/daily"
	keyDayKey      = "ledger/pnl/day"
)

// BadgerStore 基于 Badger 的账本存储
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore 打开目录下的 Badger 数据库
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger store: path is required")
	}
	return OpenBadgerStoreWithOptions(badger.DefaultOptions(path).WithLogger(nil))
}

// OpenBadgerStoreWithOptions 使用自定义选项打开（测试使用 InMemory）
func OpenBadgerStoreWithOptions(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger store")
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save 在一个事务内整体替换持仓集合与盈亏
func (s *BadgerStore) Save(snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		keep := make(map[string]bool, len(snap.Positions))
		for _, p := range snap.Positions {
			b, err := json.Marshal(p)
			if err != nil {
				return errors.Wrapf(err, "marshal position %s", p.ID)
			}
			key := positionPrefix + p.ID
			keep[key] = true
			if err := txn.Set([]byte(key), b); err != nil {
				return err
			}
		}

		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(positionPrefix)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			if !keep[string(k)] {
				stale = append(stale, k)
			}
		}
		it.Close()
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		if err := txn.Set([]byte(keyRealized), []byte(snap.RealizedPnl.String())); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyDaily), []byte(snap.DailyPnl.String())); err != nil {
			return err
		}
		return txn.Set([]byte(keyDayKey), []byte(strconv.FormatInt(snap.DayKey, 10)))
	})
	if err == nil {
		metrics.SnapshotSaves.Add(1)
	}
	return err
}

// Load 读取保存的状态
func (s *BadgerStore) Load() (*Snapshot, error) {
	var snap Snapshot
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(positionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			found = true
			var p Position
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return errors.Wrapf(err, "decode %s", it.Item().Key())
			}
			snap.Positions = append(snap.Positions, &p)
		}

		read := func(key string) (string, error) {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			found = true
			v, err := item.ValueCopy(nil)
			return string(v), err
		}
		for key, dst := range map[string]*decimal.Decimal{keyRealized: &snap.RealizedPnl, keyDaily: &snap.DailyPnl} {
			v, err := read(key)
			if err != nil {
				return err
			}
			if v == "" {
				continue
			}
			if *dst, err = decimal.NewFromString(v); err != nil {
				return errors.Wrapf(err, "decode %s", key)
			}
		}
		v, err := read(keyDayKey)
		if err != nil || v == "" {
			return err
		}
		snap.DayKey, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	metrics.SnapshotLoads.Add(1)
	return &snap, nil
}
