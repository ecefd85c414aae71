package scheduler

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/betbot/polyclob/clob/types"
)

// ErrDuplicateInFlight 同一资产同一方向已有未完成的提交
var ErrDuplicateInFlight = errors.New("duplicate in-flight submission")

// inFlightDeduper 按 key 去重。结果被应用后释放；TTL 兜底，避免结果丢失时永久占用。
type inFlightDeduper struct {
	ttl    time.Duration
	shards []inFlightShard
	now    func() time.Time
}

type inFlightShard struct {
	mu sync.Mutex
	m  map[string]time.Time // key -> expiresAt
}

func newInFlightDeduper(ttl time.Duration, shardCount int) *inFlightDeduper {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if shardCount <= 0 {
		shardCount = 16
	}
	shards := make([]inFlightShard, shardCount)
	for i := range shards {
		shards[i].m = make(map[string]time.Time)
	}
	return &inFlightDeduper{ttl: ttl, shards: shards, now: time.Now}
}

func dedupeKey(assetID string, side types.Side) string {
	return assetID + "|" + string(side)
}

// TryAcquire 成功返回 nil，重复返回 ErrDuplicateInFlight
func (d *inFlightDeduper) TryAcquire(key string) error {
	if key == "" {
		return nil
	}
	now := d.now()
	sh := d.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for k, exp := range sh.m {
		if !exp.After(now) {
			delete(sh.m, k)
		}
	}
	if exp, ok := sh.m[key]; ok && exp.After(now) {
		return ErrDuplicateInFlight
	}
	sh.m[key] = now.Add(d.ttl)
	return nil
}

func (d *inFlightDeduper) Release(key string) {
	if key == "" {
		return
	}
	sh := d.shard(key)
	sh.mu.Lock()
	delete(sh.m, key)
	sh.mu.Unlock()
}

func (d *inFlightDeduper) shard(key string) *inFlightShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &d.shards[h.Sum32()%uint32(len(d.shards))]
}
