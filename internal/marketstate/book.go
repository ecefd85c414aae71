// Package marketstate 按资产维护订单簿。
//
// 每次更新构造新的不可变 Book，再通过一次指针交换发布；
// 读方拿到的永远是完整快照，不会看到半个增量。
package marketstate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
)

// Level 价位
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Change 增量：Size 为 0 表示删除该价位
type Change struct {
	Side  types.Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Meta 服务端附带的信息
type Meta struct {
	Market string
	Hash   string
	// Timestamp 服务端毫秒时间戳，0 表示未知
	Timestamp int64
}

// Book 不可变订单簿快照。Bids 价格降序，Asks 价格升序。
type Book struct {
	AssetID   string
	Market    string
	Bids      []Level
	Asks      []Level
	Hash      string
	Timestamp int64
	// Seq 本地递增序号，快照与增量都会 +1
	Seq       uint64
	UpdatedAt time.Time
}

// BestBid 最优买价，空侧返回 false
func (b *Book) BestBid() (Level, bool) {
	if b == nil || len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk 最优卖价，空侧返回 false
func (b *Book) BestAsk() (Level, bool) {
	if b == nil || len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// Mid 中间价，需要两侧都有报价
func (b *Book) Mid() (decimal.Decimal, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Spread 买卖价差
func (b *Book) Spread() (decimal.Decimal, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// Crossed 最优买价 >= 最优卖价
func (b *Book) Crossed() bool {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	return ok1 && ok2 && bid.Price.GreaterThanOrEqual(ask.Price)
}

// Depth 某一侧的总数量
func (b *Book) Depth(side types.Side) decimal.Decimal {
	levels := b.Asks
	if side == types.SideBuy {
		levels = b.Bids
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Size)
	}
	return total
}

// normalize 合并重复价位（后者覆盖）、去掉 0 数量并排序
func normalize(levels []Level, desc bool) []Level {
	byPrice := make(map[string]Level, len(levels))
	for _, l := range levels {
		byPrice[l.Price.String()] = l
	}
	out := make([]Level, 0, len(byPrice))
	for _, l := range byPrice {
		if l.Size.IsPositive() && l.Price.IsPositive() {
			out = append(out, l)
		}
	}
	sortLevels(out, desc)
	return out
}

func sortLevels(levels []Level, desc bool) {
	sort.Slice(levels, func(i, j int) bool {
		if desc {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
}

// upsert 复制一侧并应用价位变化
func upsert(levels []Level, price, size decimal.Decimal, desc bool) []Level {
	out := make([]Level, 0, len(levels)+1)
	replaced := false
	for _, l := range levels {
		if l.Price.Equal(price) {
			replaced = true
			if size.IsPositive() {
				out = append(out, Level{Price: price, Size: size})
			}
			continue
		}
		out = append(out, l)
	}
	if !replaced && size.IsPositive() {
		out = append(out, Level{Price: price, Size: size})
		sortLevels(out, desc)
	}
	return out
}
