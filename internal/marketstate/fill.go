package marketstate

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/polyclob/clob/types"
)

// Fill 按订单簿估算的成交结果
type Fill struct {
	Size     decimal.Decimal
	AvgPrice decimal.Decimal
	Notional decimal.Decimal
}

// EstimateFill 估算市价成交：BUY 以 USDC 金额吃卖盘，SELL 以份数吃买盘
func (b *Book) EstimateFill(side types.Side, amount decimal.Decimal) Fill {
	if b == nil || !amount.IsPositive() {
		return Fill{}
	}
	levels := b.Bids
	if side == types.SideBuy {
		levels = b.Asks
	}

	remaining := amount
	size, notional := decimal.Zero, decimal.Zero
	for _, l := range levels {
		if !remaining.IsPositive() {
			break
		}
		if side == types.SideBuy {
			cost := l.Size.Mul(l.Price)
			if cost.LessThanOrEqual(remaining) {
				size = size.Add(l.Size)
				notional = notional.Add(cost)
				remaining = remaining.Sub(cost)
				continue
			}
			size = size.Add(remaining.Div(l.Price))
			notional = notional.Add(remaining)
			remaining = decimal.Zero
		} else {
			take := decimal.Min(l.Size, remaining)
			size = size.Add(take)
			notional = notional.Add(take.Mul(l.Price))
			remaining = remaining.Sub(take)
		}
	}

	f := Fill{Size: size, Notional: notional}
	if size.IsPositive() {
		f.AvgPrice = notional.Div(size)
	}
	return f
}
