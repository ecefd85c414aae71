// Package sigchan 提供合并式的非阻塞信号。
package sigchan

// Chan 非阻塞信号 channel，只通知事件发生，不传递数据。
// 缓冲满时新的信号与未消费的信号合并。
type Chan struct {
	c chan struct{}
}

// New 创建新的信号 channel，bufferSize 至少为 1
func New(bufferSize int) *Chan {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Chan{
		c: make(chan struct{}, bufferSize),
	}
}

// Emit 发送信号（非阻塞）
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// Drain 丢弃所有未消费的信号，返回丢弃的数量
func (c *Chan) Drain() int {
	n := 0
	for {
		select {
		case <-c.c:
			n++
		default:
			return n
		}
	}
}

// C 返回内部的 channel（用于 select）
func (c *Chan) C() <-chan struct{} {
	return c.c
}
