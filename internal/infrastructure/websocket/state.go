package websocket

import (
	"github.com/betbot/polyclob/internal/stream"
)

// transitions 合法的状态迁移；任意状态都可以迁移到 Disconnected
var transitions = map[stream.State][]stream.State{
	stream.StateDisconnected: {stream.StateConnecting},
	stream.StateConnecting:   {stream.StateSubscribing, stream.StateReconnecting},
	stream.StateSubscribing:  {stream.StateLive, stream.StateReconnecting},
	stream.StateLive:         {stream.StateReconnecting},
	stream.StateReconnecting: {stream.StateConnecting},
}

func canTransition(from, to stream.State) bool {
	if to == stream.StateDisconnected {
		return from != stream.StateDisconnected
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State 当前连接状态
func (m *MarketStream) State() stream.State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

// setState 按迁移表切换状态，非法迁移被忽略并返回 false
func (m *MarketStream) setState(to stream.State) bool {
	m.stateMu.Lock()
	from := m.state
	if !canTransition(from, to) {
		m.stateMu.Unlock()
		if from != to {
			marketLog.Debugf("忽略非法状态迁移: %s -> %s", from, to)
		}
		return false
	}
	m.state = to
	handlers := append([]stream.StateChangeHandler(nil), m.stateHandlers...)
	m.stateMu.Unlock()

	marketLog.Infof("行情连接状态: %s -> %s", from, to)
	for _, h := range handlers {
		h(from, to)
	}
	return true
}

// OnStateChange 注册状态变化回调
func (m *MarketStream) OnStateChange(handler stream.StateChangeHandler) {
	if handler == nil {
		return
	}
	m.stateMu.Lock()
	m.stateHandlers = append(m.stateHandlers, handler)
	m.stateMu.Unlock()
}
