package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitRunsHandlersInOrder(t *testing.T) {
	h := NewHandlerList()
	var order []int
	h.Add(BookUpdateHandlerFunc(func(ctx context.Context, e *BookEvent) error {
		order = append(order, 1)
		return errors.New("boom")
	}))
	h.Add(BookUpdateHandlerFunc(func(ctx context.Context, e *BookEvent) error {
		order = append(order, 2)
		panic("handler panic")
	}))
	h.Add(BookUpdateHandlerFunc(func(ctx context.Context, e *BookEvent) error {
		order = append(order, 3)
		return nil
	}))
	h.Add(nil)

	h.Emit(context.Background(), &BookEvent{Kind: EventBook, AssetID: "A"})
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 3, h.Count())

	h.Clear()
	assert.Equal(t, 0, h.Count())
}

func TestStateText(t *testing.T) {
	b, err := StateLive.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "live", string(b))
	assert.Equal(t, "reconnecting", StateReconnecting.String())
}
