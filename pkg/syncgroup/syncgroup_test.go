package syncgroup

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAndWait(t *testing.T) {
	sg := NewSyncGroup()
	var n atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		assert.True(t, sg.Add(func() {
			<-release
			n.Add(1)
		}))
	}
	assert.False(t, sg.Add(nil))
	sg.Run()
	assert.Equal(t, 3, sg.Running())

	// 一轮未结束前拒绝新函数
	assert.False(t, sg.Add(func() {}))

	close(release)
	sg.WaitAndClear()
	assert.Equal(t, int32(3), n.Load())
	assert.Equal(t, 0, sg.Running())

	assert.True(t, sg.Add(func() { n.Add(1) }))
	sg.Run()
	sg.Wait()
	assert.Equal(t, int32(4), n.Load())
}
