// Package session 提供同步会话闸门的单元测试
package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGateSingleFlight 测试闸门的单飞语义
func TestGateSingleFlight(t *testing.T) {
	gate := NewGate()

	assert.True(t, gate.TryAcquire())
	// 持有期间再次获取被拒绝，不排队
	assert.False(t, gate.TryAcquire())

	gate.Release()
	assert.True(t, gate.TryAcquire())
	gate.Release()
}

// TestGateConcurrentAcquire 测试并发获取时恰好一个成功
func TestGateConcurrentAcquire(t *testing.T) {
	gate := NewGate()

	var acquired int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryAcquire() {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired)
}
