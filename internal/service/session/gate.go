// Package session 提供同步会话的互斥控制
// 导出会话与参照数据同步互斥，且各自同一时刻只允许一个实例运行
// 两个会话同时选取待同步记录会导致同一分块被重复上送，因此并发调用直接拒绝
package session

import (
	"sync"
)

// Gate 同步会话单飞闸门
// 所有同步入口共享同一个Gate实例
type Gate struct {
	mu sync.Mutex
}

// NewGate 创建同步会话闸门实例
func NewGate() *Gate {
	return &Gate{}
}

// TryAcquire 尝试占用闸门
// 返回false表示已有会话在运行，调用方应拒绝本次请求
func (g *Gate) TryAcquire() bool {
	return g.mu.TryLock()
}

// Release 释放闸门
// 只能由成功占用闸门的会话调用
func (g *Gate) Release() {
	g.mu.Unlock()
}
