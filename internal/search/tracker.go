// Package search 提供带防抖与序号校验的搜索建议，以及最近搜索列表。
package search

import (
	"context"
	"sync/atomic"
	"time"
)

// Tracker 单个会话的搜索请求序号。
// 每次输入调用 Begin 获取新序号，只有最新序号的结果会被采用
type Tracker struct {
	latest atomic.Uint64
}

// Begin 分配新的请求序号
func (t *Tracker) Begin() uint64 {
	return t.latest.Add(1)
}

// IsLatest 序号是否仍是最新
func (t *Tracker) IsLatest(seq uint64) bool {
	return t.latest.Load() == seq
}

// Latest 当前最新序号
func (t *Tracker) Latest() uint64 {
	return t.latest.Load()
}

// Debounce 等待 delay 后返回该序号是否仍为最新；期间被新输入取代则返回 false
func (t *Tracker) Debounce(ctx context.Context, seq uint64, delay time.Duration) (bool, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}
	return t.IsLatest(seq), nil
}
