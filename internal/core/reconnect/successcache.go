// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ============================================================================
//                              成功缓存
// ============================================================================

// SuccessCache 最近成功注册的账户缓存
//
// 纯粹作为去抖：真实成功后短时间内到达的重复重连触发会被忽略。
// 条目由带 TTL 的 LRU 自动过期回收，抑制判断则使用更短的窗口。
type SuccessCache struct {
	lru *expirable.LRU[string, time.Time]
	clk clock.Clock
}

// NewSuccessCache 创建成功缓存
//
// size 为容量上限，ttl 为陈旧条目的回收时长。
func NewSuccessCache(size int, ttl time.Duration, clk clock.Clock) *SuccessCache {
	if size <= 0 {
		size = DefaultConfig().SuccessCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultConfig().StaleCacheTTL
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SuccessCache{
		lru: expirable.NewLRU[string, time.Time](size, nil, ttl),
		clk: clk,
	}
}

// MarkSuccess 记录账户确认成功的时间
func (c *SuccessCache) MarkSuccess(accountKey string) {
	c.lru.Add(accountKey, c.clk.Now())
}

// RecentlySucceeded 检查账户是否在抑制窗口内成功过
func (c *SuccessCache) RecentlySucceeded(accountKey string, window time.Duration) bool {
	t, ok := c.lru.Get(accountKey)
	if !ok {
		return false
	}
	return c.clk.Now().Sub(t) < window
}

// LastSuccess 获取账户最近一次成功时间
func (c *SuccessCache) LastSuccess(accountKey string) (time.Time, bool) {
	return c.lru.Get(accountKey)
}

// Remove 移除账户的成功记录
func (c *SuccessCache) Remove(accountKey string) {
	c.lru.Remove(accountKey)
}

// Len 返回当前条目数
func (c *SuccessCache) Len() int {
	return c.lru.Len()
}
