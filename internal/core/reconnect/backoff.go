// Package reconnect 提供按账户的重连协调功能
package reconnect

import "time"

// ============================================================================
//                              指数退避
// ============================================================================

// Backoff 指数退避计算器
//
// delay = min(base * 2^(attempt-1), max)
type Backoff struct {
	base time.Duration
	max  time.Duration
}

// NewBackoff 创建退避计算器
func NewBackoff(base, max time.Duration) Backoff {
	if base <= 0 {
		base = DefaultConfig().BaseBackoff
	}
	if max < base {
		max = base
	}
	return Backoff{base: base, max: max}
}

// Delay 计算第 attempt 次尝试前的等待时长
//
// attempt 从 1 开始计数；非法输入按第 1 次处理。
// 逐次倍增并在到达上限时提前返回，避免位移溢出。
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := b.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	if d > b.max {
		return b.max
	}
	return d
}
