package reconnect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	b := NewBackoff(3*time.Second, 45*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 3 * time.Second},
		{2, 6 * time.Second},
		{3, 12 * time.Second},
		{4, 24 * time.Second},
		{5, 45 * time.Second}, // 48s 封顶到 45s
		{6, 45 * time.Second},
		{8, 45 * time.Second},
		{0, 3 * time.Second},  // 非法输入按第 1 次处理
		{-1, 3 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt=%d", tt.attempt)
	}
}

func TestBackoffDelayLargeAttempt(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)

	// 大尝试数不得溢出
	assert.Equal(t, time.Minute, b.Delay(100))
	assert.Equal(t, time.Minute, b.Delay(10000))
}

func TestNewBackoffFixesInvalidInput(t *testing.T) {
	b := NewBackoff(0, 0)
	assert.Equal(t, DefaultConfig().BaseBackoff, b.Delay(1))

	// max < base 时提升 max 到 base
	b = NewBackoff(10*time.Second, time.Second)
	assert.Equal(t, 10*time.Second, b.Delay(5))
}
