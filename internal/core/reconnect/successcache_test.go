package reconnect

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestSuccessCacheSuppressionWindow(t *testing.T) {
	mock := clock.NewMock()
	cache := NewSuccessCache(16, 5*time.Minute, mock)

	window := 30 * time.Second

	assert.False(t, cache.RecentlySucceeded("alice@example.com", window))

	cache.MarkSuccess("alice@example.com")
	assert.True(t, cache.RecentlySucceeded("alice@example.com", window))

	// 窗口内
	mock.Add(29 * time.Second)
	assert.True(t, cache.RecentlySucceeded("alice@example.com", window))

	// 窗口外
	mock.Add(2 * time.Second)
	assert.False(t, cache.RecentlySucceeded("alice@example.com", window))

	// 窗口外但未过 TTL，记录仍可查询
	last, ok := cache.LastSuccess("alice@example.com")
	assert.True(t, ok)
	assert.False(t, last.IsZero())
}

func TestSuccessCachePerAccount(t *testing.T) {
	mock := clock.NewMock()
	cache := NewSuccessCache(16, 5*time.Minute, mock)

	cache.MarkSuccess("alice@example.com")

	assert.True(t, cache.RecentlySucceeded("alice@example.com", 30*time.Second))
	assert.False(t, cache.RecentlySucceeded("bob@example.com", 30*time.Second))
}

func TestSuccessCacheRemove(t *testing.T) {
	cache := NewSuccessCache(16, 5*time.Minute, clock.NewMock())

	cache.MarkSuccess("alice@example.com")
	assert.Equal(t, 1, cache.Len())

	cache.Remove("alice@example.com")
	assert.Equal(t, 0, cache.Len())
	assert.False(t, cache.RecentlySucceeded("alice@example.com", 30*time.Second))
}
