package reconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

func TestStateStoreBasic(t *testing.T) {
	s := NewStateStore()

	_, ok := s.Get("alice@example.com")
	assert.False(t, ok)

	s.Put("alice@example.com", interfaces.ReconnectionState{
		AccountKey: "alice@example.com",
		LoopID:     "loop-1",
		IsActive:   true,
	})

	st, ok := s.Get("alice@example.com")
	assert.True(t, ok)
	assert.True(t, st.IsActive)
	assert.Equal(t, 1, s.Len())

	s.Remove("alice@example.com")
	assert.Equal(t, 0, s.Len())
}

func TestStateStoreUpdate(t *testing.T) {
	s := NewStateStore()

	// 键不存在时不调用 fn
	_, ok := s.Update("missing", func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		t.Fatal("fn should not be called")
		return st
	})
	assert.False(t, ok)

	s.Put("alice@example.com", interfaces.ReconnectionState{AccountKey: "alice@example.com"})
	st, ok := s.Update("alice@example.com", func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.Attempts = 3
		return st
	})
	assert.True(t, ok)
	assert.Equal(t, 3, st.Attempts)
}

func TestStateStoreUpdateIfLoop(t *testing.T) {
	s := NewStateStore()
	s.Put("alice@example.com", interfaces.ReconnectionState{
		AccountKey: "alice@example.com",
		LoopID:     "loop-2",
	})

	// 旧循环不得触碰后继状态
	_, ok := s.UpdateIfLoop("alice@example.com", "loop-1", func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.Attempts = 99
		return st
	})
	assert.False(t, ok)

	st, _ := s.Get("alice@example.com")
	assert.Equal(t, 0, st.Attempts)

	// 当前循环正常更新
	_, ok = s.UpdateIfLoop("alice@example.com", "loop-2", func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.Attempts = 1
		return st
	})
	assert.True(t, ok)
}

func TestStateStoreRemoveIfLoop(t *testing.T) {
	s := NewStateStore()
	s.Put("alice@example.com", interfaces.ReconnectionState{
		AccountKey: "alice@example.com",
		LoopID:     "loop-2",
	})

	// 旧循环的延迟移除不得误删新状态
	s.RemoveIfLoop("alice@example.com", "loop-1")
	assert.Equal(t, 1, s.Len())

	s.RemoveIfLoop("alice@example.com", "loop-2")
	assert.Equal(t, 0, s.Len())
}

func TestStateStoreAllReturnsCopy(t *testing.T) {
	s := NewStateStore()
	s.Put("alice@example.com", interfaces.ReconnectionState{AccountKey: "alice@example.com"})

	all := s.All()
	delete(all, "alice@example.com")

	assert.Equal(t, 1, s.Len())
}
