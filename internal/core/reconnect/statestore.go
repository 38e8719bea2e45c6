// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"sync"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              状态存储
// ============================================================================

// StateStore 并发安全的重连状态存储
//
// 状态以不可变快照持有：Update 在锁内复制旧快照、应用变更函数后
// 整体替换（copy-and-swap），读取方永远拿到一致的快照，无需
// 逐字段加锁。
type StateStore struct {
	mu     sync.RWMutex
	states map[string]interfaces.ReconnectionState
}

// NewStateStore 创建状态存储
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]interfaces.ReconnectionState),
	}
}

// Get 获取账户的状态快照
func (s *StateStore) Get(accountKey string) (interfaces.ReconnectionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[accountKey]
	return st, ok
}

// Put 写入账户的状态快照（整体替换）
func (s *StateStore) Put(accountKey string, st interfaces.ReconnectionState) {
	s.mu.Lock()
	s.states[accountKey] = st
	s.mu.Unlock()
}

// Update 对账户状态做 copy-and-swap 更新
//
// fn 收到当前快照的副本，返回新快照。键不存在时不调用 fn。
// 返回更新后的快照及键是否存在。
func (s *StateStore) Update(accountKey string, fn func(interfaces.ReconnectionState) interfaces.ReconnectionState) (interfaces.ReconnectionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[accountKey]
	if !ok {
		return interfaces.ReconnectionState{}, false
	}
	next := fn(st)
	s.states[accountKey] = next
	return next, true
}

// UpdateIfLoop 仅当状态仍属于指定循环时做 copy-and-swap 更新
//
// 已被后继循环替换的旧循环不得再触碰新状态。
func (s *StateStore) UpdateIfLoop(accountKey, loopID string, fn func(interfaces.ReconnectionState) interfaces.ReconnectionState) (interfaces.ReconnectionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[accountKey]
	if !ok || st.LoopID != loopID {
		return interfaces.ReconnectionState{}, false
	}
	next := fn(st)
	s.states[accountKey] = next
	return next, true
}

// Remove 移除账户状态
func (s *StateStore) Remove(accountKey string) {
	s.mu.Lock()
	delete(s.states, accountKey)
	s.mu.Unlock()
}

// RemoveIfLoop 仅当状态仍属于指定循环时移除
//
// 防止延迟移除误删后继循环刚写入的新状态。
func (s *StateStore) RemoveIfLoop(accountKey, loopID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[accountKey]; ok && st.LoopID == loopID {
		delete(s.states, accountKey)
	}
}

// All 返回所有状态快照的副本
func (s *StateStore) All() map[string]interfaces.ReconnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]interfaces.ReconnectionState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// Len 返回状态数量
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
