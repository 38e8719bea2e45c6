// Package netwatch 提供可公开构造的系统信号源与探测器实现
//
// 宿主平台（如移动端）在收到平台连通性回调时通过 ManualWatcher 的
// Notify* 方法将信号喂给观察器；NoOpWatcher 用于禁用系统监听；
// MockProbe 用于测试中控制公网可达性。
package netwatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var logger = log.Logger("lib/netwatch")

// ============================================================================
//                              NoOpWatcher
// ============================================================================

// NoOpWatcher 空操作监听器（禁用系统监听时使用）
type NoOpWatcher struct {
	events chan interfaces.RawEvent
}

// 确保实现接口
var _ interfaces.SystemWatcher = (*NoOpWatcher)(nil)

// NewNoOpWatcher 创建空操作监听器
func NewNoOpWatcher() *NoOpWatcher {
	return &NoOpWatcher{
		events: make(chan interfaces.RawEvent),
	}
}

// Start 启动（空操作）
func (w *NoOpWatcher) Start(_ context.Context) error { return nil }

// Stop 停止（空操作）
func (w *NoOpWatcher) Stop() error { return nil }

// Events 返回事件通道（永远不会有事件）
func (w *NoOpWatcher) Events() <-chan interfaces.RawEvent { return w.events }

// Snapshot 返回断连快照
func (w *NoOpWatcher) Snapshot() interfaces.NetworkStatus {
	return interfaces.NetworkStatus{Connected: false, Class: interfaces.NetworkNone}
}

// IsRunning 检查是否运行
func (w *NoOpWatcher) IsRunning() bool { return false }

// ============================================================================
//                              ManualWatcher
// ============================================================================

// ManualWatcher 外部通知监听器
//
// 用于系统无法自动投递连通性回调的平台：宿主层在收到平台回调时
// 调用 Notify* 方法，将快照与原始信号喂给观察器。
type ManualWatcher struct {
	mu     sync.RWMutex
	status interfaces.NetworkStatus

	events  chan interfaces.RawEvent
	running atomic.Bool
}

// 确保实现接口
var _ interfaces.SystemWatcher = (*ManualWatcher)(nil)

// NewManualWatcher 创建外部通知监听器
func NewManualWatcher(bufferSize int) *ManualWatcher {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &ManualWatcher{
		events: make(chan interfaces.RawEvent, bufferSize),
		status: interfaces.NetworkStatus{Connected: false, Class: interfaces.NetworkNone},
	}
}

// Start 启动监听
func (w *ManualWatcher) Start(_ context.Context) error {
	w.running.Store(true)
	return nil
}

// Stop 停止监听
func (w *ManualWatcher) Stop() error {
	w.running.Store(false)
	return nil
}

// Events 返回原始信号通道
func (w *ManualWatcher) Events() <-chan interfaces.RawEvent { return w.events }

// Snapshot 读取当前快照
func (w *ManualWatcher) Snapshot() interfaces.NetworkStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// IsRunning 检查是否运行
func (w *ManualWatcher) IsRunning() bool { return w.running.Load() }

// SetStatus 直接更新存储的快照，不发送信号
//
// 用于在启动前预置初始状态。
func (w *ManualWatcher) SetStatus(status interfaces.NetworkStatus) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}

// NotifyAvailable 外部上报网络可用
func (w *ManualWatcher) NotifyAvailable(status interfaces.NetworkStatus) {
	status.Connected = true
	w.SetStatus(status)
	w.emit(interfaces.RawEvent{Kind: interfaces.RawAvailable, Timestamp: time.Now()})
}

// NotifyLost 外部上报网络丢失
func (w *ManualWatcher) NotifyLost() {
	w.SetStatus(interfaces.NetworkStatus{Connected: false, Class: interfaces.NetworkNone})
	w.emit(interfaces.RawEvent{Kind: interfaces.RawLost, Timestamp: time.Now()})
}

// NotifyCapabilitiesChanged 外部上报网络能力变化
func (w *ManualWatcher) NotifyCapabilitiesChanged(status interfaces.NetworkStatus) {
	w.SetStatus(status)
	w.emit(interfaces.RawEvent{Kind: interfaces.RawCapabilitiesChanged, Timestamp: time.Now()})
}

// NotifyLinkChanged 外部上报链路属性变化
func (w *ManualWatcher) NotifyLinkChanged(status interfaces.NetworkStatus) {
	w.SetStatus(status)
	w.emit(interfaces.RawEvent{Kind: interfaces.RawLinkChanged, Timestamp: time.Now()})
}

// emit 发送原始信号
func (w *ManualWatcher) emit(ev interfaces.RawEvent) {
	if !w.running.Load() {
		return
	}
	select {
	case w.events <- ev:
	default:
		logger.Warn("原始信号缓冲区已满，丢弃信号", "kind", ev.Kind.String())
	}
}

// ============================================================================
//                              MockProbe (用于测试)
// ============================================================================

// MockProbe 可控的模拟探测器（用于测试）
type MockProbe struct {
	reachable  atomic.Bool
	probeCount atomic.Int64
}

// 确保实现接口
var _ interfaces.ReachabilityProbe = (*MockProbe)(nil)

// NewMockProbe 创建模拟探测器
func NewMockProbe() *MockProbe {
	mp := &MockProbe{}
	mp.reachable.Store(true)
	return mp
}

// SetReachable 设置探测结果
func (p *MockProbe) SetReachable(reachable bool) {
	p.reachable.Store(reachable)
}

// Probe 返回预设的结果
func (p *MockProbe) Probe(_ context.Context) bool {
	p.probeCount.Add(1)
	return p.reachable.Load()
}

// ProbeCount 获取探测次数
func (p *MockProbe) ProbeCount() int64 {
	return p.probeCount.Load()
}
