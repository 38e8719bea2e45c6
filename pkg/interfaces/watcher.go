// Package interfaces 定义重连引擎公共接口
//
// 本文件定义系统原始信号源与可达性探测的注入接口，
// 宿主平台通过实现这些接口向观察器喂入平台级连通性信号。
package interfaces

import (
	"context"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
// 原始信号
// ════════════════════════════════════════════════════════════════════════════

// RawEventKind 系统原始信号类型
//
// 对应操作系统连通性设施的四种回调。每个原始信号都会触发一次
// 快照重建，由观察器负责去重后抛出规范化事件。
type RawEventKind int

const (
	// RawAvailable 网络可用
	RawAvailable RawEventKind = iota

	// RawLost 网络丢失
	RawLost

	// RawCapabilitiesChanged 网络能力变化
	RawCapabilitiesChanged

	// RawLinkChanged 链路属性变化
	RawLinkChanged
)

// String 返回信号类型字符串
func (k RawEventKind) String() string {
	switch k {
	case RawAvailable:
		return "available"
	case RawLost:
		return "lost"
	case RawCapabilitiesChanged:
		return "capabilities_changed"
	case RawLinkChanged:
		return "link_changed"
	default:
		return "unknown"
	}
}

// RawEvent 系统原始信号
type RawEvent struct {
	// Kind 信号类型
	Kind RawEventKind

	// Interface 相关接口名称（可选）
	Interface string

	// Timestamp 信号时间
	Timestamp time.Time
}

// ════════════════════════════════════════════════════════════════════════════
// SystemWatcher 接口
// ════════════════════════════════════════════════════════════════════════════

// SystemWatcher 系统网络信号监听器接口
//
// 每个实现都知道如何从自己的信号源读取当前网络快照。
// 内置实现见 pkg/lib/netwatch（外部通知）与默认的轮询实现。
type SystemWatcher interface {
	// Start 启动监听
	Start(ctx context.Context) error

	// Stop 停止监听
	Stop() error

	// Events 返回原始信号通道
	Events() <-chan RawEvent

	// Snapshot 读取当前网络快照（不含可达性验证）
	Snapshot() NetworkStatus

	// IsRunning 检查是否正在运行
	IsRunning() bool
}

// ════════════════════════════════════════════════════════════════════════════
// ReachabilityProbe 接口
// ════════════════════════════════════════════════════════════════════════════

// ReachabilityProbe 可达性探测器接口
//
// 独立于操作系统上报的"已验证"能力，向固定的知名端点发起一次
// 短连接来确认公网确实可达。支持测试注入。
type ReachabilityProbe interface {
	// Probe 执行一次探测，返回公网是否可达
	Probe(ctx context.Context) bool
}
