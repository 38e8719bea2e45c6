// Package interfaces 定义重连引擎公共接口
//
// 本文件定义网络观察相关类型与接口，对应 internal/core/netobserver/ 实现。
// 包括：NetworkStatus（网络快照）、NetworkEvent（连通性事件）、NetworkObserver（网络观察器）
package interfaces

import (
	"context"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
// 网络类型
// ════════════════════════════════════════════════════════════════════════════

// NetworkClass 网络类别
type NetworkClass int

const (
	// NetworkNone 无网络
	NetworkNone NetworkClass = iota

	// NetworkWiFi WiFi 网络
	NetworkWiFi

	// NetworkCellular 蜂窝网络
	NetworkCellular

	// NetworkEthernet 有线网络
	NetworkEthernet

	// NetworkVPN VPN 隧道
	NetworkVPN

	// NetworkOther 其他网络
	NetworkOther
)

// String 返回网络类别字符串
func (c NetworkClass) String() string {
	switch c {
	case NetworkNone:
		return "none"
	case NetworkWiFi:
		return "wifi"
	case NetworkCellular:
		return "cellular"
	case NetworkEthernet:
		return "ethernet"
	case NetworkVPN:
		return "vpn"
	case NetworkOther:
		return "other"
	default:
		return "unknown"
	}
}

// IsMetered 检查该类别是否默认按流量计费
func (c NetworkClass) IsMetered() bool {
	return c == NetworkCellular
}

// ════════════════════════════════════════════════════════════════════════════
// 网络状态快照
// ════════════════════════════════════════════════════════════════════════════

// NetworkStatus 网络状态快照
//
// 不可变值类型：每次系统信号都会生成一个全新的快照，整体替换旧快照。
type NetworkStatus struct {
	// Connected 是否存在活跃的网络链路
	Connected bool

	// Class 网络类别
	Class NetworkClass

	// Address 本地地址（首选接口的第一个地址）
	Address string

	// HasInternet 是否确认可达公网
	//
	// 由可达性探测独立验证，与操作系统上报的链路状态无关，
	// 可能在初始事件之后异步更新。
	HasInternet bool

	// Metered 是否按流量计费
	Metered bool

	// LinkSpeedMbps 链路速率（Mbps，未知时为 0）
	LinkSpeedMbps int

	// SignalStrength 信号强度（dBm，未知时为 0）
	SignalStrength int

	// Timestamp 快照生成时间
	Timestamp time.Time
}

// SameConnectivity 检查两个快照的连通性语义是否一致
//
// 只有网络类别、地址或公网可达性发生变化才算真正的差异；
// 纯粹的状态抖动（如时间戳、信号强度变化）不算。
func (s NetworkStatus) SameConnectivity(o NetworkStatus) bool {
	return s.Connected == o.Connected &&
		s.Class == o.Class &&
		s.Address == o.Address &&
		s.HasInternet == o.HasInternet
}

// ════════════════════════════════════════════════════════════════════════════
// 网络事件
// ════════════════════════════════════════════════════════════════════════════

// NetworkEventType 网络事件类型
type NetworkEventType int

const (
	// NetworkEventConnected 网络已连接
	NetworkEventConnected NetworkEventType = iota

	// NetworkEventDisconnected 网络已断开（派生判定）
	NetworkEventDisconnected

	// NetworkEventChanged 网络发生实质变化（类别/地址/可达性）
	NetworkEventChanged

	// NetworkEventLost 网络丢失（系统直接上报）
	NetworkEventLost

	// NetworkEventInternetChanged 公网可达性变化（链路状态不变）
	NetworkEventInternetChanged
)

// String 返回事件类型字符串
func (t NetworkEventType) String() string {
	switch t {
	case NetworkEventConnected:
		return "connected"
	case NetworkEventDisconnected:
		return "disconnected"
	case NetworkEventChanged:
		return "changed"
	case NetworkEventLost:
		return "lost"
	case NetworkEventInternetChanged:
		return "internet_changed"
	default:
		return "unknown"
	}
}

// NetworkEvent 连通性事件
//
// 观察器对原始系统信号去重后，每次实质变化恰好产生一个事件。
type NetworkEvent struct {
	// Type 事件类型
	Type NetworkEventType

	// Previous 变化前的快照
	Previous NetworkStatus

	// Current 变化后的快照
	Current NetworkStatus

	// HasInternet 当前公网可达性（NetworkEventInternetChanged 的载荷）
	HasInternet bool

	// Timestamp 事件时间
	Timestamp time.Time
}

// ════════════════════════════════════════════════════════════════════════════
// NetworkObserver 接口
// ════════════════════════════════════════════════════════════════════════════

// NetworkObserver 网络观察器接口
//
// 包装操作系统连通性设施，产出单一、去重的连通性事件流。
// 对账户一无所知。
//
// 实现位置：internal/core/netobserver/
type NetworkObserver interface {
	// Start 启动观察器（幂等）
	Start(ctx context.Context) error

	// Stop 停止观察器（幂等，未启动时调用安全）
	Stop() error

	// Subscribe 订阅连通性事件
	Subscribe() <-chan NetworkEvent

	// Unsubscribe 取消订阅
	Unsubscribe(ch <-chan NetworkEvent)

	// CurrentStatus 获取当前网络快照
	CurrentStatus() NetworkStatus

	// IsConnected 是否存在活跃链路
	IsConnected() bool

	// HasInternet 是否确认可达公网
	HasInternet() bool

	// ForceRefresh 按需重新派生快照并重新验证可达性
	ForceRefresh(ctx context.Context) NetworkStatus
}

// ════════════════════════════════════════════════════════════════════════════
// 配置
// ════════════════════════════════════════════════════════════════════════════

// NetworkObserverConfig 网络观察器配置
type NetworkObserverConfig struct {
	// SettleDelay 系统上报 available 后的稳定延迟
	// 避免对仍在协商地址/DNS 的网络做出反应
	// 默认值: 1s
	SettleDelay time.Duration

	// ProbeAddress 可达性探测目标（host:port）
	// 默认值: connectivitycheck.gstatic.com:443
	ProbeAddress string

	// ProbeTimeout 可达性探测超时
	// 默认值: 5s
	ProbeTimeout time.Duration

	// PollInterval 轮询监听器的轮询间隔
	// 默认值: 5s
	PollInterval time.Duration

	// EventBufferSize 订阅通道缓冲区大小
	// 默认值: 16
	EventBufferSize int
}

// DefaultNetworkObserverConfig 返回默认配置
func DefaultNetworkObserverConfig() NetworkObserverConfig {
	return NetworkObserverConfig{
		SettleDelay:     1 * time.Second,
		ProbeAddress:    "connectivitycheck.gstatic.com:443",
		ProbeTimeout:    5 * time.Second,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}
