// Package interfaces 定义重连引擎公共接口
//
// 本文件定义重连相关类型与接口，对应 internal/core/reconnect/（协调器）
// 和 internal/core/service/（编排层）实现。
package interfaces

import (
	"context"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
// 重连原因
// ════════════════════════════════════════════════════════════════════════════

// ReconnectionReason 重连原因
type ReconnectionReason int

const (
	// ReasonUnknown 未知原因
	ReasonUnknown ReconnectionReason = iota

	// ReasonNetworkLost 网络丢失
	ReasonNetworkLost

	// ReasonNetworkChanged 网络变化（如 WiFi → 蜂窝）
	ReasonNetworkChanged

	// ReasonTransportDisconnected 传输层断开
	ReasonTransportDisconnected

	// ReasonRegistrationFailed 注册失败
	ReasonRegistrationFailed

	// ReasonRegistrationExpired 注册过期
	ReasonRegistrationExpired

	// ReasonAuthFailed 鉴权失败
	ReasonAuthFailed

	// ReasonServerError 服务端错误
	ReasonServerError

	// ReasonTimeout 超时
	ReasonTimeout

	// ReasonManual 手动触发
	ReasonManual
)

// String 返回原因的字符串表示
func (r ReconnectionReason) String() string {
	switch r {
	case ReasonNetworkLost:
		return "network_lost"
	case ReasonNetworkChanged:
		return "network_changed"
	case ReasonTransportDisconnected:
		return "transport_disconnected"
	case ReasonRegistrationFailed:
		return "registration_failed"
	case ReasonRegistrationExpired:
		return "registration_expired"
	case ReasonAuthFailed:
		return "auth_failed"
	case ReasonServerError:
		return "server_error"
	case ReasonTimeout:
		return "timeout"
	case ReasonManual:
		return "manual"
	default:
		return "unknown"
	}
}

// IsNetworkRelated 检查该原因是否与网络状况相关
//
// 网络相关的失败在无网络时只创建等待状态，不启动活跃重试。
func (r ReconnectionReason) IsNetworkRelated() bool {
	switch r {
	case ReasonNetworkLost, ReasonNetworkChanged, ReasonTransportDisconnected, ReasonTimeout:
		return true
	default:
		return false
	}
}

// ════════════════════════════════════════════════════════════════════════════
// 注册状态（外部信令层）
// ════════════════════════════════════════════════════════════════════════════

// RegistrationState 账户注册状态
//
// 由外部信令层维护，本引擎只读查询。
type RegistrationState int

const (
	// RegistrationNone 未注册
	RegistrationNone RegistrationState = iota

	// RegistrationInProgress 注册握手进行中
	RegistrationInProgress

	// RegistrationOK 注册成功
	RegistrationOK

	// RegistrationFailed 注册失败
	RegistrationFailed
)

// String 返回状态字符串
func (s RegistrationState) String() string {
	switch s {
	case RegistrationNone:
		return "none"
	case RegistrationInProgress:
		return "in_progress"
	case RegistrationOK:
		return "ok"
	case RegistrationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsRegistered 检查是否完全注册
func (s RegistrationState) IsRegistered() bool {
	return s == RegistrationOK
}

// RegistrationStateQuery 注册状态查询接口（外部注入）
//
// 指向信令层自身状态的同步快速查询。
type RegistrationStateQuery interface {
	// GetAccountState 查询账户注册状态
	GetAccountState(accountKey string) RegistrationState
}

// RegistrationStateQueryFunc 函数适配器
type RegistrationStateQueryFunc func(accountKey string) RegistrationState

// GetAccountState 实现 RegistrationStateQuery
func (f RegistrationStateQueryFunc) GetAccountState(accountKey string) RegistrationState {
	return f(accountKey)
}

// ReconnectionCallback 重连动作回调（外部注入）
//
// 触发信令层执行真实的注册尝试。对本引擎而言是 fire-and-forget，
// 成功与否只能通过 RegistrationStateQuery 观察。
type ReconnectionCallback interface {
	// OnReconnectionRequired 需要重连时被调用
	OnReconnectionRequired(accountKey string, reason ReconnectionReason)
}

// ReconnectionCallbackFunc 函数适配器
type ReconnectionCallbackFunc func(accountKey string, reason ReconnectionReason)

// OnReconnectionRequired 实现 ReconnectionCallback
func (f ReconnectionCallbackFunc) OnReconnectionRequired(accountKey string, reason ReconnectionReason) {
	f(accountKey, reason)
}

// NetworkAvailability 网络可用性查询
//
// 协调器在循环内持续复核网络是否仍然可用。
// NetworkObserver 天然满足该接口。
type NetworkAvailability interface {
	// IsConnected 是否存在活跃链路
	IsConnected() bool

	// HasInternet 是否确认可达公网
	HasInternet() bool
}

// ════════════════════════════════════════════════════════════════════════════
// 重连状态
// ════════════════════════════════════════════════════════════════════════════

// ReconnectionState 单个账户的重连状态快照
//
// 不可变快照：每次更新整体替换，避免撕裂读。
type ReconnectionState struct {
	// AccountKey 账户键
	AccountKey string

	// LoopID 本次重试循环的相关 ID（日志关联用）
	LoopID string

	// IsActive 重试循环是否活跃
	IsActive bool

	// Attempts 已执行的尝试次数（0..MaxAttempts）
	Attempts int

	// MaxAttempts 尝试次数上限
	MaxAttempts int

	// LastAttemptTime 最近一次尝试时间
	LastAttemptTime time.Time

	// NextAttemptTime 下一次尝试的预计时间
	NextAttemptTime time.Time

	// Reason 触发原因
	Reason ReconnectionReason

	// LastError 最近一次错误（可选）
	LastError error

	// CurrentBackoff 当前退避时长
	CurrentBackoff time.Duration

	// NetworkAvailable 最近一次检查时网络是否可用
	NetworkAvailable bool

	// ShouldStop 终止意图标志
	//
	// 为 true 时循环必须在下一个检查点退出，不要求立即生效。
	ShouldStop bool

	// Timestamp 快照生成时间
	Timestamp time.Time
}

// IsWaitingForNetwork 检查是否处于等待网络的惰性状态
//
// 惰性状态表示"需要重连但当前不可能"，只有新的网络恢复信号
// 才能重新激活，循环本身不会内部轮询。
func (s ReconnectionState) IsWaitingForNetwork() bool {
	return !s.IsActive && s.ShouldStop && !s.NetworkAvailable
}

// ════════════════════════════════════════════════════════════════════════════
// 协调器接口
// ════════════════════════════════════════════════════════════════════════════

// ReconnectionStatusCallback 重连状态变更回调
type ReconnectionStatusCallback func(accountKey string, state ReconnectionState)

// ReconnectionCoordinator 重连协调器接口
//
// 按账户键运行有界、可取消、指数退避的重试循环。
// 不关心触发原因的来源，真正的重连动作委托给注入的回调。
//
// 实现位置：internal/core/reconnect/
type ReconnectionCoordinator interface {
	// Start 启动协调器
	Start(ctx context.Context) error

	// Stop 停止协调器
	Stop() error

	// StartReconnection 为账户启动重试循环
	//
	// 以下前置条件按序检查，每一条都是合法的短路（无错误，直接无操作）：
	//  1. 抑制窗口内刚确认成功过 → 跳过
	//  2. 外部注册状态已 OK（间隔 ~1s 双重检查以吸收抖动）→ 跳过并清理陈旧状态
	//  3. 网络不可用 → 创建惰性等待状态，不启动循环
	StartReconnection(accountKey string, reason ReconnectionReason, networkAvailable bool)

	// ForceReconnection 强制启动重试循环（绕过抑制窗口与注册检查）
	ForceReconnection(accountKey string, networkAvailable bool)

	// StopReconnection 停止账户的重试循环（键不存在时调用安全）
	StopReconnection(accountKey string)

	// StopAll 停止所有重试循环
	StopAll()

	// MarkConnected 外部断言成功：写入成功缓存并立即停止循环
	MarkConnected(accountKey string)

	// ResetAttempts 重置尝试计数
	ResetAttempts(accountKey string)

	// IsReconnecting 检查账户是否有活跃循环
	IsReconnecting(accountKey string) bool

	// Attempts 获取账户当前尝试次数
	Attempts(accountKey string) int

	// AllStates 获取所有账户的状态快照
	AllStates() map[string]ReconnectionState

	// OnStatusChanged 注册状态变更回调
	OnStatusChanged(cb ReconnectionStatusCallback)
}

// ════════════════════════════════════════════════════════════════════════════
// 编排服务接口
// ════════════════════════════════════════════════════════════════════════════

// ReconnectionService 重连编排服务接口
//
// 将网络观察器与重连协调器绑定到动态账户集合上，
// 是供库其余部分消费的统一集成面。
//
// 实现位置：internal/core/service/
type ReconnectionService interface {
	// Start 启动服务（幂等）
	Start(ctx context.Context) error

	// Stop 停止服务（幂等）
	Stop() error

	// Dispose 终态销毁：之后所有调用均被拒绝为无操作
	Dispose() error

	// RegisterAccount 注册监控账户（幂等）
	RegisterAccount(accountKey string)

	// UnregisterAccount 取消监控并停止其活跃循环
	UnregisterAccount(accountKey string)

	// UnregisterAll 取消所有监控
	UnregisterAll()

	// MonitoredAccounts 获取当前监控的账户列表
	MonitoredAccounts() []string

	// ForceReconnection 手动触发重连（绕过抑制窗口）
	ForceReconnection(accountKey string)

	// NotifyRegistrationFailed 上报注册失败（错误文本用于分类）
	NotifyRegistrationFailed(accountKey string, errText string)

	// NotifyTransportDisconnected 上报传输层断开
	NotifyTransportDisconnected(accountKey string)

	// ResetReconnectionAttempts 重置账户尝试计数
	ResetReconnectionAttempts(accountKey string)

	// ReconnectionStates 获取所有账户的重连状态（诊断）
	ReconnectionStates() map[string]ReconnectionState

	// ActiveReconnectionCount 获取活跃循环数量（诊断）
	ActiveReconnectionCount() int
}

// ════════════════════════════════════════════════════════════════════════════
// 配置
// ════════════════════════════════════════════════════════════════════════════

// ReconnectionConfig 重连协调器配置
type ReconnectionConfig struct {
	// MaxAttempts 最大尝试次数
	// 默认值: 8
	MaxAttempts int

	// BaseBackoff 退避基准时长
	// 默认值: 3s
	BaseBackoff time.Duration

	// MaxBackoff 退避上限
	// 默认值: 45s
	MaxBackoff time.Duration

	// TickInterval 可中断等待的切片粒度
	// 默认值: 1s
	TickInterval time.Duration

	// SuppressionWindow 成功后的抑制窗口
	// 默认值: 30s
	SuppressionWindow time.Duration

	// StaleCacheTTL 成功缓存条目的过期回收时长
	// 默认值: 5m
	StaleCacheTTL time.Duration

	// DoubleCheckGap 注册状态双重检查的间隔
	// 默认值: 1s
	DoubleCheckGap time.Duration

	// AttemptGraceDelay 尝试后轮询前的初始宽限（等待外部握手）
	// 默认值: 2s
	AttemptGraceDelay time.Duration

	// RegistrationPollInterval 尝试后注册状态轮询间隔
	// 默认值: 3s
	RegistrationPollInterval time.Duration

	// RegistrationPollChecks 尝试后注册状态轮询次数
	// 默认值: 5
	RegistrationPollChecks int

	// RemovalGrace 循环终止后状态延迟移除的宽限期（允许迟到的状态读取）
	// 默认值: 2s
	RemovalGrace time.Duration
}

// DefaultReconnectionConfig 返回默认配置
func DefaultReconnectionConfig() ReconnectionConfig {
	return ReconnectionConfig{
		MaxAttempts:              8,
		BaseBackoff:              3 * time.Second,
		MaxBackoff:               45 * time.Second,
		TickInterval:             1 * time.Second,
		SuppressionWindow:        30 * time.Second,
		StaleCacheTTL:            5 * time.Minute,
		DoubleCheckGap:           1 * time.Second,
		AttemptGraceDelay:        2 * time.Second,
		RegistrationPollInterval: 3 * time.Second,
		RegistrationPollChecks:   5,
		RemovalGrace:             2 * time.Second,
	}
}

// ServiceConfig 编排服务配置
type ServiceConfig struct {
	// SettleDelay 网络恢复事件后的稳定延迟（评估前等待，避免对即将
	// 再次抖动的网络做出反应）
	// 默认值: 4s
	SettleDelay time.Duration

	// NetworkErrorPatterns 网络相关错误的匹配子串
	NetworkErrorPatterns []string
}

// DefaultServiceConfig 返回默认配置
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SettleDelay: 4 * time.Second,
		NetworkErrorPatterns: []string{
			"network is unreachable",
			"no route to host",
			"connection refused",
			"connection reset",
			"broken pipe",
			"i/o timeout",
			"timeout",
			"host is down",
			"socket",
			"dns",
		},
	}
}
