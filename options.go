package sipreconnect

import (
	"github.com/benbjohnson/clock"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 外部依赖
	query    interfaces.RegistrationStateQuery
	callback interfaces.ReconnectionCallback

	// 组件配置
	observerConfig  *interfaces.NetworkObserverConfig
	reconnectConfig *interfaces.ReconnectionConfig
	serviceConfig   *interfaces.ServiceConfig

	// 信号源与探测器注入（测试/宿主平台）
	watcher interfaces.SystemWatcher
	probe   interfaces.ReachabilityProbe

	// 时钟注入（测试用）
	clk clock.Clock

	// 初始监控账户
	accounts []string

	// 状态变更回调
	statusCallbacks []interfaces.ReconnectionStatusCallback

	// Fx 事件日志（默认静默）
	verboseFx bool
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// WithRegistrationStateQuery 设置注册状态查询
//
// 指向信令层自身状态的同步快速查询。未设置时所有账户视为未注册，
// 重试循环将跑满全部尝试。
func WithRegistrationStateQuery(q interfaces.RegistrationStateQuery) Option {
	return func(o *options) error {
		o.query = q
		return nil
	}
}

// WithRegistrationStateQueryFunc 函数形式的注册状态查询
func WithRegistrationStateQueryFunc(f func(accountKey string) interfaces.RegistrationState) Option {
	return WithRegistrationStateQuery(interfaces.RegistrationStateQueryFunc(f))
}

// WithReconnectionCallback 设置重连动作回调（必需）
//
// 触发信令层执行真实的注册尝试。
func WithReconnectionCallback(cb interfaces.ReconnectionCallback) Option {
	return func(o *options) error {
		o.callback = cb
		return nil
	}
}

// WithReconnectionCallbackFunc 函数形式的重连动作回调
func WithReconnectionCallbackFunc(f func(accountKey string, reason interfaces.ReconnectionReason)) Option {
	return WithReconnectionCallback(interfaces.ReconnectionCallbackFunc(f))
}

// WithNetworkObserverConfig 设置网络观察器配置
func WithNetworkObserverConfig(cfg interfaces.NetworkObserverConfig) Option {
	return func(o *options) error {
		o.observerConfig = &cfg
		return nil
	}
}

// WithReconnectionConfig 设置重连协调器配置
func WithReconnectionConfig(cfg interfaces.ReconnectionConfig) Option {
	return func(o *options) error {
		o.reconnectConfig = &cfg
		return nil
	}
}

// WithServiceConfig 设置编排服务配置
func WithServiceConfig(cfg interfaces.ServiceConfig) Option {
	return func(o *options) error {
		o.serviceConfig = &cfg
		return nil
	}
}

// WithMaxAttempts 设置单轮重连的最大尝试次数
//
// 等价于通过 WithReconnectionConfig 只改 MaxAttempts 一项。
func WithMaxAttempts(n int) Option {
	return func(o *options) error {
		if o.reconnectConfig == nil {
			cfg := interfaces.DefaultReconnectionConfig()
			o.reconnectConfig = &cfg
		}
		o.reconnectConfig.MaxAttempts = n
		return nil
	}
}

// WithProbeAddress 设置可达性探测目标（host:port）
func WithProbeAddress(addr string) Option {
	return func(o *options) error {
		if o.observerConfig == nil {
			cfg := interfaces.DefaultNetworkObserverConfig()
			o.observerConfig = &cfg
		}
		o.observerConfig.ProbeAddress = addr
		return nil
	}
}

// WithSystemWatcher 注入系统信号源
//
// 宿主平台（如移动端）可注入 netwatch.ManualWatcher，以外部通知
// 方式驱动观察器；未设置时使用跨平台的轮询实现。
func WithSystemWatcher(w interfaces.SystemWatcher) Option {
	return func(o *options) error {
		o.watcher = w
		return nil
	}
}

// WithReachabilityProbe 注入可达性探测器
func WithReachabilityProbe(p interfaces.ReachabilityProbe) Option {
	return func(o *options) error {
		o.probe = p
		return nil
	}
}

// WithClock 注入时钟实现
//
// 三个内部组件的所有定时行为都走该时钟，测试可注入 mock 时钟
// 精确推进退避与稳定延迟。
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clk = clk
		return nil
	}
}

// WithAccounts 设置初始监控账户
//
// 引擎启动后自动注册这些账户。
func WithAccounts(accountKeys ...string) Option {
	return func(o *options) error {
		o.accounts = append(o.accounts, accountKeys...)
		return nil
	}
}

// WithStatusCallback 注册重连状态变更回调
func WithStatusCallback(cb interfaces.ReconnectionStatusCallback) Option {
	return func(o *options) error {
		o.statusCallbacks = append(o.statusCallbacks, cb)
		return nil
	}
}

// WithVerboseFxLogging 打开 Fx 事件日志（调试用）
func WithVerboseFxLogging() Option {
	return func(o *options) error {
		o.verboseFx = true
		return nil
	}
}
