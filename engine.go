package sipreconnect

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var logger = log.Logger("sipreconnect")

// ════════════════════════════════════════════════════════════════════════════
//                              引擎状态
// ════════════════════════════════════════════════════════════════════════════

// EngineState 引擎状态
type EngineState int

const (
	// StateIdle 空闲状态（已创建，未启动）
	StateIdle EngineState = iota

	// StateStarting 启动中（内部应用正在启动）
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopped 已停止（可重新启动）
	StateStopped

	// StateClosed 已关闭（终态）
	StateClosed
)

// String 返回状态的字符串表示
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// 启动/停止超时配置
const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx App 停止超时
	stopTimeout = 30 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Engine
// ════════════════════════════════════════════════════════════════════════════

// Engine 重连引擎
//
// 用户与引擎交互的主入口：聚合网络观察器、重连协调器与编排服务，
// 生命周期由内部 Fx 应用驱动。
//
// 状态机：Idle → Starting → Running ⇄ Stopped → Closed
type Engine struct {
	mu    sync.Mutex
	state EngineState

	opts *options
	app  fxApp

	// Fx Populate 提取的组件
	observer    interfaces.NetworkObserver
	coordinator interfaces.ReconnectionCoordinator
	service     interfaces.ReconnectionService
}

// fxApp 内部 Fx 应用的最小契约（便于测试替换）
type fxApp interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// New 创建重连引擎
//
// 重连动作回调是必需的，其余依赖与配置均有默认值。
func New(options ...Option) (*Engine, error) {
	opts := newOptions()
	for _, apply := range options {
		if err := apply(opts); err != nil {
			return nil, err
		}
	}
	if opts.callback == nil {
		return nil, ErrMissingCallback
	}

	return &Engine{
		state: StateIdle,
		opts:  opts,
	}, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动引擎
//
// 组装并启动内部 Fx 应用，然后注册初始监控账户。
// Stopped 状态下可再次启动（重建内部应用）。
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrEngineClosed
	case StateStarting, StateRunning:
		e.mu.Unlock()
		return ErrAlreadyStarted
	}

	// 启动期间占位，阻止并发 Start 重复构建内部应用
	prev := e.state
	e.state = StateStarting
	app := buildFxApp(e.opts, e)
	e.app = app
	e.mu.Unlock()

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		e.mu.Lock()
		e.app = nil
		e.state = prev
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	if e.state == StateClosed {
		// 启动期间被并发 Close，回收刚启动的应用
		e.app = nil
		e.mu.Unlock()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		_ = app.Stop(stopCtx)
		return ErrEngineClosed
	}
	e.state = StateRunning
	svc := e.service
	e.mu.Unlock()

	for _, key := range e.opts.accounts {
		svc.RegisterAccount(key)
	}

	logger.Info("重连引擎已启动", "accounts", len(e.opts.accounts))
	return nil
}

// Stop 停止引擎
//
// 幂等：未运行时调用安全。停止后可通过 Start 重新启动。
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return nil
	}
	app := e.app
	e.app = nil
	e.state = StateStopped
	e.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	err := app.Stop(stopCtx)

	logger.Info("重连引擎已停止")
	return err
}

// Close 关闭引擎（终态）
//
// 停止内部应用并销毁编排服务，之后所有调用均被拒绝。
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	svc := e.service
	e.mu.Unlock()

	err := e.Stop(context.Background())

	if svc != nil {
		err = multierr.Append(err, svc.Dispose())
	}

	e.mu.Lock()
	e.state = StateClosed
	e.mu.Unlock()

	logger.Info("重连引擎已关闭")
	return err
}

// State 获取引擎当前状态
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ════════════════════════════════════════════════════════════════════════════
//                              账户管理
// ════════════════════════════════════════════════════════════════════════════

// RegisterAccount 注册监控账户（幂等）
func (e *Engine) RegisterAccount(accountKey string) {
	if svc := e.runningService(); svc != nil {
		svc.RegisterAccount(accountKey)
	}
}

// UnregisterAccount 取消监控并停止其活跃循环
func (e *Engine) UnregisterAccount(accountKey string) {
	if svc := e.runningService(); svc != nil {
		svc.UnregisterAccount(accountKey)
	}
}

// UnregisterAll 取消所有监控
func (e *Engine) UnregisterAll() {
	if svc := e.runningService(); svc != nil {
		svc.UnregisterAll()
	}
}

// MonitoredAccounts 获取当前监控的账户列表
func (e *Engine) MonitoredAccounts() []string {
	if svc := e.runningService(); svc != nil {
		return svc.MonitoredAccounts()
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              信令层上报
// ════════════════════════════════════════════════════════════════════════════

// NotifyRegistrationFailed 上报注册失败（错误文本用于分类）
func (e *Engine) NotifyRegistrationFailed(accountKey string, errText string) {
	if svc := e.runningService(); svc != nil {
		svc.NotifyRegistrationFailed(accountKey, errText)
	}
}

// NotifyTransportDisconnected 上报传输层断开
func (e *Engine) NotifyTransportDisconnected(accountKey string) {
	if svc := e.runningService(); svc != nil {
		svc.NotifyTransportDisconnected(accountKey)
	}
}

// MarkConnected 信令层确认账户成功：停止循环并进入抑制窗口
func (e *Engine) MarkConnected(accountKey string) {
	e.mu.Lock()
	coordinator := e.coordinator
	running := e.state == StateRunning
	e.mu.Unlock()

	if running && coordinator != nil {
		coordinator.MarkConnected(accountKey)
	}
}

// ForceReconnection 手动触发重连（绕过抑制窗口）
func (e *Engine) ForceReconnection(accountKey string) {
	if svc := e.runningService(); svc != nil {
		svc.ForceReconnection(accountKey)
	}
}

// ResetReconnectionAttempts 重置账户尝试计数
func (e *Engine) ResetReconnectionAttempts(accountKey string) {
	if svc := e.runningService(); svc != nil {
		svc.ResetReconnectionAttempts(accountKey)
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              诊断与查询
// ════════════════════════════════════════════════════════════════════════════

// NetworkStatus 获取当前网络快照
func (e *Engine) NetworkStatus() interfaces.NetworkStatus {
	e.mu.Lock()
	observer := e.observer
	running := e.state == StateRunning
	e.mu.Unlock()

	if !running || observer == nil {
		return interfaces.NetworkStatus{}
	}
	return observer.CurrentStatus()
}

// IsNetworkAvailable 当前网络是否可用（链路 + 公网可达）
func (e *Engine) IsNetworkAvailable() bool {
	e.mu.Lock()
	observer := e.observer
	running := e.state == StateRunning
	e.mu.Unlock()

	if !running || observer == nil {
		return false
	}
	return observer.IsConnected() && observer.HasInternet()
}

// SubscribeNetworkEvents 订阅连通性事件
//
// 引擎未运行时返回 nil。
func (e *Engine) SubscribeNetworkEvents() <-chan interfaces.NetworkEvent {
	e.mu.Lock()
	observer := e.observer
	running := e.state == StateRunning
	e.mu.Unlock()

	if !running || observer == nil {
		return nil
	}
	return observer.Subscribe()
}

// ReconnectionStates 获取所有账户的重连状态
func (e *Engine) ReconnectionStates() map[string]interfaces.ReconnectionState {
	if svc := e.runningService(); svc != nil {
		return svc.ReconnectionStates()
	}
	return nil
}

// ActiveReconnectionCount 获取活跃循环数量
func (e *Engine) ActiveReconnectionCount() int {
	if svc := e.runningService(); svc != nil {
		return svc.ActiveReconnectionCount()
	}
	return 0
}

// runningService 运行状态下返回编排服务，否则返回 nil
func (e *Engine) runningService() interfaces.ReconnectionService {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return nil
	}
	return e.service
}
