// Package service 提供重连编排服务
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var logger = log.Logger("core/service")

// ErrDisposed 服务已终态销毁
var ErrDisposed = errors.New("reconnection service disposed")

// ============================================================================
//                              Service
// ============================================================================

// Service 重连编排服务
//
// 观察器与协调器之间的粘合层：维护被监控账户注册表，
// 把网络事件翻译成按账户的协调器调用。
type Service struct {
	mu sync.Mutex

	// 配置
	config *Config

	// 时钟（测试可注入 mock）
	clk clock.Clock

	// 依赖组件
	observer    interfaces.NetworkObserver
	coordinator interfaces.ReconnectionCoordinator

	// 被监控账户注册表
	accounts map[string]struct{}

	// 网络事件订阅
	events <-chan interfaces.NetworkEvent

	// 稳定延迟定时器
	settleTimer *clock.Timer
	settleMu    sync.Mutex

	// 运行状态
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	disposed bool
}

// 确保实现接口
var _ interfaces.ReconnectionService = (*Service)(nil)

// NewService 创建编排服务
func NewService(config *Config, observer interfaces.NetworkObserver, coordinator interfaces.ReconnectionCoordinator) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	return &Service{
		config:      config,
		clk:         clock.New(),
		observer:    observer,
		coordinator: coordinator,
		accounts:    make(map[string]struct{}),
	}
}

// SetClock 设置时钟
//
// 必须在 Start() 之前调用。
func (s *Service) SetClock(clk clock.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clk = clk
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动服务
//
// 幂等：已启动时再次调用直接返回。销毁后拒绝。
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.ctx != nil {
		s.mu.Unlock()
		return nil // 已启动
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.events = s.observer.Subscribe()
	localCtx := s.ctx
	events := s.events
	s.mu.Unlock()

	s.wg.Add(1)
	go s.watchNetworkEvents(localCtx, events)

	logger.Info("重连编排服务已启动", "settle_delay", s.config.SettleDelay)
	return nil
}

// Stop 停止服务
//
// 幂等：未启动时调用安全。停止所有活跃循环但保留账户注册表，
// 可再次 Start。
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		return nil // 未启动
	}
	s.cancel()
	s.ctx = nil
	s.cancel = nil
	events := s.events
	s.events = nil
	s.mu.Unlock()

	s.cancelSettle()
	s.wg.Wait()

	if events != nil {
		s.observer.Unsubscribe(events)
	}
	s.coordinator.StopAll()

	logger.Info("重连编排服务已停止")
	return nil
}

// Dispose 终态销毁
//
// 停止服务并拒绝之后的所有调用。幂等。
func (s *Service) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := s.Stop()

	s.mu.Lock()
	s.disposed = true
	s.accounts = make(map[string]struct{})
	s.mu.Unlock()

	logger.Info("重连编排服务已销毁")
	return err
}

// ============================================================================
//                              账户注册表
// ============================================================================

// RegisterAccount 注册监控账户（幂等）
func (s *Service) RegisterAccount(accountKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || accountKey == "" {
		return
	}
	if _, ok := s.accounts[accountKey]; ok {
		return
	}
	s.accounts[accountKey] = struct{}{}

	logger.Info("注册监控账户", "account", log.TruncateID(accountKey, 16))
}

// UnregisterAccount 取消监控并停止其活跃循环
func (s *Service) UnregisterAccount(accountKey string) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	_, ok := s.accounts[accountKey]
	delete(s.accounts, accountKey)
	s.mu.Unlock()

	if ok {
		s.coordinator.StopReconnection(accountKey)
		logger.Info("取消监控账户", "account", log.TruncateID(accountKey, 16))
	}
}

// UnregisterAll 取消所有监控
func (s *Service) UnregisterAll() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(s.accounts))
	for key := range s.accounts {
		keys = append(keys, key)
	}
	s.accounts = make(map[string]struct{})
	s.mu.Unlock()

	for _, key := range keys {
		s.coordinator.StopReconnection(key)
	}

	logger.Info("已取消所有监控账户", "count", len(keys))
}

// MonitoredAccounts 获取当前监控的账户列表
func (s *Service) MonitoredAccounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.accounts))
	for key := range s.accounts {
		keys = append(keys, key)
	}
	return keys
}

// ============================================================================
//                              外部上报
// ============================================================================

// ForceReconnection 手动触发重连（绕过抑制窗口）
func (s *Service) ForceReconnection(accountKey string) {
	if s.isDisposed() {
		return
	}
	s.coordinator.ForceReconnection(accountKey, s.networkOK())
}

// NotifyRegistrationFailed 上报注册失败
//
// 错误文本用于分类触发原因；网络相关的失败在无网络时
// 只创建等待状态。
func (s *Service) NotifyRegistrationFailed(accountKey string, errText string) {
	if s.isDisposed() {
		return
	}

	reason := classifyFailure(errText, s.config.NetworkErrorPatterns)
	networkOK := s.networkOK()

	logger.Debug("收到注册失败上报",
		"account", log.TruncateID(accountKey, 16),
		"reason", reason.String(),
		"network_ok", networkOK)

	s.coordinator.StartReconnection(accountKey, reason, networkOK)
}

// NotifyTransportDisconnected 上报传输层断开
func (s *Service) NotifyTransportDisconnected(accountKey string) {
	if s.isDisposed() {
		return
	}
	s.coordinator.StartReconnection(accountKey, interfaces.ReasonTransportDisconnected, s.networkOK())
}

// ResetReconnectionAttempts 重置账户尝试计数
func (s *Service) ResetReconnectionAttempts(accountKey string) {
	if s.isDisposed() {
		return
	}
	s.coordinator.ResetAttempts(accountKey)
}

// ============================================================================
//                              诊断
// ============================================================================

// ReconnectionStates 获取所有账户的重连状态
func (s *Service) ReconnectionStates() map[string]interfaces.ReconnectionState {
	return s.coordinator.AllStates()
}

// ActiveReconnectionCount 获取活跃循环数量
func (s *Service) ActiveReconnectionCount() int {
	count := 0
	for _, st := range s.coordinator.AllStates() {
		if st.IsActive && !st.ShouldStop {
			count++
		}
	}
	return count
}

// ============================================================================
//                              网络事件处理
// ============================================================================

// watchNetworkEvents 消费观察器事件
func (s *Service) watchNetworkEvents(ctx context.Context, events <-chan interfaces.NetworkEvent) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleNetworkEvent(ctx, ev)
		}
	}
}

// handleNetworkEvent 处理一个网络事件
//
// 丢失立即生效；恢复经稳定延迟去抖后统一评估。
func (s *Service) handleNetworkEvent(ctx context.Context, ev interfaces.NetworkEvent) {
	logger.Info("收到网络事件",
		"type", ev.Type.String(),
		"has_internet", ev.HasInternet)

	switch ev.Type {
	case interfaces.NetworkEventLost, interfaces.NetworkEventDisconnected:
		s.cancelSettle()
		s.parkAllAccounts()

	case interfaces.NetworkEventConnected, interfaces.NetworkEventChanged:
		s.scheduleEvaluation(ctx, interfaces.ReasonNetworkChanged)

	case interfaces.NetworkEventInternetChanged:
		if ev.HasInternet {
			s.scheduleEvaluation(ctx, interfaces.ReasonNetworkChanged)
		}
	}
}

// parkAllAccounts 把所有监控账户转入等待网络状态
func (s *Service) parkAllAccounts() {
	for _, key := range s.MonitoredAccounts() {
		s.coordinator.StartReconnection(key, interfaces.ReasonNetworkLost, false)
	}
}

// scheduleEvaluation 在稳定延迟后评估所有账户
//
// 延迟窗口内的连续恢复事件只保留最后一次。
func (s *Service) scheduleEvaluation(ctx context.Context, reason interfaces.ReconnectionReason) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleTimer = s.clk.AfterFunc(s.config.SettleDelay, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.evaluateAccounts(reason)
	})
}

// evaluateAccounts 网络稳定后为需要的账户触发重连
func (s *Service) evaluateAccounts(reason interfaces.ReconnectionReason) {
	if !s.networkOK() {
		logger.Debug("稳定延迟结束时网络仍不可用，跳过评估")
		return
	}

	for _, key := range s.MonitoredAccounts() {
		s.coordinator.StartReconnection(key, reason, true)
	}
}

// cancelSettle 取消未触发的稳定延迟
func (s *Service) cancelSettle() {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
}

// networkOK 当前网络是否可用
func (s *Service) networkOK() bool {
	return s.observer.IsConnected() && s.observer.HasInternet()
}

// isDisposed 检查销毁标志
func (s *Service) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
