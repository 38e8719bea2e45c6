// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var logger = log.Logger("core/reconnect")

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrAttemptFailed 单次尝试在轮询窗口内未观察到成功
	ErrAttemptFailed = errors.New("reconnection attempt failed")

	// ErrAttemptsExhausted 尝试次数耗尽
	ErrAttemptsExhausted = errors.New("reconnection attempts exhausted")

	// ErrNetworkUnavailable 网络不可用
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// ============================================================================
//                              Coordinator
// ============================================================================

// loopHandle 一个活跃重试循环的句柄
type loopHandle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Coordinator 重连协调器
//
// 按账户键运行有界、可取消、指数退避的重试循环。
// 任意时刻每个账户键至多存在一个活跃循环。
type Coordinator struct {
	mu sync.Mutex

	// 配置
	config  *Config
	backoff Backoff

	// 时钟（测试可注入 mock）
	clk clock.Clock

	// 依赖组件（外部注入）
	query    interfaces.RegistrationStateQuery
	callback interfaces.ReconnectionCallback
	network  interfaces.NetworkAvailability

	// 状态
	states *StateStore
	cache  *SuccessCache

	// 活跃循环句柄
	loops map[string]*loopHandle

	// 每账户启动序列化锁
	keyLocks map[string]*sync.Mutex

	// 延迟移除定时器
	removalTimers map[string]*clock.Timer

	// 状态变更回调
	statusCbs   []interfaces.ReconnectionStatusCallback
	statusCbsMu sync.RWMutex

	// 运行状态
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// 确保实现接口
var _ interfaces.ReconnectionCoordinator = (*Coordinator)(nil)

// NewCoordinator 创建重连协调器
func NewCoordinator(config *Config) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	clk := clock.New()
	return &Coordinator{
		config:        config,
		backoff:       NewBackoff(config.BaseBackoff, config.MaxBackoff),
		clk:           clk,
		states:        NewStateStore(),
		cache:         NewSuccessCache(config.SuccessCacheSize, config.StaleCacheTTL, clk),
		loops:         make(map[string]*loopHandle),
		keyLocks:      make(map[string]*sync.Mutex),
		removalTimers: make(map[string]*clock.Timer),
	}
}

// ============================================================================
//                              依赖注入
// ============================================================================

// SetClock 设置时钟
//
// 必须在 Start() 之前调用。
func (c *Coordinator) SetClock(clk clock.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clk = clk
	c.cache = NewSuccessCache(c.config.SuccessCacheSize, c.config.StaleCacheTTL, clk)
}

// SetRegistrationQuery 设置注册状态查询
//
// 必须在 Start() 之前调用。未设置时所有账户视为未注册。
func (c *Coordinator) SetRegistrationQuery(q interfaces.RegistrationStateQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// SetReconnectionCallback 设置重连动作回调
//
// 必须在 Start() 之前调用。
func (c *Coordinator) SetReconnectionCallback(cb interfaces.ReconnectionCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

// SetNetworkAvailability 设置网络可用性查询
//
// 必须在 Start() 之前调用。未设置时视网络恒为可用。
func (c *Coordinator) SetNetworkAvailability(n interfaces.NetworkAvailability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.network = n
}

// OnStatusChanged 注册状态变更回调
func (c *Coordinator) OnStatusChanged(cb interfaces.ReconnectionStatusCallback) {
	c.statusCbsMu.Lock()
	defer c.statusCbsMu.Unlock()
	c.statusCbs = append(c.statusCbs, cb)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动协调器
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.ctx != nil {
		c.mu.Unlock()
		return nil // 已启动
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	logger.Info("重连协调器已启动",
		"max_attempts", c.config.MaxAttempts,
		"base_backoff", c.config.BaseBackoff,
		"max_backoff", c.config.MaxBackoff)
	return nil
}

// Stop 停止协调器
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return nil // 未启动
	}
	c.cancel()
	c.ctx = nil
	c.cancel = nil
	timers := c.removalTimers
	c.removalTimers = make(map[string]*clock.Timer)
	c.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}

	c.wg.Wait()

	logger.Info("重连协调器已停止")
	return nil
}

// ============================================================================
//                              重连触发
// ============================================================================

// StartReconnection 为账户启动重试循环
//
// 前置条件按序检查（见接口文档），每一条都是合法短路。
func (c *Coordinator) StartReconnection(accountKey string, reason interfaces.ReconnectionReason, networkAvailable bool) {
	c.begin(accountKey, reason, networkAvailable, false)
}

// ForceReconnection 强制启动重试循环
//
// 手动触发路径：绕过抑制窗口与注册状态双重检查。
func (c *Coordinator) ForceReconnection(accountKey string, networkAvailable bool) {
	c.begin(accountKey, interfaces.ReasonManual, networkAvailable, true)
}

// begin 触发入口
//
// 守卫 1（抑制窗口）同步检查；守卫 2/3 与循环启动在独立任务中
// 执行，不阻塞调用方的事件分发路径。
func (c *Coordinator) begin(accountKey string, reason interfaces.ReconnectionReason, networkAvailable bool, force bool) {
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		logger.Warn("协调器未启动，忽略重连触发", "account", log.TruncateID(accountKey, 16))
		return
	}
	localCtx := c.ctx
	// 在持锁窗口内登记任务，保证 Stop 的 Wait 不会先行通过
	c.wg.Add(1)
	c.mu.Unlock()

	// 守卫 1: 抑制窗口内刚成功过
	if !force && c.cache.RecentlySucceeded(accountKey, c.config.SuppressionWindow) {
		logger.Debug("抑制窗口内已成功，跳过重连",
			"account", log.TruncateID(accountKey, 16),
			"reason", reason.String())
		c.wg.Done()
		return
	}

	go func() {
		defer c.wg.Done()

		// 协调器停止后不再写入任何状态
		select {
		case <-localCtx.Done():
			return
		default:
		}

		// 守卫 2: 注册状态双重检查（间隔吸收抖动）
		if !force && c.queryState(accountKey).IsRegistered() {
			if !c.sleep(localCtx, c.config.DoubleCheckGap) {
				return
			}
			if c.queryState(accountKey).IsRegistered() {
				logger.Debug("账户已注册，跳过重连并清理陈旧状态",
					"account", log.TruncateID(accountKey, 16))
				c.clearState(accountKey)
				return
			}
		}

		// 守卫 3: 网络不可用时只创建惰性等待状态，不启动循环
		if !networkAvailable {
			c.parkInert(accountKey, reason)
			return
		}

		c.launch(localCtx, accountKey, reason)
	}()
}

// launch 启动新循环
//
// 始终先取消并等待同键旧循环退出，保证至多一个循环的不变式。
func (c *Coordinator) launch(parentCtx context.Context, accountKey string, reason interfaces.ReconnectionReason) {
	kl := c.keyLock(accountKey)
	kl.Lock()
	defer kl.Unlock()

	c.mu.Lock()
	old := c.loops[accountKey]
	c.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
	}

	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return // 协调器已停止
	}
	loopCtx, cancel := context.WithCancel(parentCtx)
	h := &loopHandle{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.loops[accountKey] = h
	c.mu.Unlock()

	c.cancelRemoval(accountKey)

	st := interfaces.ReconnectionState{
		AccountKey:       accountKey,
		LoopID:           h.id,
		IsActive:         true,
		Attempts:         0,
		MaxAttempts:      c.config.MaxAttempts,
		Reason:           reason,
		NetworkAvailable: true,
		Timestamp:        c.clk.Now(),
	}
	c.states.Put(accountKey, st)
	c.notifyStatus(accountKey, st)

	logger.Info("启动重试循环",
		"account", log.TruncateID(accountKey, 16),
		"loop", log.TruncateID(h.id, 8),
		"reason", reason.String())

	loopsActive.Inc()
	c.wg.Add(1)
	go c.runLoop(loopCtx, h, accountKey, reason)
}

// ============================================================================
//                              停止与外部断言
// ============================================================================

// StopReconnection 停止账户的重试循环
//
// 键不存在时调用安全。标记终止意图、取消循环并调度延迟移除。
func (c *Coordinator) StopReconnection(accountKey string) {
	st, ok := c.states.Update(accountKey, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.ShouldStop = true
		st.Timestamp = c.clk.Now()
		return st
	})

	c.mu.Lock()
	h := c.loops[accountKey]
	c.mu.Unlock()

	if h != nil {
		h.cancel() // 循环退出时自行调度移除
	} else if ok {
		c.scheduleRemoval(accountKey, st.LoopID)
	}

	if ok {
		c.notifyStatus(accountKey, st)
	}
}

// StopAll 停止所有重试循环
func (c *Coordinator) StopAll() {
	for key := range c.states.All() {
		c.StopReconnection(key)
	}
}

// MarkConnected 外部断言成功
//
// 写入成功缓存并立即停止任何活跃循环。
func (c *Coordinator) MarkConnected(accountKey string) {
	c.cache.MarkSuccess(accountKey)
	logger.Info("外部断言账户已连接", "account", log.TruncateID(accountKey, 16))
	c.StopReconnection(accountKey)
}

// ResetAttempts 重置尝试计数
func (c *Coordinator) ResetAttempts(accountKey string) {
	if st, ok := c.states.Update(accountKey, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.Attempts = 0
		st.Timestamp = c.clk.Now()
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}
}

// ============================================================================
//                              查询
// ============================================================================

// IsReconnecting 检查账户是否有活跃循环
func (c *Coordinator) IsReconnecting(accountKey string) bool {
	st, ok := c.states.Get(accountKey)
	return ok && st.IsActive && !st.ShouldStop
}

// Attempts 获取账户当前尝试次数
func (c *Coordinator) Attempts(accountKey string) int {
	st, ok := c.states.Get(accountKey)
	if !ok {
		return 0
	}
	return st.Attempts
}

// AllStates 获取所有账户的状态快照
func (c *Coordinator) AllStates() map[string]interfaces.ReconnectionState {
	return c.states.All()
}

// ============================================================================
//                              内部辅助
// ============================================================================

// keyLock 获取账户的启动序列化锁
func (c *Coordinator) keyLock(accountKey string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	kl, ok := c.keyLocks[accountKey]
	if !ok {
		kl = &sync.Mutex{}
		c.keyLocks[accountKey] = kl
	}
	return kl
}

// queryState 查询外部注册状态
func (c *Coordinator) queryState(accountKey string) interfaces.RegistrationState {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()

	if q == nil {
		return interfaces.RegistrationNone
	}
	return q.GetAccountState(accountKey)
}

// networkOK 复核网络与公网可达性
func (c *Coordinator) networkOK() bool {
	c.mu.Lock()
	n := c.network
	c.mu.Unlock()

	if n == nil {
		return true
	}
	return n.IsConnected() && n.HasInternet()
}

// parkInert 创建惰性等待状态
//
// 保留已有的尝试计数；恢复只能来自新的外部触发。
func (c *Coordinator) parkInert(accountKey string, reason interfaces.ReconnectionReason) {
	prev, _ := c.states.Get(accountKey)

	// 取消可能仍在运行的旧循环
	c.mu.Lock()
	h := c.loops[accountKey]
	c.mu.Unlock()
	if h != nil {
		h.cancel()
		<-h.done
	}
	c.cancelRemoval(accountKey)

	st := interfaces.ReconnectionState{
		AccountKey:       accountKey,
		LoopID:           uuid.NewString(),
		IsActive:         false,
		Attempts:         prev.Attempts,
		MaxAttempts:      c.config.MaxAttempts,
		LastAttemptTime:  prev.LastAttemptTime,
		Reason:           reason,
		NetworkAvailable: false,
		ShouldStop:       true,
		Timestamp:        c.clk.Now(),
	}
	c.states.Put(accountKey, st)

	logger.Info("网络不可用，创建等待状态",
		"account", log.TruncateID(accountKey, 16),
		"reason", reason.String())

	c.notifyStatus(accountKey, st)
}

// clearState 清理陈旧状态
func (c *Coordinator) clearState(accountKey string) {
	c.cancelRemoval(accountKey)
	c.states.Remove(accountKey)
}

// scheduleRemoval 调度延迟移除
//
// 宽限期允许迟到的状态读取；仅当状态仍属于该循环时才真正移除。
func (c *Coordinator) scheduleRemoval(accountKey, loopID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return
	}
	if t, ok := c.removalTimers[accountKey]; ok {
		t.Stop()
	}
	c.removalTimers[accountKey] = c.clk.AfterFunc(c.config.RemovalGrace, func() {
		c.states.RemoveIfLoop(accountKey, loopID)
		c.mu.Lock()
		delete(c.removalTimers, accountKey)
		c.mu.Unlock()
	})
}

// cancelRemoval 取消挂起的延迟移除
func (c *Coordinator) cancelRemoval(accountKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.removalTimers[accountKey]; ok {
		t.Stop()
		delete(c.removalTimers, accountKey)
	}
}

// sleep 可取消的等待
//
// 返回 false 表示等待被取消。
func (c *Coordinator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := c.clk.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// invokeReconnectionCallback 调用注入的重连动作回调
//
// 回调内部的 panic 被隔离，不影响循环本身。
func (c *Coordinator) invokeReconnectionCallback(accountKey string, reason interfaces.ReconnectionReason) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()

	if cb == nil {
		logger.Warn("未设置重连回调，跳过尝试动作", "account", log.TruncateID(accountKey, 16))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("重连回调 panic", "account", log.TruncateID(accountKey, 16), "error", r)
		}
	}()
	cb.OnReconnectionRequired(accountKey, reason)
}

// notifyStatus 通知所有状态变更回调
//
// 每个回调在独立任务中调用并隔离 panic。
func (c *Coordinator) notifyStatus(accountKey string, st interfaces.ReconnectionState) {
	c.statusCbsMu.RLock()
	cbs := make([]interfaces.ReconnectionStatusCallback, len(c.statusCbs))
	copy(cbs, c.statusCbs)
	c.statusCbsMu.RUnlock()

	for _, cb := range cbs {
		go func(callback interfaces.ReconnectionStatusCallback) {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("状态回调 panic", "error", r)
				}
			}()
			callback(accountKey, st)
		}(cb)
	}
}
