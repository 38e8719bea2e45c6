// Package netobserver 提供网络状态观察功能
package netobserver

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var logger = log.Logger("core/netobserver")

// ============================================================================
//                              Observer
// ============================================================================

// Observer 网络观察器
//
// 消费 SystemWatcher 的原始信号，派生规范化的 NetworkStatus 快照，
// 对快照做差异比较，每次实质变化恰好向订阅者抛出一个事件。
// 公网可达性由探测器独立验证，可能在初始事件之后异步更新。
type Observer struct {
	mu sync.RWMutex

	// 配置
	config *Config

	// 时钟（测试可注入 mock）
	clk clock.Clock

	// 系统信号源
	watcher interfaces.SystemWatcher

	// 可达性探测器
	probe interfaces.ReachabilityProbe

	// 当前快照（不可变值，整体替换）
	status interfaces.NetworkStatus

	// 订阅者
	subscribers   []chan interfaces.NetworkEvent
	subscribersMu sync.RWMutex
	subsClosed    bool

	// 并发探测去重
	probeGroup singleflight.Group

	// 稳定延迟定时器
	settleTimer *clock.Timer
	settleMu    sync.Mutex

	// 运行状态
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// 确保实现接口
var (
	_ interfaces.NetworkObserver     = (*Observer)(nil)
	_ interfaces.NetworkAvailability = (*Observer)(nil)
)

// NewObserver 创建网络观察器
func NewObserver(config *Config) *Observer {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	return &Observer{
		config:      config,
		clk:         clock.New(),
		subscribers: make([]chan interfaces.NetworkEvent, 0),
		status:      interfaces.NetworkStatus{Connected: false, Class: interfaces.NetworkNone},
	}
}

// SetClock 设置时钟
//
// 必须在 Start() 之前调用。
func (o *Observer) SetClock(clk clock.Clock) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clk = clk
}

// SetSystemWatcher 设置系统信号源
//
// 必须在 Start() 之前调用。
func (o *Observer) SetSystemWatcher(w interfaces.SystemWatcher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.watcher = w
}

// SetProbe 设置可达性探测器
//
// 必须在 Start() 之前调用。
func (o *Observer) SetProbe(p interfaces.ReachabilityProbe) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probe = p
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动观察器
//
// 幂等：已启动时再次调用直接返回。注册系统信号源并取初始快照。
func (o *Observer) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.ctx != nil {
		o.mu.Unlock()
		return nil // 已启动
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
	if o.watcher == nil {
		o.watcher = NewSystemWatcher(o.config)
	}
	if o.probe == nil {
		o.probe = NewDialProbe(o.config.ProbeAddress, o.config.ProbeTimeout)
	}
	watcher := o.watcher
	localCtx := o.ctx
	o.mu.Unlock()

	// 重新启动时恢复订阅能力
	o.subscribersMu.Lock()
	o.subsClosed = false
	o.subscribersMu.Unlock()

	if err := watcher.Start(localCtx); err != nil {
		logger.Warn("启动系统监听器失败", "error", err)
	} else {
		o.wg.Add(1)
		go o.watchRawEvents(localCtx, watcher)
	}

	// 初始快照
	initial := watcher.Snapshot()
	initial.Timestamp = o.clk.Now()
	o.mu.Lock()
	o.status = initial
	o.mu.Unlock()

	// 异步验证可达性
	if initial.Connected {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.verifyInternet(localCtx)
		}()
	}

	logger.Info("网络观察器已启动",
		"connected", initial.Connected,
		"class", initial.Class.String())
	return nil
}

// Stop 停止观察器
//
// 幂等：未启动时调用安全。
func (o *Observer) Stop() error {
	o.mu.Lock()
	if o.ctx == nil {
		o.mu.Unlock()
		return nil // 未启动
	}
	o.cancel()
	o.ctx = nil
	o.cancel = nil
	watcher := o.watcher
	o.mu.Unlock()

	// 取消未触发的稳定延迟
	o.settleMu.Lock()
	if o.settleTimer != nil {
		o.settleTimer.Stop()
		o.settleTimer = nil
	}
	o.settleMu.Unlock()

	o.wg.Wait()

	var err error
	if watcher != nil {
		err = watcher.Stop()
	}

	// 关闭所有订阅通道
	o.subscribersMu.Lock()
	o.subsClosed = true
	for _, ch := range o.subscribers {
		close(ch)
	}
	o.subscribers = nil
	o.subscribersMu.Unlock()

	logger.Info("网络观察器已停止")
	return err
}

// ============================================================================
//                              订阅
// ============================================================================

// Subscribe 订阅连通性事件
func (o *Observer) Subscribe() <-chan interfaces.NetworkEvent {
	ch := make(chan interfaces.NetworkEvent, o.config.EventBufferSize)

	o.subscribersMu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.subscribersMu.Unlock()

	return ch
}

// Unsubscribe 取消订阅
func (o *Observer) Unsubscribe(ch <-chan interfaces.NetworkEvent) {
	o.subscribersMu.Lock()
	defer o.subscribersMu.Unlock()

	for i, sub := range o.subscribers {
		if sub == ch {
			close(sub)
			lastIdx := len(o.subscribers) - 1
			o.subscribers[i] = o.subscribers[lastIdx]
			o.subscribers = o.subscribers[:lastIdx]
			return
		}
	}
}

// ============================================================================
//                              查询
// ============================================================================

// CurrentStatus 获取当前快照
func (o *Observer) CurrentStatus() interfaces.NetworkStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// IsConnected 是否存在活跃链路
func (o *Observer) IsConnected() bool {
	return o.CurrentStatus().Connected
}

// HasInternet 是否确认可达公网
func (o *Observer) HasInternet() bool {
	return o.CurrentStatus().HasInternet
}

// ForceRefresh 按需重新派生快照并重新验证可达性
func (o *Observer) ForceRefresh(ctx context.Context) interfaces.NetworkStatus {
	o.mu.RLock()
	watcher := o.watcher
	o.mu.RUnlock()

	if watcher == nil {
		return o.CurrentStatus()
	}

	o.refresh(watcher, false)

	// 同步验证可达性
	if o.CurrentStatus().Connected {
		o.verifyInternet(ctx)
	}

	return o.CurrentStatus()
}

// ============================================================================
//                              内部逻辑
// ============================================================================

// watchRawEvents 消费系统原始信号
func (o *Observer) watchRawEvents(ctx context.Context, watcher interfaces.SystemWatcher) {
	defer o.wg.Done()

	events := watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			o.handleRawEvent(ctx, watcher, ev)
		}
	}
}

// handleRawEvent 处理一个原始信号
//
// available 信号先经过稳定延迟再重建快照；其余信号立即重建。
func (o *Observer) handleRawEvent(ctx context.Context, watcher interfaces.SystemWatcher, ev interfaces.RawEvent) {
	logger.Debug("收到系统原始信号", "kind", ev.Kind.String())

	switch ev.Kind {
	case interfaces.RawAvailable:
		o.scheduleSettledRefresh(ctx, watcher)
	case interfaces.RawLost:
		o.refresh(watcher, true)
	default:
		o.refresh(watcher, false)
	}
}

// scheduleSettledRefresh 在稳定延迟后重建快照
//
// 连续的 available 信号只保留最后一次。
func (o *Observer) scheduleSettledRefresh(ctx context.Context, watcher interfaces.SystemWatcher) {
	o.settleMu.Lock()
	defer o.settleMu.Unlock()

	if o.settleTimer != nil {
		o.settleTimer.Stop()
	}
	o.settleTimer = o.clk.AfterFunc(o.config.SettleDelay, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		o.refresh(watcher, false)
		if o.CurrentStatus().Connected {
			o.verifyInternet(ctx)
		}
	})
}

// refresh 重建快照并按差异抛出事件
func (o *Observer) refresh(watcher interfaces.SystemWatcher, rawLost bool) {
	next := watcher.Snapshot()
	next.Timestamp = o.clk.Now()

	o.mu.Lock()
	prev := o.status
	// 同一条活跃链路上保留已验证的可达性，等待探测更新
	if prev.Connected && next.Connected {
		next.HasInternet = prev.HasInternet
	}
	if !next.Connected {
		next.HasInternet = false
	}
	o.status = next
	o.mu.Unlock()

	eventType, fire := diffStatus(prev, next, rawLost)
	if !fire {
		return
	}

	o.notifySubscribers(interfaces.NetworkEvent{
		Type:        eventType,
		Previous:    prev,
		Current:     next,
		HasInternet: next.HasInternet,
		Timestamp:   next.Timestamp,
	})
}

// diffStatus 比较两个快照，决定应抛出的事件
//
// 纯粹的状态抖动（连通性语义无差异）不产生事件。
func diffStatus(prev, next interfaces.NetworkStatus, rawLost bool) (interfaces.NetworkEventType, bool) {
	switch {
	case !prev.Connected && next.Connected:
		return interfaces.NetworkEventConnected, true
	case prev.Connected && !next.Connected:
		if rawLost {
			return interfaces.NetworkEventLost, true
		}
		return interfaces.NetworkEventDisconnected, true
	case next.Connected && !prev.SameConnectivity(next):
		return interfaces.NetworkEventChanged, true
	default:
		return 0, false
	}
}

// verifyInternet 验证公网可达性
//
// 并发调用通过 singleflight 合并为一次真实探测；
// 结果与当前快照不一致时整体替换快照并抛出可达性事件。
func (o *Observer) verifyInternet(ctx context.Context) {
	o.mu.RLock()
	probe := o.probe
	timeout := o.config.ProbeTimeout
	o.mu.RUnlock()

	if probe == nil {
		return
	}

	v, _, _ := o.probeGroup.Do("reachability", func() (interface{}, error) {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return probe.Probe(probeCtx), nil
	})
	reachable, _ := v.(bool)

	o.mu.Lock()
	if !o.status.Connected || o.status.HasInternet == reachable {
		o.mu.Unlock()
		return
	}
	prev := o.status
	next := o.status
	next.HasInternet = reachable
	next.Timestamp = o.clk.Now()
	o.status = next
	o.mu.Unlock()

	logger.Info("公网可达性变化", "has_internet", reachable)

	o.notifySubscribers(interfaces.NetworkEvent{
		Type:        interfaces.NetworkEventInternetChanged,
		Previous:    prev,
		Current:     next,
		HasInternet: reachable,
		Timestamp:   next.Timestamp,
	})
}

// notifySubscribers 通知所有订阅者
//
// 单个订阅者的阻塞/故障不能影响其他订阅者和观察器自身。
func (o *Observer) notifySubscribers(event interfaces.NetworkEvent) {
	o.subscribersMu.RLock()
	defer o.subscribersMu.RUnlock()

	if o.subsClosed {
		return
	}

	for _, ch := range o.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("订阅者处理过慢，丢弃网络事件",
				"type", event.Type.String())
		}
	}
}
