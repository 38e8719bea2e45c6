// Package netobserver 提供网络状态观察功能
//
// 本文件实现基于轮询的跨平台系统监听器。
package netobserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              PollingWatcher
// ============================================================================

// PollingWatcher 基于轮询的系统监听器
//
// 使用标准库 net.Interfaces() 周期性计算网络指纹，
// 指纹变化时按连通性差异发出对应的原始信号。
type PollingWatcher struct {
	mu sync.RWMutex

	// 配置
	config *Config

	// 时钟（测试可注入 mock）
	clk clock.Clock

	// 事件通道
	events chan interfaces.RawEvent

	// 上次网络指纹
	lastFingerprint string

	// 上次是否有活跃链路
	lastConnected bool

	// 运行状态
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// 确保实现接口
var _ interfaces.SystemWatcher = (*PollingWatcher)(nil)

// NewPollingWatcher 创建轮询监听器
func NewPollingWatcher(config *Config) *PollingWatcher {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	return &PollingWatcher{
		config: config,
		clk:    clock.New(),
		events: make(chan interfaces.RawEvent, config.EventBufferSize),
	}
}

// SetClock 设置时钟
//
// 必须在 Start() 之前调用。
func (w *PollingWatcher) SetClock(clk clock.Clock) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clk = clk
}

// Start 启动监听
func (w *PollingWatcher) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return nil // 已在运行
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	// 初始化指纹
	w.mu.Lock()
	w.lastFingerprint = networkFingerprint()
	w.lastConnected = deriveSystemStatus().Connected
	w.mu.Unlock()

	w.wg.Add(1)
	go w.pollLoop()

	logger.Info("轮询监听器已启动", "poll_interval", w.config.PollInterval)
	return nil
}

// Stop 停止监听
func (w *PollingWatcher) Stop() error {
	if !w.running.CompareAndSwap(true, false) {
		return nil // 未运行
	}

	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	logger.Info("轮询监听器已停止")
	return nil
}

// Events 返回原始信号通道
func (w *PollingWatcher) Events() <-chan interfaces.RawEvent { return w.events }

// Snapshot 从系统接口派生当前快照
func (w *PollingWatcher) Snapshot() interfaces.NetworkStatus {
	return deriveSystemStatus()
}

// IsRunning 检查是否运行
func (w *PollingWatcher) IsRunning() bool { return w.running.Load() }

// ============================================================================
//                              轮询逻辑
// ============================================================================

// pollLoop 轮询循环
func (w *PollingWatcher) pollLoop() {
	defer w.wg.Done()

	ticker := w.clk.Ticker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkNetworkChange()
		}
	}
}

// checkNetworkChange 检查网络变化
func (w *PollingWatcher) checkNetworkChange() {
	currentFingerprint := networkFingerprint()
	currentConnected := deriveSystemStatus().Connected

	w.mu.Lock()
	lastFingerprint := w.lastFingerprint
	lastConnected := w.lastConnected
	w.lastFingerprint = currentFingerprint
	w.lastConnected = currentConnected
	w.mu.Unlock()

	if currentFingerprint == lastFingerprint {
		return
	}

	logger.Debug("检测到网络指纹变化",
		"old", TruncateFingerprint(lastFingerprint),
		"new", TruncateFingerprint(currentFingerprint))

	now := time.Now()
	var ev interfaces.RawEvent
	switch {
	case !lastConnected && currentConnected:
		ev = interfaces.RawEvent{Kind: interfaces.RawAvailable, Timestamp: now}
	case lastConnected && !currentConnected:
		ev = interfaces.RawEvent{Kind: interfaces.RawLost, Timestamp: now}
	default:
		ev = interfaces.RawEvent{Kind: interfaces.RawLinkChanged, Timestamp: now}
	}

	select {
	case w.events <- ev:
	default:
		logger.Warn("原始信号缓冲区已满，丢弃信号", "kind", ev.Kind.String())
	}
}

// TruncateFingerprint 安全截取指纹用于日志
func TruncateFingerprint(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}

// ============================================================================
//                              快照派生
// ============================================================================

// deriveSystemStatus 从系统接口派生网络快照
//
// 选择第一个启用、非回环且带地址的接口作为首选链路。
// 可达性字段留空，由 Observer 的探测异步填充。
func deriveSystemStatus() interfaces.NetworkStatus {
	status := interfaces.NetworkStatus{
		Connected: false,
		Class:     interfaces.NetworkNone,
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return status
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}

		status.Connected = true
		status.Class = classifyInterfaceName(iface.Name)
		status.Address = addrs[0].String()
		status.Metered = status.Class.IsMetered()
		return status
	}

	return status
}

// classifyInterfaceName 根据接口名称推断网络类别
func classifyInterfaceName(name string) interfaces.NetworkClass {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "wlan"),
		strings.HasPrefix(lower, "wifi"),
		strings.HasPrefix(lower, "wl"),
		strings.HasPrefix(lower, "ath"):
		return interfaces.NetworkWiFi
	case strings.HasPrefix(lower, "rmnet"),
		strings.HasPrefix(lower, "wwan"),
		strings.HasPrefix(lower, "ccmni"),
		strings.HasPrefix(lower, "pdp"):
		return interfaces.NetworkCellular
	case strings.HasPrefix(lower, "eth"),
		strings.HasPrefix(lower, "en"),
		strings.HasPrefix(lower, "em"):
		return interfaces.NetworkEthernet
	case strings.HasPrefix(lower, "tun"),
		strings.HasPrefix(lower, "tap"),
		strings.HasPrefix(lower, "wg"),
		strings.HasPrefix(lower, "ppp"),
		strings.HasPrefix(lower, "utun"):
		return interfaces.NetworkVPN
	default:
		return interfaces.NetworkOther
	}
}

// networkFingerprint 计算网络指纹
//
// 基于所有非回环接口的名称、硬件地址、标志位和地址列表计算哈希。
func networkFingerprint() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	var parts []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		part := iface.Name + ":" + iface.HardwareAddr.String() + ":" + iface.Flags.String()

		addrs, err := iface.Addrs()
		if err == nil {
			var addrStrs []string
			for _, addr := range addrs {
				addrStrs = append(addrStrs, addr.String())
			}
			sort.Strings(addrStrs)
			part += ":[" + strings.Join(addrStrs, ",") + "]"
		}

		parts = append(parts, part)
	}

	sort.Strings(parts)
	data := strings.Join(parts, "|")

	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}
