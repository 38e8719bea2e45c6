package netobserver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/netwatch"
)

// testObserver 使用外部通知监听器与模拟探测器的观察器
func testObserver(t *testing.T) (*Observer, *netwatch.ManualWatcher, *netwatch.MockProbe) {
	t.Helper()

	config := DefaultConfig().
		WithSettleDelay(20 * time.Millisecond).
		WithProbeTimeout(100 * time.Millisecond)

	watcher := netwatch.NewManualWatcher(16)

	// 默认探测不通，需要可达性事件的用例自行打开
	probe := netwatch.NewMockProbe()
	probe.SetReachable(false)

	o := NewObserver(config)
	o.SetSystemWatcher(watcher)
	o.SetProbe(probe)

	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() { _ = o.Stop() })

	return o, watcher, probe
}

// waitEvent 带超时地等待一个事件
func waitEvent(t *testing.T, ch <-chan interfaces.NetworkEvent) interfaces.NetworkEvent {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("等待网络事件超时")
		return interfaces.NetworkEvent{}
	}
}

func wifiStatus(addr string) interfaces.NetworkStatus {
	return interfaces.NetworkStatus{
		Connected:   true,
		Class:       interfaces.NetworkWiFi,
		Address:     addr,
		HasInternet: false,
	}
}

func TestObserverConnectedEvent(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	assert.False(t, o.IsConnected())

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))

	ev := waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventConnected, ev.Type)
	assert.True(t, ev.Current.Connected)
	assert.Equal(t, interfaces.NetworkWiFi, ev.Current.Class)
	assert.True(t, o.IsConnected())
}

func TestObserverLostEvent(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	ev := waitEvent(t, ch)
	require.Equal(t, interfaces.NetworkEventConnected, ev.Type)

	// 丢失事件绕过稳定延迟，立即投递
	watcher.NotifyLost()
	ev = waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventLost, ev.Type)
	assert.False(t, ev.Current.Connected)
	assert.False(t, o.IsConnected())
	assert.False(t, o.HasInternet())
}

func TestObserverChangedEvent(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	ev := waitEvent(t, ch)
	require.Equal(t, interfaces.NetworkEventConnected, ev.Type)

	// WiFi → 蜂窝，链路变化
	watcher.NotifyLinkChanged(interfaces.NetworkStatus{
		Connected: true,
		Class:     interfaces.NetworkCellular,
		Address:   "10.0.0.5",
	})

	ev = waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventChanged, ev.Type)
	assert.Equal(t, interfaces.NetworkCellular, ev.Current.Class)
	assert.Equal(t, interfaces.NetworkWiFi, ev.Previous.Class)
}

func TestObserverDedupesIdenticalSnapshots(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	waitEvent(t, ch)

	// 相同快照的重复信号不产生事件
	watcher.NotifyCapabilitiesChanged(wifiStatus("192.168.1.10"))

	select {
	case ev := <-ch:
		t.Fatalf("不应产生事件: %v", ev.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestObserverSettleDelayCoalesces(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	// 稳定延迟内的连续 available 只产生一次快照重建
	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	watcher.NotifyAvailable(wifiStatus("192.168.1.11"))
	watcher.NotifyAvailable(wifiStatus("192.168.1.12"))

	ev := waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventConnected, ev.Type)
	assert.Equal(t, "192.168.1.12", ev.Current.Address)

	select {
	case ev := <-ch:
		t.Fatalf("稳定延迟应合并连续信号，多余事件: %v", ev.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestObserverInternetVerification(t *testing.T) {
	o, watcher, probe := testObserver(t)
	probe.SetReachable(true)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))

	ev := waitEvent(t, ch)
	require.Equal(t, interfaces.NetworkEventConnected, ev.Type)

	// 探测通过后异步抛出可达性事件
	ev = waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventInternetChanged, ev.Type)
	assert.True(t, ev.HasInternet)
	assert.True(t, o.HasInternet())
}

func TestObserverInternetUnreachable(t *testing.T) {
	o, watcher, probe := testObserver(t)
	probe.SetReachable(false)

	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	ev := waitEvent(t, ch)
	require.Equal(t, interfaces.NetworkEventConnected, ev.Type)

	// 探测失败时保持 HasInternet=false，不抛出可达性事件
	time.Sleep(150 * time.Millisecond)
	assert.True(t, o.IsConnected())
	assert.False(t, o.HasInternet())
}

func TestObserverForceRefresh(t *testing.T) {
	o, watcher, probe := testObserver(t)
	probe.SetReachable(true)

	watcher.SetStatus(wifiStatus("192.168.1.10"))

	st := o.ForceRefresh(context.Background())
	assert.True(t, st.Connected)

	// 同步验证完成后可达性已更新
	assert.True(t, o.HasInternet())
}

func TestObserverStartStopIdempotent(t *testing.T) {
	o := NewObserver(DefaultConfig())
	o.SetSystemWatcher(netwatch.NewManualWatcher(4))
	o.SetProbe(netwatch.NewMockProbe())

	// 未启动时 Stop 安全
	assert.NoError(t, o.Stop())

	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Start(context.Background()))

	assert.NoError(t, o.Stop())
	assert.NoError(t, o.Stop())
}

func TestObserverRestartDeliversEvents(t *testing.T) {
	config := DefaultConfig().WithSettleDelay(20 * time.Millisecond)

	watcher := netwatch.NewManualWatcher(16)
	probe := netwatch.NewMockProbe()
	probe.SetReachable(false)

	o := NewObserver(config)
	o.SetSystemWatcher(watcher)
	o.SetProbe(probe)

	// 完整的停止再启动周期
	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Stop())
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() { _ = o.Stop() })

	// 重新启动后新订阅者照常收到事件
	ch := o.Subscribe()
	defer o.Unsubscribe(ch)

	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))

	ev := waitEvent(t, ch)
	assert.Equal(t, interfaces.NetworkEventConnected, ev.Type)
	assert.True(t, o.IsConnected())
}

func TestObserverUnsubscribe(t *testing.T) {
	o, watcher, _ := testObserver(t)

	ch := o.Subscribe()
	o.Unsubscribe(ch)

	// 取消订阅后通道被关闭
	_, ok := <-ch
	assert.False(t, ok)

	// 后续事件不会 panic
	watcher.NotifyAvailable(wifiStatus("192.168.1.10"))
	time.Sleep(50 * time.Millisecond)
}

func TestObserverSlowSubscriberDoesNotBlock(t *testing.T) {
	config := DefaultConfig().WithSettleDelay(5 * time.Millisecond)
	config.EventBufferSize = 1

	watcher := netwatch.NewManualWatcher(16)
	o := NewObserver(config)
	o.SetSystemWatcher(watcher)
	o.SetProbe(netwatch.NewMockProbe())
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() { _ = o.Stop() })

	// 从不消费的慢订阅者
	_ = o.Subscribe()

	// 每个信号的地址都不同，全部产生事件并溢出缓冲区
	for i := 0; i < 10; i++ {
		watcher.NotifyLinkChanged(interfaces.NetworkStatus{
			Connected: true,
			Class:     interfaces.NetworkWiFi,
			Address:   fmt.Sprintf("192.168.1.%d", 10+i),
		})
	}

	// 溢出事件被丢弃，观察器自身不受影响
	assert.Eventually(t, func() bool {
		return o.IsConnected()
	}, 2*time.Second, 5*time.Millisecond)
}
