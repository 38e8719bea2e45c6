package netwatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

func TestManualWatcherNotify(t *testing.T) {
	w := NewManualWatcher(4)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	assert.True(t, w.IsRunning())

	w.NotifyAvailable(interfaces.NetworkStatus{Class: interfaces.NetworkWiFi})

	select {
	case ev := <-w.Events():
		assert.Equal(t, interfaces.RawAvailable, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("等待原始信号超时")
	}

	// Connected 由 NotifyAvailable 强制置位
	st := w.Snapshot()
	assert.True(t, st.Connected)
	assert.Equal(t, interfaces.NetworkWiFi, st.Class)

	w.NotifyLost()
	select {
	case ev := <-w.Events():
		assert.Equal(t, interfaces.RawLost, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("等待原始信号超时")
	}
	assert.False(t, w.Snapshot().Connected)
}

func TestManualWatcherDropsWhenStopped(t *testing.T) {
	w := NewManualWatcher(4)

	// 未启动时信号被丢弃
	w.NotifyAvailable(interfaces.NetworkStatus{})

	select {
	case <-w.Events():
		t.Fatal("停止状态不应投递信号")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManualWatcherSetStatus(t *testing.T) {
	w := NewManualWatcher(4)

	// SetStatus 只更新快照，不产生信号
	w.SetStatus(interfaces.NetworkStatus{Connected: true, Class: interfaces.NetworkEthernet})

	st := w.Snapshot()
	assert.True(t, st.Connected)
	assert.Equal(t, interfaces.NetworkEthernet, st.Class)

	select {
	case <-w.Events():
		t.Fatal("SetStatus 不应投递信号")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoOpWatcherSnapshot(t *testing.T) {
	w := NewNoOpWatcher()
	require.NoError(t, w.Start(context.Background()))

	st := w.Snapshot()
	assert.False(t, st.Connected)
	assert.Equal(t, interfaces.NetworkNone, st.Class)
	assert.False(t, w.IsRunning())

	require.NoError(t, w.Stop())
}

func TestMockProbe(t *testing.T) {
	p := NewMockProbe()
	assert.True(t, p.Probe(context.Background()))

	p.SetReachable(false)
	assert.False(t, p.Probe(context.Background()))
	assert.Equal(t, int64(2), p.ProbeCount())
}
