package netobserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

func TestClassifyInterfaceName(t *testing.T) {
	tests := []struct {
		name string
		want interfaces.NetworkClass
	}{
		{"wlan0", interfaces.NetworkWiFi},
		{"wlp3s0", interfaces.NetworkWiFi},
		{"ath0", interfaces.NetworkWiFi},
		{"rmnet_data0", interfaces.NetworkCellular},
		{"wwan0", interfaces.NetworkCellular},
		{"ccmni1", interfaces.NetworkCellular},
		{"eth0", interfaces.NetworkEthernet},
		{"enp0s31f6", interfaces.NetworkEthernet},
		{"em1", interfaces.NetworkEthernet},
		{"tun0", interfaces.NetworkVPN},
		{"wg0", interfaces.NetworkVPN},
		{"utun3", interfaces.NetworkVPN},
		{"ppp0", interfaces.NetworkVPN},
		{"docker0", interfaces.NetworkOther},
		{"WLAN0", interfaces.NetworkWiFi}, // 大小写不敏感
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyInterfaceName(tt.name), "name=%s", tt.name)
	}
}

func TestNetworkFingerprintStable(t *testing.T) {
	// 网络未变化时指纹必须稳定
	fp1 := networkFingerprint()
	fp2 := networkFingerprint()
	assert.Equal(t, fp1, fp2)
}

func TestTruncateFingerprint(t *testing.T) {
	assert.Equal(t, "12345678", TruncateFingerprint("123456789abcdef"))
	assert.Equal(t, "short", TruncateFingerprint("short"))
	assert.Equal(t, "", TruncateFingerprint(""))
}

func TestPollingWatcherLifecycle(t *testing.T) {
	w := NewPollingWatcher(DefaultConfig().WithPollInterval(10 * time.Millisecond))

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	// 重复启动安全
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())

	// 重复停止安全
	require.NoError(t, w.Stop())
}
