package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNetworkClassString(t *testing.T) {
	assert.Equal(t, "none", NetworkNone.String())
	assert.Equal(t, "wifi", NetworkWiFi.String())
	assert.Equal(t, "cellular", NetworkCellular.String())
	assert.Equal(t, "ethernet", NetworkEthernet.String())
	assert.Equal(t, "vpn", NetworkVPN.String())
	assert.Equal(t, "other", NetworkOther.String())
	assert.Equal(t, "unknown", NetworkClass(99).String())
}

func TestNetworkClassIsMetered(t *testing.T) {
	assert.True(t, NetworkCellular.IsMetered())
	assert.False(t, NetworkWiFi.IsMetered())
	assert.False(t, NetworkEthernet.IsMetered())
}

func TestNetworkStatusSameConnectivity(t *testing.T) {
	base := NetworkStatus{
		Connected:   true,
		Class:       NetworkWiFi,
		Address:     "192.168.1.10",
		HasInternet: true,
	}

	// 纯抖动不算差异
	jitter := base
	jitter.SignalStrength = -60
	jitter.LinkSpeedMbps = 300
	jitter.Timestamp = time.Now()
	assert.True(t, base.SameConnectivity(jitter))

	// 类别变化算差异
	changed := base
	changed.Class = NetworkCellular
	assert.False(t, base.SameConnectivity(changed))

	// 地址变化算差异
	changed = base
	changed.Address = "10.0.0.5"
	assert.False(t, base.SameConnectivity(changed))

	// 可达性变化算差异
	changed = base
	changed.HasInternet = false
	assert.False(t, base.SameConnectivity(changed))
}

func TestNetworkEventTypeString(t *testing.T) {
	assert.Equal(t, "connected", NetworkEventConnected.String())
	assert.Equal(t, "disconnected", NetworkEventDisconnected.String())
	assert.Equal(t, "changed", NetworkEventChanged.String())
	assert.Equal(t, "lost", NetworkEventLost.String())
	assert.Equal(t, "internet_changed", NetworkEventInternetChanged.String())
}

func TestDefaultNetworkObserverConfig(t *testing.T) {
	cfg := DefaultNetworkObserverConfig()
	assert.Equal(t, 1*time.Second, cfg.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.NotEmpty(t, cfg.ProbeAddress)
	assert.Positive(t, cfg.EventBufferSize)
}
