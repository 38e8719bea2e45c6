// Package netobserver 提供网络状态观察功能
//
// 本文件实现公网可达性探测。
package netobserver

import (
	"context"
	"net"
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              DialProbe
// ============================================================================

// DialProbe 基于 TCP 短连接的可达性探测器
type DialProbe struct {
	address string
	timeout time.Duration
}

// 确保实现接口
var _ interfaces.ReachabilityProbe = (*DialProbe)(nil)

// NewDialProbe 创建拨号探测器
func NewDialProbe(address string, timeout time.Duration) *DialProbe {
	if address == "" {
		address = DefaultConfig().ProbeAddress
	}
	if timeout <= 0 {
		timeout = DefaultConfig().ProbeTimeout
	}
	return &DialProbe{address: address, timeout: timeout}
}

// Probe 向目标端点发起一次短 TCP 连接
func (p *DialProbe) Probe(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		logger.Debug("可达性探测失败", "address", p.address, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}
