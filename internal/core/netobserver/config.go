// Package netobserver 提供网络状态观察功能
package netobserver

import (
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              观察器配置
// ============================================================================

// Config 网络观察器配置
type Config struct {
	// SettleDelay 系统上报 available 后的稳定延迟
	// 避免对仍在协商地址/DNS 的网络采取行动
	// 默认值: 1s
	SettleDelay time.Duration

	// ProbeAddress 可达性探测目标（host:port）
	// 默认值: connectivitycheck.gstatic.com:443
	ProbeAddress string

	// ProbeTimeout 可达性探测超时
	// 默认值: 5s
	ProbeTimeout time.Duration

	// PollInterval 轮询监听器的轮询间隔
	// 默认值: 5s
	PollInterval time.Duration

	// EventBufferSize 事件通道缓冲区大小
	// 默认值: 16
	EventBufferSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		SettleDelay:     1 * time.Second,
		ProbeAddress:    "connectivitycheck.gstatic.com:443",
		ProbeTimeout:    5 * time.Second,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}

// Validate 验证配置
//
// 只会修正无效值为默认值，永远返回 nil。
func (c *Config) Validate() error {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1 * time.Second
	}
	if c.ProbeAddress == "" {
		c.ProbeAddress = "connectivitycheck.gstatic.com:443"
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 16
	}
	return nil
}

// ToInterfaceConfig 转换为接口配置
func (c *Config) ToInterfaceConfig() interfaces.NetworkObserverConfig {
	return interfaces.NetworkObserverConfig{
		SettleDelay:     c.SettleDelay,
		ProbeAddress:    c.ProbeAddress,
		ProbeTimeout:    c.ProbeTimeout,
		PollInterval:    c.PollInterval,
		EventBufferSize: c.EventBufferSize,
	}
}

// FromInterfaceConfig 从接口配置创建
func FromInterfaceConfig(cfg interfaces.NetworkObserverConfig) *Config {
	return &Config{
		SettleDelay:     cfg.SettleDelay,
		ProbeAddress:    cfg.ProbeAddress,
		ProbeTimeout:    cfg.ProbeTimeout,
		PollInterval:    cfg.PollInterval,
		EventBufferSize: cfg.EventBufferSize,
	}
}

// WithSettleDelay 设置稳定延迟
func (c *Config) WithSettleDelay(d time.Duration) *Config {
	c.SettleDelay = d
	return c
}

// WithProbeAddress 设置探测目标
func (c *Config) WithProbeAddress(addr string) *Config {
	c.ProbeAddress = addr
	return c
}

// WithProbeTimeout 设置探测超时
func (c *Config) WithProbeTimeout(d time.Duration) *Config {
	c.ProbeTimeout = d
	return c
}

// WithPollInterval 设置轮询间隔
func (c *Config) WithPollInterval(d time.Duration) *Config {
	c.PollInterval = d
	return c
}
