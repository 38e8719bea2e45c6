// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              协调器配置
// ============================================================================

// Config 重连协调器配置
type Config struct {
	// MaxAttempts 最大尝试次数
	// 默认值: 8
	MaxAttempts int

	// BaseBackoff 退避基准时长
	// 默认值: 3s
	BaseBackoff time.Duration

	// MaxBackoff 退避上限
	// 默认值: 45s
	MaxBackoff time.Duration

	// TickInterval 可中断等待的切片粒度
	// 默认值: 1s
	TickInterval time.Duration

	// SuppressionWindow 成功后的抑制窗口
	// 默认值: 30s
	SuppressionWindow time.Duration

	// StaleCacheTTL 成功缓存条目的过期回收时长
	// 默认值: 5m
	StaleCacheTTL time.Duration

	// SuccessCacheSize 成功缓存容量
	// 默认值: 128
	SuccessCacheSize int

	// DoubleCheckGap 注册状态双重检查的间隔
	// 默认值: 1s
	DoubleCheckGap time.Duration

	// AttemptGraceDelay 尝试后轮询前的初始宽限
	// 给外部握手留出完成时间
	// 默认值: 2s
	AttemptGraceDelay time.Duration

	// RegistrationPollInterval 尝试后注册状态轮询间隔
	// 默认值: 3s
	RegistrationPollInterval time.Duration

	// RegistrationPollChecks 尝试后注册状态轮询次数
	// 默认值: 5
	RegistrationPollChecks int

	// RemovalGrace 循环终止后状态延迟移除的宽限期
	// 允许迟到的状态读取
	// 默认值: 2s
	RemovalGrace time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:              8,
		BaseBackoff:              3 * time.Second,
		MaxBackoff:               45 * time.Second,
		TickInterval:             1 * time.Second,
		SuppressionWindow:        30 * time.Second,
		StaleCacheTTL:            5 * time.Minute,
		SuccessCacheSize:         128,
		DoubleCheckGap:           1 * time.Second,
		AttemptGraceDelay:        2 * time.Second,
		RegistrationPollInterval: 3 * time.Second,
		RegistrationPollChecks:   5,
		RemovalGrace:             2 * time.Second,
	}
}

// Validate 验证配置
//
// 只会修正无效值为默认值，永远返回 nil。
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = def.BaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = c.BaseBackoff
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.SuppressionWindow <= 0 {
		c.SuppressionWindow = def.SuppressionWindow
	}
	if c.StaleCacheTTL <= 0 {
		c.StaleCacheTTL = def.StaleCacheTTL
	}
	if c.SuccessCacheSize <= 0 {
		c.SuccessCacheSize = def.SuccessCacheSize
	}
	if c.DoubleCheckGap <= 0 {
		c.DoubleCheckGap = def.DoubleCheckGap
	}
	if c.AttemptGraceDelay < 0 {
		c.AttemptGraceDelay = def.AttemptGraceDelay
	}
	if c.RegistrationPollInterval <= 0 {
		c.RegistrationPollInterval = def.RegistrationPollInterval
	}
	if c.RegistrationPollChecks <= 0 {
		c.RegistrationPollChecks = def.RegistrationPollChecks
	}
	if c.RemovalGrace < 0 {
		c.RemovalGrace = def.RemovalGrace
	}
	return nil
}

// ToInterfaceConfig 转换为接口配置
func (c *Config) ToInterfaceConfig() interfaces.ReconnectionConfig {
	return interfaces.ReconnectionConfig{
		MaxAttempts:              c.MaxAttempts,
		BaseBackoff:              c.BaseBackoff,
		MaxBackoff:               c.MaxBackoff,
		TickInterval:             c.TickInterval,
		SuppressionWindow:        c.SuppressionWindow,
		StaleCacheTTL:            c.StaleCacheTTL,
		DoubleCheckGap:           c.DoubleCheckGap,
		AttemptGraceDelay:        c.AttemptGraceDelay,
		RegistrationPollInterval: c.RegistrationPollInterval,
		RegistrationPollChecks:   c.RegistrationPollChecks,
		RemovalGrace:             c.RemovalGrace,
	}
}

// FromInterfaceConfig 从接口配置创建
func FromInterfaceConfig(cfg interfaces.ReconnectionConfig) *Config {
	return &Config{
		MaxAttempts:              cfg.MaxAttempts,
		BaseBackoff:              cfg.BaseBackoff,
		MaxBackoff:               cfg.MaxBackoff,
		TickInterval:             cfg.TickInterval,
		SuppressionWindow:        cfg.SuppressionWindow,
		StaleCacheTTL:            cfg.StaleCacheTTL,
		SuccessCacheSize:         DefaultConfig().SuccessCacheSize,
		DoubleCheckGap:           cfg.DoubleCheckGap,
		AttemptGraceDelay:        cfg.AttemptGraceDelay,
		RegistrationPollInterval: cfg.RegistrationPollInterval,
		RegistrationPollChecks:   cfg.RegistrationPollChecks,
		RemovalGrace:             cfg.RemovalGrace,
	}
}

// WithMaxAttempts 设置最大尝试次数
func (c *Config) WithMaxAttempts(n int) *Config {
	c.MaxAttempts = n
	return c
}

// WithBackoff 设置退避基准与上限
func (c *Config) WithBackoff(base, max time.Duration) *Config {
	c.BaseBackoff = base
	c.MaxBackoff = max
	return c
}

// WithSuppressionWindow 设置抑制窗口
func (c *Config) WithSuppressionWindow(d time.Duration) *Config {
	c.SuppressionWindow = d
	return c
}

// WithTickInterval 设置等待切片粒度
func (c *Config) WithTickInterval(d time.Duration) *Config {
	c.TickInterval = d
	return c
}
