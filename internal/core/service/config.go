// Package service 提供重连编排服务
package service

import (
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              服务配置
// ============================================================================

// Config 编排服务配置
type Config struct {
	// SettleDelay 网络恢复事件后的稳定延迟
	// 评估前等待，避免对即将再次抖动的网络做出反应
	// 默认值: 4s
	SettleDelay time.Duration

	// NetworkErrorPatterns 网络相关错误的匹配子串（小写）
	NetworkErrorPatterns []string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	def := interfaces.DefaultServiceConfig()
	return &Config{
		SettleDelay:          def.SettleDelay,
		NetworkErrorPatterns: def.NetworkErrorPatterns,
	}
}

// Validate 验证配置
//
// 只会修正无效值为默认值，永远返回 nil。
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if len(c.NetworkErrorPatterns) == 0 {
		c.NetworkErrorPatterns = def.NetworkErrorPatterns
	}
	return nil
}

// ToInterfaceConfig 转换为接口配置
func (c *Config) ToInterfaceConfig() interfaces.ServiceConfig {
	return interfaces.ServiceConfig{
		SettleDelay:          c.SettleDelay,
		NetworkErrorPatterns: c.NetworkErrorPatterns,
	}
}

// FromInterfaceConfig 从接口配置创建
func FromInterfaceConfig(cfg interfaces.ServiceConfig) *Config {
	return &Config{
		SettleDelay:          cfg.SettleDelay,
		NetworkErrorPatterns: cfg.NetworkErrorPatterns,
	}
}

// WithSettleDelay 设置稳定延迟
func (c *Config) WithSettleDelay(d time.Duration) *Config {
	c.SettleDelay = d
	return c
}

// WithNetworkErrorPatterns 设置网络错误匹配子串
func (c *Config) WithNetworkErrorPatterns(patterns []string) *Config {
	c.NetworkErrorPatterns = patterns
	return c
}
