// Package netobserver 提供网络状态观察功能
//
// 系统信号源接口（SystemWatcher、RawEvent）定义在 pkg/interfaces，
// 可公开构造的实现（ManualWatcher、NoOpWatcher）位于 pkg/lib/netwatch。
package netobserver

import (
	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// NewSystemWatcher 创建系统监听器
//
// 默认使用跨平台的轮询实现；宿主平台可注入 netwatch.ManualWatcher
// 以外部通知方式驱动。
func NewSystemWatcher(config *Config) interfaces.SystemWatcher {
	if config == nil {
		config = DefaultConfig()
	}
	return NewPollingWatcher(config)
}
