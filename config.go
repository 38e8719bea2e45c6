package sipreconnect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// Config 引擎聚合配置
//
// 把三个组件的配置收拢为一个可整体加载/序列化的结构，
// 便于从文件或宿主配置系统注入。
type Config struct {
	// Observer 网络观察器配置
	Observer interfaces.NetworkObserverConfig `json:"observer"`

	// Reconnection 重连协调器配置
	Reconnection interfaces.ReconnectionConfig `json:"reconnection"`

	// Service 编排服务配置
	Service interfaces.ServiceConfig `json:"service"`
}

// DefaultConfig 返回默认聚合配置
func DefaultConfig() Config {
	return Config{
		Observer:     interfaces.DefaultNetworkObserverConfig(),
		Reconnection: interfaces.DefaultReconnectionConfig(),
		Service:      interfaces.DefaultServiceConfig(),
	}
}

// LoadConfig 从 JSON 文件加载聚合配置
//
// 文件中省略的字段保持默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// WithConfig 设置聚合配置
//
// 等价于分别调用三个 With*Config 选项。
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.observerConfig = &cfg.Observer
		o.reconnectConfig = &cfg.Reconnection
		o.serviceConfig = &cfg.Service
		return nil
	}
}
