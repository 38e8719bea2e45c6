// Package netobserver 提供网络状态观察功能
package netobserver

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("netobserver",
		fx.Provide(ProvideObserver),
		fx.Invoke(registerLifecycle),
	)
}

// observerParams 观察器依赖参数
type observerParams struct {
	fx.In

	Config  *interfaces.NetworkObserverConfig `optional:"true"`
	Watcher interfaces.SystemWatcher          `optional:"true"`
	Probe   interfaces.ReachabilityProbe      `optional:"true"`
	Clock   clock.Clock                       `optional:"true"`
}

// ProvideObserver 提供网络观察器
func ProvideObserver(params observerParams) interfaces.NetworkObserver {
	var config *Config
	if params.Config != nil {
		config = FromInterfaceConfig(*params.Config)
	} else {
		config = DefaultConfig()
	}
	o := NewObserver(config)

	if params.Watcher != nil {
		o.SetSystemWatcher(params.Watcher)
	}
	if params.Probe != nil {
		o.SetProbe(params.Probe)
	}
	if params.Clock != nil {
		o.SetClock(params.Clock)
	}

	return o
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC       fx.Lifecycle
	Observer interfaces.NetworkObserver
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		// OnStart 的 ctx 仅覆盖启动阶段，观察器需要长生命周期 context
		OnStart: func(_ context.Context) error {
			return input.Observer.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			return input.Observer.Stop()
		},
	})
}
