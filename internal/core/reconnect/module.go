// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("reconnect",
		fx.Provide(ProvideCoordinator),
		fx.Invoke(registerLifecycle),
	)
}

// coordinatorParams 协调器依赖参数
type coordinatorParams struct {
	fx.In

	Config   *interfaces.ReconnectionConfig    `optional:"true"`
	Query    interfaces.RegistrationStateQuery `optional:"true"`
	Callback interfaces.ReconnectionCallback   `optional:"true"`
	Network  interfaces.NetworkAvailability    `optional:"true"`
	Clock    clock.Clock                       `optional:"true"`
}

// ProvideCoordinator 提供重连协调器
func ProvideCoordinator(params coordinatorParams) interfaces.ReconnectionCoordinator {
	var config *Config
	if params.Config != nil {
		config = FromInterfaceConfig(*params.Config)
	} else {
		config = DefaultConfig()
	}
	c := NewCoordinator(config)

	if params.Query != nil {
		c.SetRegistrationQuery(params.Query)
	}
	if params.Callback != nil {
		c.SetReconnectionCallback(params.Callback)
	}
	if params.Network != nil {
		c.SetNetworkAvailability(params.Network)
	}
	if params.Clock != nil {
		c.SetClock(params.Clock)
	}

	return c
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC          fx.Lifecycle
	Coordinator interfaces.ReconnectionCoordinator
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		// OnStart 的 ctx 仅覆盖启动阶段，循环需要长生命周期 context
		OnStart: func(_ context.Context) error {
			return input.Coordinator.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			input.Coordinator.StopAll()
			return input.Coordinator.Stop()
		},
	})
}
