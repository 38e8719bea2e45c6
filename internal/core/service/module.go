// Package service 提供重连编排服务
package service

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("service",
		fx.Provide(ProvideService),
		fx.Invoke(registerLifecycle),
	)
}

// serviceParams 服务依赖参数
type serviceParams struct {
	fx.In

	Config      *interfaces.ServiceConfig `optional:"true"`
	Clock       clock.Clock               `optional:"true"`
	Observer    interfaces.NetworkObserver
	Coordinator interfaces.ReconnectionCoordinator
}

// ProvideService 提供编排服务
func ProvideService(params serviceParams) interfaces.ReconnectionService {
	var config *Config
	if params.Config != nil {
		config = FromInterfaceConfig(*params.Config)
	} else {
		config = DefaultConfig()
	}
	svc := NewService(config, params.Observer, params.Coordinator)
	if params.Clock != nil {
		svc.SetClock(params.Clock)
	}
	return svc
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Service interfaces.ReconnectionService
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		// OnStart 的 ctx 仅覆盖启动阶段，服务需要长生命周期 context
		OnStart: func(_ context.Context) error {
			return input.Service.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			return input.Service.Stop()
		},
	})
}
