package sipreconnect

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/eddyslarez/sip-library-android-sub002/internal/core/netobserver"
	"github.com/eddyslarez/sip-library-android-sub002/internal/core/reconnect"
	"github.com/eddyslarez/sip-library-android-sub002/internal/core/service"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

var fxLogger = log.Logger("sipreconnect/fx")

// buildFxApp 构建 Fx 应用
//
// 组装三个内部模块，按依赖顺序加载：
//  1. netobserver: 网络观察器（无依赖）
//  2. reconnect: 重连协调器（消费观察器的可用性查询）
//  3. service: 编排服务（绑定前两者）
func buildFxApp(opts *options, engine *Engine) *fx.App {
	modules := []fx.Option{}

	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置注入（仅注入用户显式设置的配置，其余用各模块默认值）
	// ════════════════════════════════════════════════════════════════════════
	if opts.observerConfig != nil {
		modules = append(modules, fx.Supply(opts.observerConfig))
	}
	if opts.reconnectConfig != nil {
		modules = append(modules, fx.Supply(opts.reconnectConfig))
	}
	if opts.serviceConfig != nil {
		modules = append(modules, fx.Supply(opts.serviceConfig))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 外部依赖注入
	// ════════════════════════════════════════════════════════════════════════
	if opts.query != nil {
		query := opts.query
		modules = append(modules, fx.Provide(func() interfaces.RegistrationStateQuery {
			return query
		}))
	}
	if opts.callback != nil {
		callback := opts.callback
		modules = append(modules, fx.Provide(func() interfaces.ReconnectionCallback {
			return callback
		}))
	}
	if opts.watcher != nil {
		watcher := opts.watcher
		modules = append(modules, fx.Provide(func() interfaces.SystemWatcher {
			return watcher
		}))
	}
	if opts.probe != nil {
		probe := opts.probe
		modules = append(modules, fx.Provide(func() interfaces.ReachabilityProbe {
			return probe
		}))
	}
	if opts.clk != nil {
		clk := opts.clk
		modules = append(modules, fx.Provide(func() clock.Clock {
			return clk
		}))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 核心模块（按依赖顺序）
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		netobserver.Module(),

		// 协调器通过可用性查询接口消费观察器
		fx.Provide(func(o interfaces.NetworkObserver) interfaces.NetworkAvailability {
			return o
		}),

		reconnect.Module(),
		service.Module(),
	)

	// 状态变更回调注册
	if len(opts.statusCallbacks) > 0 {
		callbacks := opts.statusCallbacks
		modules = append(modules, fx.Invoke(func(c interfaces.ReconnectionCoordinator) {
			for _, cb := range callbacks {
				c.OnStatusChanged(cb)
			}
		}))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 组件提取与日志
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Populate(
		&engine.observer,
		&engine.coordinator,
		&engine.service,
	))

	if opts.verboseFx {
		modules = append(modules, fx.WithLogger(func() fxevent.Logger {
			zapLogger, err := zap.NewDevelopment()
			if err != nil {
				return &fxevent.ZapLogger{Logger: zap.NewNop()}
			}
			return &fxevent.ZapLogger{Logger: zapLogger}
		}))
	} else {
		// 默认静默 Fx 自身的事件日志
		modules = append(modules, fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}))
	}

	fxLogger.Debug("Fx 应用已组装", "modules", len(modules))
	return fx.New(modules...)
}
