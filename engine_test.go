package sipreconnect

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/netwatch"
)

// fakeSignaling 模拟信令层：注册状态 + 重连回调记录
type fakeSignaling struct {
	mu     sync.Mutex
	states map[string]interfaces.RegistrationState
	calls  []string
}

func newFakeSignaling() *fakeSignaling {
	return &fakeSignaling{states: make(map[string]interfaces.RegistrationState)}
}

func (f *fakeSignaling) setState(key string, st interfaces.RegistrationState) {
	f.mu.Lock()
	f.states[key] = st
	f.mu.Unlock()
}

func (f *fakeSignaling) query(key string) interfaces.RegistrationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[key]
}

func (f *fakeSignaling) onReconnect(key string, _ interfaces.ReconnectionReason) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
}

func (f *fakeSignaling) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fastReconnectConfig 毫秒级协调器配置
func fastReconnectConfig() interfaces.ReconnectionConfig {
	cfg := interfaces.DefaultReconnectionConfig()
	cfg.MaxAttempts = 3
	cfg.BaseBackoff = 20 * time.Millisecond
	cfg.MaxBackoff = 80 * time.Millisecond
	cfg.TickInterval = 5 * time.Millisecond
	cfg.DoubleCheckGap = 10 * time.Millisecond
	cfg.AttemptGraceDelay = 5 * time.Millisecond
	cfg.RegistrationPollInterval = 10 * time.Millisecond
	cfg.RegistrationPollChecks = 2
	cfg.RemovalGrace = 30 * time.Millisecond
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *fakeSignaling, *netwatch.ManualWatcher) {
	t.Helper()

	signaling := newFakeSignaling()
	watcher := netwatch.NewManualWatcher(16)
	probe := netwatch.NewMockProbe()

	observerCfg := interfaces.DefaultNetworkObserverConfig()
	observerCfg.SettleDelay = 20 * time.Millisecond

	serviceCfg := interfaces.DefaultServiceConfig()
	serviceCfg.SettleDelay = 20 * time.Millisecond

	engine, err := New(
		WithRegistrationStateQueryFunc(signaling.query),
		WithReconnectionCallbackFunc(signaling.onReconnect),
		WithSystemWatcher(watcher),
		WithReachabilityProbe(probe),
		WithNetworkObserverConfig(observerCfg),
		WithReconnectionConfig(fastReconnectConfig()),
		WithServiceConfig(serviceCfg),
	)
	require.NoError(t, err)

	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(func() { _ = engine.Close() })

	return engine, signaling, watcher
}

const testAccount = "alice@example.com"

func TestNewRequiresCallback(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrMissingCallback)
}

func TestEngineLifecycle(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	assert.Equal(t, StateRunning, engine.State())

	// 重复启动被拒绝
	assert.ErrorIs(t, engine.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, engine.Stop(context.Background()))
	assert.Equal(t, StateStopped, engine.State())

	// 停止后幂等
	require.NoError(t, engine.Stop(context.Background()))

	require.NoError(t, engine.Close())
	assert.Equal(t, StateClosed, engine.State())

	// 关闭后拒绝启动
	assert.ErrorIs(t, engine.Start(context.Background()), ErrEngineClosed)
}

func TestEngineConcurrentStart(t *testing.T) {
	signaling := newFakeSignaling()

	engine, err := New(
		WithReconnectionCallbackFunc(signaling.onReconnect),
		WithSystemWatcher(netwatch.NewManualWatcher(4)),
		WithReachabilityProbe(netwatch.NewMockProbe()),
	)
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()

	// 并发启动只允许一方构建并启动内部应用
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = engine.Start(context.Background())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, e := range errs {
		if e == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, e, ErrAlreadyStarted)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, StateRunning, engine.State())

	require.NoError(t, engine.Stop(context.Background()))
}

func TestEngineRegisterAccounts(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.RegisterAccount(testAccount)
	engine.RegisterAccount("bob@example.com")
	assert.Len(t, engine.MonitoredAccounts(), 2)

	engine.UnregisterAccount(testAccount)
	assert.Len(t, engine.MonitoredAccounts(), 1)

	engine.UnregisterAll()
	assert.Empty(t, engine.MonitoredAccounts())
}

func TestEngineInitialAccounts(t *testing.T) {
	signaling := newFakeSignaling()

	engine, err := New(
		WithReconnectionCallbackFunc(signaling.onReconnect),
		WithSystemWatcher(netwatch.NewManualWatcher(4)),
		WithReachabilityProbe(netwatch.NewMockProbe()),
		WithAccounts(testAccount, "bob@example.com"),
	)
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))
	defer func() { _ = engine.Close() }()

	assert.Len(t, engine.MonitoredAccounts(), 2)
}

func TestEngineReconnectsOnFailureReport(t *testing.T) {
	engine, signaling, watcher := newTestEngine(t)

	// 网络在线
	watcher.NotifyAvailable(interfaces.NetworkStatus{Class: interfaces.NetworkWiFi, HasInternet: true})
	require.Eventually(t, func() bool {
		return engine.IsNetworkAvailable()
	}, 2*time.Second, 5*time.Millisecond)

	engine.RegisterAccount(testAccount)
	engine.NotifyRegistrationFailed(testAccount, "503 Service Unavailable")

	// 重试循环驱动信令层回调
	require.Eventually(t, func() bool {
		return signaling.callCount() >= 1
	}, 3*time.Second, 5*time.Millisecond)

	// 信令层确认成功后循环收敛
	signaling.setState(testAccount, interfaces.RegistrationOK)
	require.Eventually(t, func() bool {
		return engine.ActiveReconnectionCount() == 0
	}, 3*time.Second, 5*time.Millisecond)
}

func TestEngineMarkConnectedSuppresses(t *testing.T) {
	engine, signaling, watcher := newTestEngine(t)

	watcher.NotifyAvailable(interfaces.NetworkStatus{Class: interfaces.NetworkWiFi, HasInternet: true})
	require.Eventually(t, func() bool {
		return engine.IsNetworkAvailable()
	}, 2*time.Second, 5*time.Millisecond)

	engine.RegisterAccount(testAccount)
	engine.MarkConnected(testAccount)

	// 抑制窗口内的失败上报被忽略
	engine.NotifyRegistrationFailed(testAccount, "timeout")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, signaling.callCount())
}

func TestEngineNetworkLossCreatesWaitingStates(t *testing.T) {
	engine, _, watcher := newTestEngine(t)

	watcher.NotifyAvailable(interfaces.NetworkStatus{Class: interfaces.NetworkWiFi, HasInternet: true})
	require.Eventually(t, func() bool {
		return engine.IsNetworkAvailable()
	}, 2*time.Second, 5*time.Millisecond)

	engine.RegisterAccount(testAccount)

	watcher.NotifyLost()

	require.Eventually(t, func() bool {
		states := engine.ReconnectionStates()
		st, ok := states[testAccount]
		return ok && st.IsWaitingForNetwork()
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, engine.ActiveReconnectionCount())
}

func TestEngineQueriesWhenStopped(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.Stop(context.Background()))

	// 停止后所有查询返回零值，不 panic
	assert.Nil(t, engine.MonitoredAccounts())
	assert.Nil(t, engine.ReconnectionStates())
	assert.Equal(t, 0, engine.ActiveReconnectionCount())
	assert.False(t, engine.IsNetworkAvailable())
	assert.Nil(t, engine.SubscribeNetworkEvents())
	engine.RegisterAccount(testAccount) // 无操作
}
