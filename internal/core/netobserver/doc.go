// Package netobserver 提供网络状态观察功能
//
// 核心职责：为引擎其余部分产出单一、去重的连通性事件流。
//
// 组成：
//   - Observer：包装系统连通性设施，派生规范化的 NetworkStatus 快照，
//     对快照做差异比较后向订阅者抛出恰好一个事件
//   - PollingWatcher：interfaces.SystemWatcher 的默认跨平台轮询实现
//     （外部手动通知实现见 pkg/lib/netwatch）
//   - DialProbe：interfaces.ReachabilityProbe 的默认 TCP 短连接实现
//
// 使用示例：
//
//	obs := netobserver.NewObserver(nil)
//	events := obs.Subscribe()
//	obs.Start(ctx)
//
//	for ev := range events {
//	    log.Printf("网络事件: %s", ev.Type)
//	}
package netobserver
