// Package interfaces 定义重连引擎的公共接口
//
// 本包是组件间的契约层，采用扁平命名（无层级前缀）：
//
// # 网络观察接口
//
//   - network.go   - NetworkStatus（网络快照）、NetworkEvent（连通性事件）、
//     NetworkObserver（网络观察器）
//   - watcher.go   - SystemWatcher（系统原始信号源）、RawEvent（原始信号）、
//     ReachabilityProbe（公网可达性探测）
//
// # 重连接口
//
//   - reconnect.go - ReconnectionState（重连状态快照）、
//     ReconnectionCoordinator（按账户的重试协调器）、
//     ReconnectionService（编排服务，统一集成面）、
//     RegistrationStateQuery / ReconnectionCallback（信令层注入点）
//
// # 依赖方向
//
//	Engine → Service → Coordinator ↔ Observer
//
// 禁止反向依赖。
//
// # 设计原则
//
// 本包仅包含接口与随接口走的值类型定义，实现位于 internal/core/
// 下对应目录。实现包通过 `var _ Iface = (*Impl)(nil)` 做编译期断言；
// 跨组件依赖只允许引用本包接口，不允许直接引用实现包。
package interfaces
