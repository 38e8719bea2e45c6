// Package reconnect 提供按账户的重连协调功能
//
// 核心职责：为每个账户键运行一个有界、可取消、指数退避的重试循环，
// 并在循环全程持续复核"重连是否仍然必要、是否仍然可能"。
//
// 关键约束：
//   - 任意时刻每个账户键至多存在一个活跃循环（先取消并等待旧循环
//     退出，再启动新循环）
//   - 状态以不可变快照持有，更新时整体替换，避免撕裂读
//   - 取消是协作式的：shouldStop 标志 + context 取消在每个循环
//     迭代和每个退避切片处检查，终止时延以切片粒度为界
//   - 成功缓存对真实成功后短时间内的重复触发做去抖
//
// 真正的重连动作委托给注入的 ReconnectionCallback；成功与否只通过
// 注入的 RegistrationStateQuery 观察。
package reconnect
