// Package service 提供重连编排服务
//
// 将网络观察器与重连协调器绑定到动态账户集合上：
//   - 订阅网络事件，网络丢失时把所有监控账户转入等待状态
//   - 网络恢复经稳定延迟后，为未注册账户触发重连
//   - 接收信令层的失败上报，按错误文本分类后转发给协调器
//
// 是供库其余部分消费的统一集成面。
package service
