// Package sipreconnect 实现网络感知的重连引擎
//
// 为基于注册的信令客户端（如 SIP）提供连接弹性层：
//   - 网络观察器：包装系统连通性设施，产出单一、去重的连通性事件流
//   - 重连协调器：按账户运行有界、可取消、指数退避的重试循环
//   - 编排服务：把两者绑定到动态账户集合上，统一对外集成面
//
// 引擎本身不做任何信令操作：真实的重连动作委托给注入的回调，
// 尝试结果通过注入的注册状态查询观察。
//
// 使用示例：
//
//	engine, err := sipreconnect.New(
//	    sipreconnect.WithRegistrationStateQuery(query),
//	    sipreconnect.WithReconnectionCallback(callback),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.RegisterAccount("alice@example.com")
//
//	// 信令层上报失败
//	engine.NotifyRegistrationFailed("alice@example.com", "503 Service Unavailable")
//
//	// 信令层确认成功
//	engine.MarkConnected("alice@example.com")
package sipreconnect
