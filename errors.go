package sipreconnect

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 引擎未启动
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted 引擎已启动
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = errors.New("engine closed")

	// ErrMissingCallback 缺少重连回调
	ErrMissingCallback = errors.New("reconnection callback is required")
)
