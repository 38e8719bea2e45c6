// Package service 提供重连编排服务
package service

import (
	"strings"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
)

// ============================================================================
//                              错误分类
// ============================================================================

// classifyFailure 按错误文本推断注册失败的重连原因
//
// 匹配网络错误子串的失败归为传输问题，其余按普通注册失败处理。
// 分类只影响触发原因与等待策略，不影响重试本身。
func classifyFailure(errText string, patterns []string) interfaces.ReconnectionReason {
	if isNetworkError(errText, patterns) {
		return interfaces.ReasonTransportDisconnected
	}

	lower := strings.ToLower(errText)
	switch {
	case strings.Contains(lower, "auth"),
		strings.Contains(lower, "401"),
		strings.Contains(lower, "403"),
		strings.Contains(lower, "407"):
		return interfaces.ReasonAuthFailed
	case strings.Contains(lower, "expired"):
		return interfaces.ReasonRegistrationExpired
	case strings.Contains(lower, "500"),
		strings.Contains(lower, "502"),
		strings.Contains(lower, "503"):
		return interfaces.ReasonServerError
	default:
		return interfaces.ReasonRegistrationFailed
	}
}

// isNetworkError 检查错误文本是否匹配网络错误子串
func isNetworkError(errText string, patterns []string) bool {
	if errText == "" {
		return false
	}
	lower := strings.ToLower(errText)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
