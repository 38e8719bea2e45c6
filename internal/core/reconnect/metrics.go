// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
//                              指标
// ============================================================================

var (
	// attemptsTotal 按原因统计的重连尝试总数
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sipreconnect",
		Subsystem: "coordinator",
		Name:      "attempts_total",
		Help:      "Total reconnection attempts performed, by trigger reason.",
	}, []string{"reason"})

	// loopsActive 当前活跃的重试循环数
	loopsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sipreconnect",
		Subsystem: "coordinator",
		Name:      "loops_active",
		Help:      "Number of retry loops currently running.",
	})

	// loopOutcomesTotal 按结局统计的循环终止总数
	loopOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sipreconnect",
		Subsystem: "coordinator",
		Name:      "loop_outcomes_total",
		Help:      "Total retry loop terminations, by outcome.",
	}, []string{"outcome"})
)

// 循环结局标签
const (
	outcomeSucceeded = "succeeded"
	outcomeExhausted = "exhausted"
	outcomeCancelled = "cancelled"
	outcomeWaiting   = "waiting_for_network"
)
