// Package reconnect 提供按账户的重连协调功能
package reconnect

import (
	"context"
	"time"

	"github.com/eddyslarez/sip-library-android-sub002/pkg/interfaces"
	"github.com/eddyslarez/sip-library-android-sub002/pkg/lib/log"
)

// ============================================================================
//                              重试循环
// ============================================================================

// waitResult 可中断等待的结果
type waitResult int

const (
	waitProceed waitResult = iota // 等待完成，继续尝试
	waitCancelled
	waitRegistered  // 等待期间外部已注册成功
	waitNetworkLost // 等待期间网络丢失
)

// runLoop 账户的重试循环主体
//
// 每次迭代：前置检查 → 退避等待 → 执行尝试 → 轮询结果。
// 所有状态写入都经 UpdateIfLoop 绑定到本循环，后继循环的
// 状态不会被垂死的旧循环覆盖。
func (c *Coordinator) runLoop(ctx context.Context, h *loopHandle, accountKey string, reason interfaces.ReconnectionReason) {
	defer c.wg.Done()
	defer close(h.done)
	defer loopsActive.Dec()
	defer func() {
		c.mu.Lock()
		if c.loops[accountKey] == h {
			delete(c.loops, accountKey)
		}
		c.mu.Unlock()
	}()

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		// 前置检查
		if c.loopCancelled(ctx, accountKey, h.id) {
			c.finishCancelled(accountKey, h.id)
			return
		}
		if c.queryState(accountKey).IsRegistered() {
			c.finishSuccess(accountKey, h.id, attempt-1)
			return
		}
		if !c.networkOK() {
			c.parkWaitingFromLoop(accountKey, h.id)
			return
		}

		// 退避等待
		delay := c.backoff.Delay(attempt)
		logger.Debug("退避等待",
			"account", log.TruncateID(accountKey, 16),
			"attempt", attempt,
			"delay", delay)

		switch c.waitInterruptible(ctx, accountKey, h.id, delay) {
		case waitCancelled:
			c.finishCancelled(accountKey, h.id)
			return
		case waitRegistered:
			c.finishSuccess(accountKey, h.id, attempt-1)
			return
		case waitNetworkLost:
			c.parkWaitingFromLoop(accountKey, h.id)
			return
		}

		// 执行尝试
		now := c.clk.Now()
		nextDelay := c.backoff.Delay(attempt + 1)
		st, ok := c.states.UpdateIfLoop(accountKey, h.id, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
			st.Attempts = attempt
			st.LastAttemptTime = now
			st.NextAttemptTime = now.Add(nextDelay)
			st.CurrentBackoff = nextDelay
			st.Timestamp = now
			return st
		})
		if !ok {
			// 状态已被后继取代，本循环无事可做
			return
		}
		c.notifyStatus(accountKey, st)

		logger.Info("执行重连尝试",
			"account", log.TruncateID(accountKey, 16),
			"attempt", attempt,
			"max_attempts", c.config.MaxAttempts,
			"reason", reason.String())

		attemptsTotal.WithLabelValues(reason.String()).Inc()
		c.invokeReconnectionCallback(accountKey, reason)

		// 轮询尝试结果
		switch c.pollRegistration(ctx, accountKey, h.id) {
		case waitCancelled:
			c.finishCancelled(accountKey, h.id)
			return
		case waitRegistered:
			c.finishSuccess(accountKey, h.id, attempt)
			return
		case waitNetworkLost:
			c.parkWaitingFromLoop(accountKey, h.id)
			return
		}

		c.recordAttemptFailure(accountKey, h.id)
	}

	c.finishExhausted(accountKey, h.id)
}

// loopCancelled 检查循环是否被取消或被标记终止
func (c *Coordinator) loopCancelled(ctx context.Context, accountKey, loopID string) bool {
	if ctx.Err() != nil {
		return true
	}
	st, ok := c.states.Get(accountKey)
	return ok && st.LoopID == loopID && st.ShouldStop
}

// waitInterruptible 可中断的退避等待
//
// 等待被切成 TickInterval 粒度的片段，每个切片末尾复查取消标记、
// 外部注册状态和网络可用性，保证响应延迟有界。
func (c *Coordinator) waitInterruptible(ctx context.Context, accountKey, loopID string, d time.Duration) waitResult {
	deadline := c.clk.Now().Add(d)
	ticker := c.clk.Ticker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		if c.loopCancelled(ctx, accountKey, loopID) {
			return waitCancelled
		}
		if c.queryState(accountKey).IsRegistered() {
			return waitRegistered
		}
		if !c.networkOK() {
			return waitNetworkLost
		}
		if !c.clk.Now().Before(deadline) {
			return waitProceed
		}

		select {
		case <-ctx.Done():
			return waitCancelled
		case <-ticker.C:
		}
	}
}

// pollRegistration 尝试后的结果轮询窗口
//
// 先留出握手宽限，再做固定次数的间隔复查。窗口内观察到注册
// 成功即判定本次尝试成功。
func (c *Coordinator) pollRegistration(ctx context.Context, accountKey, loopID string) waitResult {
	if !c.sleep(ctx, c.config.AttemptGraceDelay) {
		return waitCancelled
	}

	for i := 0; i < c.config.RegistrationPollChecks; i++ {
		if c.loopCancelled(ctx, accountKey, loopID) {
			return waitCancelled
		}
		if c.queryState(accountKey).IsRegistered() {
			return waitRegistered
		}
		if !c.networkOK() {
			return waitNetworkLost
		}
		if i < c.config.RegistrationPollChecks-1 {
			if !c.sleep(ctx, c.config.RegistrationPollInterval) {
				return waitCancelled
			}
		}
	}
	return waitProceed
}

// recordAttemptFailure 记录单次尝试失败
func (c *Coordinator) recordAttemptFailure(accountKey, loopID string) {
	now := c.clk.Now()
	if st, ok := c.states.UpdateIfLoop(accountKey, loopID, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.LastError = ErrAttemptFailed
		st.Timestamp = now
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}
}

// ============================================================================
//                              终止路径
// ============================================================================

// finishSuccess 循环以成功收尾
func (c *Coordinator) finishSuccess(accountKey, loopID string, attempts int) {
	c.cache.MarkSuccess(accountKey)
	loopOutcomesTotal.WithLabelValues(outcomeSucceeded).Inc()

	now := c.clk.Now()
	if st, ok := c.states.UpdateIfLoop(accountKey, loopID, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.IsActive = false
		st.ShouldStop = true
		st.LastError = nil
		st.Timestamp = now
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}

	logger.Info("重连成功",
		"account", log.TruncateID(accountKey, 16),
		"attempts", attempts)

	c.scheduleRemoval(accountKey, loopID)
}

// finishCancelled 循环被取消收尾
func (c *Coordinator) finishCancelled(accountKey, loopID string) {
	loopOutcomesTotal.WithLabelValues(outcomeCancelled).Inc()

	now := c.clk.Now()
	if st, ok := c.states.UpdateIfLoop(accountKey, loopID, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.IsActive = false
		st.ShouldStop = true
		st.Timestamp = now
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}

	logger.Debug("重试循环已取消", "account", log.TruncateID(accountKey, 16))

	c.scheduleRemoval(accountKey, loopID)
}

// finishExhausted 尝试次数耗尽收尾
func (c *Coordinator) finishExhausted(accountKey, loopID string) {
	loopOutcomesTotal.WithLabelValues(outcomeExhausted).Inc()

	now := c.clk.Now()
	if st, ok := c.states.UpdateIfLoop(accountKey, loopID, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.IsActive = false
		st.ShouldStop = true
		st.LastError = ErrAttemptsExhausted
		st.Timestamp = now
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}

	logger.Warn("重连尝试次数耗尽",
		"account", log.TruncateID(accountKey, 16),
		"max_attempts", c.config.MaxAttempts)

	c.scheduleRemoval(accountKey, loopID)
}

// parkWaitingFromLoop 循环因网络丢失转入等待状态
//
// 等待状态保留尝试计数且不调度移除；只有新的外部触发
// 才能恢复重连。
func (c *Coordinator) parkWaitingFromLoop(accountKey, loopID string) {
	loopOutcomesTotal.WithLabelValues(outcomeWaiting).Inc()

	now := c.clk.Now()
	if st, ok := c.states.UpdateIfLoop(accountKey, loopID, func(st interfaces.ReconnectionState) interfaces.ReconnectionState {
		st.IsActive = false
		st.ShouldStop = true
		st.NetworkAvailable = false
		st.LastError = ErrNetworkUnavailable
		st.Timestamp = now
		return st
	}); ok {
		c.notifyStatus(accountKey, st)
	}

	logger.Info("网络丢失，循环转入等待状态",
		"account", log.TruncateID(accountKey, 16))
}
