package transport

import (
	"context"
	"fmt"
	"time"
)

// CheckHealth 一次性检查节点是否可用（eth_chainId 成功即视为存活）
func CheckHealth(ctx context.Context, t Transport) error {
	if _, err := t.Call(ctx, MethodChainID); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// WaitForNodeReady 等待节点就绪
//
// 每 interval 探测一次，直到探测成功、timeout 到期或 ctx 取消。
func WaitForNodeReady(ctx context.Context, t Transport, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		checkCtx, checkCancel := context.WithTimeout(ctx, interval)
		lastErr = CheckHealth(checkCtx, t)
		checkCancel()
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("node not ready after %v: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
