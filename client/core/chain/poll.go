package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weisyn/shardsdk/pkg/types"
)

// PollConfig 确认轮询的指数退避参数
type PollConfig struct {
	Interval    time.Duration // 首次间隔
	MaxInterval time.Duration // 间隔上限
	Multiplier  float64       // 退避因子
	MaxAttempts int           // 最大尝试次数
}

// DefaultPollConfig 默认轮询参数
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    200 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Multiplier:  2.0,
		MaxAttempts: 30,
	}
}

// withDefaults 零值字段使用默认值
func (c PollConfig) withDefaults() PollConfig {
	d := DefaultPollConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.MaxInterval < c.Interval {
		c.MaxInterval = c.Interval
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// NextDelay 第 attempt 次（从1开始）失败后的等待时间
func (c PollConfig) NextDelay(attempt int) time.Duration {
	c = c.withDefaults()
	d := float64(c.Interval)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if d >= float64(c.MaxInterval) {
			return c.MaxInterval
		}
	}
	return time.Duration(d)
}

// PollFunc 返回 done=true 表示条件满足
type PollFunc func(ctx context.Context) (done bool, err error)

// Poll 重复执行 fn 直到条件满足
//
// 达到 MaxAttempts 或 ctx 到期时返回 TimeoutError（结果未知）；
// 调用方取消 ctx 时返回包装后的 context.Canceled；
// fn 返回的错误立即中止轮询并原样返回。
func Poll(ctx context.Context, cfg PollConfig, op string, fn PollFunc) error {
	cfg = cfg.withDefaults()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		done, err := fn(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return stopped(ctx, op, attempt)
			}
			return err
		}
		if done {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return stopped(ctx, op, attempt)
		}

		timer := time.NewTimer(cfg.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return stopped(ctx, op, attempt)
		case <-timer.C:
		}
	}
	return &types.TimeoutError{Op: op, Attempts: cfg.MaxAttempts}
}

// stopped 取消时返回包装后的 ctx 错误，到期时返回 TimeoutError
func stopped(ctx context.Context, op string, attempts int) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return &types.TimeoutError{Op: op, Attempts: attempts}
}
