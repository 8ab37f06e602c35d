package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
)

// ===== 指标 =====

// Metrics 传输层 prometheus 指标
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics 创建并注册指标；reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardsdk",
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "RPC calls by method and outcome",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shardsdk",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		return m, nil
	}
	if err := reg.Register(m.requests); err != nil {
		existing, ok := alreadyRegistered(err).(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register transport metrics: %w", err)
		}
		m.requests = existing
	}
	if err := reg.Register(m.latency); err != nil {
		existing, ok := alreadyRegistered(err).(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("register transport metrics: %w", err)
		}
		m.latency = existing
	}
	return m, nil
}

// alreadyRegistered 同一注册表重复注册时复用已有采集器
func alreadyRegistered(err error) prometheus.Collector {
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	return nil
}

type metricsTransport struct {
	next    Transport
	metrics *Metrics
}

// WithMetrics 统计调用次数与耗时
func WithMetrics(next Transport, m *Metrics) Transport {
	return &metricsTransport{next: next, metrics: m}
}

func (t *metricsTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	start := time.Now()
	res, err := t.next.Call(ctx, method, params...)
	t.metrics.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	t.metrics.requests.WithLabelValues(method, outcome(err)).Inc()
	return res, err
}

func (t *metricsTransport) Close() error { return t.next.Close() }

func outcome(err error) string {
	var rpcErr *RPCError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rpcErr):
		return "rpc_error"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// ===== 限流 =====

type rateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// WithRateLimit 每次调用前等待令牌，等待期间遵循 ctx
func WithRateLimit(next Transport, limiter *rate.Limiter) Transport {
	return &rateLimitedTransport{next: next, limiter: limiter}
}

func (t *rateLimitedTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.next.Call(ctx, method, params...)
}

func (t *rateLimitedTransport) Close() error { return t.next.Close() }

// ===== 日志 =====

type loggingTransport struct {
	next   Transport
	logger log.Logger
}

// WithLogging 以 debug 级别记录每次调用；每个实例带独立的 session id
func WithLogging(next Transport, logger log.Logger) Transport {
	return &loggingTransport{
		next:   next,
		logger: logger.With("module", "transport", "session", uuid.NewString()),
	}
}

func (t *loggingTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	start := time.Now()
	res, err := t.next.Call(ctx, method, params...)
	l := t.logger.With("method", method, "elapsed", time.Since(start))
	if err != nil {
		l.With("error", err.Error()).Warn("rpc call failed")
	} else {
		l.Debug("rpc call")
	}
	return res, err
}

func (t *loggingTransport) Close() error { return t.next.Close() }
