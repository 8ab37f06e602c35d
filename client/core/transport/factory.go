package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"
)

// ErrNoEndpoints 未配置端点
var ErrNoEndpoints = errors.New("no endpoints configured")

// Config 传输配置
type Config struct {
	// 节点端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints"`

	// 超时与重试；重试只用于幂等的只读方法
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryBackoff  time.Duration `json:"retry_backoff"`

	// 限流：每秒请求数，0 表示不限流
	RateLimit float64 `json:"rate_limit"`
	Burst     int     `json:"burst"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"` // 数字越小越优先
	URL      string `json:"url"`      // http(s):// 或 ws(s)://
}

// withDefaults 填充默认值
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	return c
}

// Dial 根据 URL scheme 创建单端点传输
func Dial(ctx context.Context, endpoint string, timeout time.Duration) (Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "http", "https":
		return NewJSONRPCTransport(endpoint, timeout), nil
	case "ws", "wss":
		t, err := DialWebSocket(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// New 根据配置创建传输；多端点时返回 FallbackTransport
func New(ctx context.Context, cfg Config) (Transport, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	if len(cfg.Endpoints) == 1 {
		return Dial(ctx, cfg.Endpoints[0].URL, cfg.Timeout)
	}
	ft, err := NewFallbackTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ft, nil
}

// idempotentMethods 可以安全重试/切换端点的只读方法
var idempotentMethods = map[string]bool{
	MethodGetBalance:          true,
	MethodGetCode:             true,
	MethodGetTransactionCount: true,
	MethodCall:                true,
	MethodGetInMessageByHash:  true,
	MethodChainID:             true,
}

// IsIdempotent 方法是否可以安全重试
func IsIdempotent(method string) bool {
	return idempotentMethods[method]
}

// FallbackTransport 支持故障转移的传输
//
// 只读方法在失败时切换到下一个端点并退避重试；写方法（如
// eth_sendRawTransaction）只尝试一次，避免重复提交已签名消息。
type FallbackTransport struct {
	config  Config
	mu      sync.RWMutex
	clients []endpointClient
	current int
}

type endpointClient struct {
	name      string
	priority  int
	transport Transport
	healthy   bool
}

var _ Transport = (*FallbackTransport)(nil)

// NewFallbackTransport 创建支持故障转移的传输
func NewFallbackTransport(ctx context.Context, cfg Config) (*FallbackTransport, error) {
	cfg = cfg.withDefaults()
	ft := &FallbackTransport{config: cfg}

	for _, ep := range cfg.Endpoints {
		t, err := Dial(ctx, ep.URL, cfg.Timeout)
		if err != nil {
			// 单个端点不可用不影响其它端点
			continue
		}
		ft.clients = append(ft.clients, endpointClient{
			name:      ep.Name,
			priority:  ep.Priority,
			transport: t,
			healthy:   true,
		})
	}
	if len(ft.clients) == 0 {
		return nil, fmt.Errorf("no valid endpoints: %w", ErrNoEndpoints)
	}

	sort.SliceStable(ft.clients, func(i, j int) bool {
		return ft.clients[i].priority < ft.clients[j].priority
	})
	return ft, nil
}

// pick 返回当前健康端点的下标
func (ft *FallbackTransport) pick() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.clients[ft.current].healthy {
		return ft.current
	}
	for i, c := range ft.clients {
		if c.healthy {
			ft.current = i
			return i
		}
	}
	// 全部不健康时重置并从最高优先级重新开始
	for i := range ft.clients {
		ft.clients[i].healthy = true
	}
	ft.current = 0
	return 0
}

func (ft *FallbackTransport) markUnhealthy(i int) {
	ft.mu.Lock()
	ft.clients[i].healthy = false
	ft.mu.Unlock()
}

// Call 实现 Transport
func (ft *FallbackTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	attempts := 1
	if IsIdempotent(method) {
		attempts = ft.config.RetryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		i := ft.pick()
		res, err := ft.clients[i].transport.Call(ctx, method, params...)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// 节点明确返回的 RPC 错误不是端点故障
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, err
		}
		ft.markUnhealthy(i)

		if attempt < attempts-1 {
			select {
			case <-time.After(ft.config.RetryBackoff * time.Duration(attempt+1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

// Close 关闭所有端点
func (ft *FallbackTransport) Close() error {
	var errs []error
	for _, c := range ft.clients {
		if err := c.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// newFallbackFromTransports 直接由已有传输构建（测试用）
func newFallbackFromTransports(cfg Config, transports ...Transport) *FallbackTransport {
	ft := &FallbackTransport{config: cfg.withDefaults()}
	for i, t := range transports {
		ft.clients = append(ft.clients, endpointClient{
			name:      fmt.Sprintf("endpoint-%d", i),
			priority:  i,
			transport: t,
			healthy:   true,
		})
	}
	return ft
}
