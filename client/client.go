// Package client is the entry point of the shard SDK: one shard-bound node client plus wallet and contract helpers.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/core/contract"
	"github.com/weisyn/shardsdk/client/core/transport"
	"github.com/weisyn/shardsdk/client/core/wallet"
	"github.com/weisyn/shardsdk/client/pkg/config"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/shardsdk/pkg/types"
)

// Client 分片客户端 - 统一的 SDK 入口
// 提供查询、钱包与合约代理能力
type Client struct {
	chain     *chain.Client
	transport transport.Transport
	logger    log.Logger
	poll      chain.PollConfig
	feeCredit *uint256.Int
	events    event.Publisher
}

// Option 客户端选项
type Option func(*Client)

// WithEventBus 钱包事件发布到 p
func WithEventBus(p event.Publisher) Option {
	return func(c *Client) { c.events = p }
}

// New 创建新的客户端实例
// endpoint: 节点地址，如 "http://localhost:8529" 或 "ws://localhost:8530"
func New(ctx context.Context, endpoint string, shard types.ShardID) (*Client, error) {
	return NewWithTimeout(ctx, endpoint, shard, 30*time.Second)
}

// NewWithTimeout 创建带自定义超时的客户端实例
func NewWithTimeout(ctx context.Context, endpoint string, shard types.ShardID, timeout time.Duration) (*Client, error) {
	t, err := transport.Dial(ctx, endpoint, timeout)
	if err != nil {
		return nil, err
	}
	c, err := NewWithTransport(t, shard)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return c, nil
}

// NewWithTransport 使用自定义 transport 创建客户端
// 测试中可传入 transport.MockTransport
func NewWithTransport(t transport.Transport, shard types.ShardID, opts ...chain.Option) (*Client, error) {
	cc, err := chain.New(t, shard, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		chain:     cc,
		transport: t,
		poll:      chain.DefaultPollConfig(),
	}, nil
}

// NewFromConfig 按配置组装传输与中间件
//
// reg 为 nil 或未开启 Metrics 时不注册指标；logger 为 nil 时不记录调用日志。
func NewFromConfig(ctx context.Context, cfg *config.Config, logger log.Logger, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	feeCredit, err := cfg.FeeCreditValue()
	if err != nil {
		return nil, err
	}

	t, err := transport.New(ctx, transportConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	if cfg.RateLimit > 0 {
		t = transport.WithRateLimit(t, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst))
	}
	if cfg.Metrics && reg != nil {
		m, err := transport.NewMetrics(reg)
		if err != nil {
			_ = t.Close()
			return nil, err
		}
		t = transport.WithMetrics(t, m)
	}

	chainOpts := []chain.Option{chain.WithCodeCacheSize(cfg.CodeCacheSize)}
	if logger != nil {
		t = transport.WithLogging(t, logger)
		chainOpts = append(chainOpts, chain.WithLogger(logger))
	}

	c, err := NewWithTransport(t, types.ShardID(cfg.ShardID), chainOpts...)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	c.logger = logger
	c.feeCredit = feeCredit
	c.poll = chain.PollConfig{
		Interval:    cfg.Poll.Interval.Std(),
		MaxInterval: cfg.Poll.MaxInterval.Std(),
		Multiplier:  cfg.Poll.Multiplier,
		MaxAttempts: cfg.Poll.MaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// transportConfig 主端点优先级最高
func transportConfig(cfg *config.Config) transport.Config {
	endpoints := make([]transport.EndpointConfig, 0, len(cfg.Endpoints()))
	for i, url := range cfg.Endpoints() {
		endpoints = append(endpoints, transport.EndpointConfig{
			Name:     fmt.Sprintf("endpoint-%d", i),
			Priority: i,
			URL:      url,
		})
	}
	return transport.Config{
		Endpoints:     endpoints,
		Timeout:       cfg.Timeout.Std(),
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff.Std(),
		RateLimit:     cfg.RateLimit,
		Burst:         cfg.Burst,
	}
}

// Chain 分片绑定的节点客户端
func (c *Client) Chain() *chain.Client { return c.chain }

// Transport 底层传输
func (c *Client) Transport() transport.Transport { return c.transport }

// ShardID 客户端绑定的分片
func (c *Client) ShardID() types.ShardID { return c.chain.ShardID() }

// Close 关闭底层传输
func (c *Client) Close() error { return c.transport.Close() }

// Ping 一次性健康检查
func (c *Client) Ping(ctx context.Context) error {
	return transport.CheckHealth(ctx, c.transport)
}

// WaitReady 等待节点就绪
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	return transport.WaitForNodeReady(ctx, c.transport, timeout, c.poll.Interval)
}

// === 便捷方法：账户查询 ===

// GetBalance 获取账户余额
func (c *Client) GetBalance(ctx context.Context, addr types.Address) (*uint256.Int, error) {
	return c.chain.GetBalance(ctx, addr)
}

// GetCode 获取合约代码
func (c *Client) GetCode(ctx context.Context, addr types.Address) ([]byte, error) {
	return c.chain.GetCode(ctx, addr)
}

// WaitForMessage 等待消息被处理
func (c *Client) WaitForMessage(ctx context.Context, hash types.Hash) (*types.ProcessedMessage, error) {
	return c.chain.WaitForMessage(ctx, hash, c.poll)
}

// === 钱包与合约 ===

// NewWallet 创建绑定到本客户端的钱包
// cfg 中未设置的字段使用客户端的值
func (c *Client) NewWallet(ctx context.Context, cfg wallet.Config) (*wallet.Wallet, error) {
	if cfg.Client == nil {
		cfg.Client = c.chain
	}
	if cfg.ShardID == 0 {
		cfg.ShardID = c.chain.ShardID()
	}
	if cfg.Poll == (chain.PollConfig{}) {
		cfg.Poll = c.poll
	}
	if cfg.FeeCredit == nil && c.feeCredit != nil {
		cfg.FeeCredit = new(uint256.Int).Set(c.feeCredit)
	}
	if cfg.Logger == nil {
		cfg.Logger = c.logger
	}
	if cfg.Events == nil {
		cfg.Events = c.events
	}
	return wallet.NewFromSigner(ctx, cfg)
}

// GetContract 创建合约代理；w 为 nil 时只能读
func (c *Client) GetContract(contractABI *abi.ABI, addr types.Address, w *wallet.Wallet) (*contract.Contract, error) {
	p := contract.Params{
		Client:    c.chain,
		ABI:       contractABI,
		Address:   addr,
		FeeCredit: c.feeCredit,
		Logger:    c.logger,
	}
	if w != nil {
		p.Wallet = w
	}
	return contract.GetContract(p)
}
