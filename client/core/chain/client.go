// Package chain implements the read and submit surface of a shard-bound node client.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"

	"github.com/weisyn/shardsdk/client/core/transport"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/shardsdk/pkg/types"
)

// DefaultCodeCacheSize 已部署代码缓存条目数
const DefaultCodeCacheSize = 256

// Client 绑定单个分片的节点客户端
//
// 并发安全；只有 SendRawTransaction 改变链上状态。
type Client struct {
	transport transport.Transport
	shard     types.ShardID
	logger    log.Logger
	codeCache *lru.Cache[types.Address, []byte]
}

// Option 客户端选项
type Option func(*options)

type options struct {
	logger    log.Logger
	cacheSize int
}

// WithLogger 设置日志器
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCodeCacheSize 设置代码缓存大小
func WithCodeCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New 创建绑定到 shard 的客户端
func New(t transport.Transport, shard types.ShardID, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, types.NewValidationError("transport", "must be set")
	}
	if err := shard.Validate(); err != nil {
		return nil, err
	}

	o := options{cacheSize: DefaultCodeCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCodeCacheSize
	}

	cache, err := lru.New[types.Address, []byte](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create code cache: %w", err)
	}

	c := &Client{
		transport: t,
		shard:     shard,
		codeCache: cache,
	}
	if o.logger != nil {
		c.logger = o.logger.With("module", "chain", "shard", uint16(shard))
	}
	return c, nil
}

// ShardID 客户端绑定的分片
func (c *Client) ShardID() types.ShardID { return c.shard }

// Transport 底层传输
func (c *Client) Transport() transport.Transport { return c.transport }

// Close 关闭底层传输
func (c *Client) Close() error { return c.transport.Close() }

// checkShard 地址必须属于本分片
func (c *Client) checkShard(addr types.Address) error {
	if addr.ShardID() != c.shard {
		return types.NewValidationError("address",
			fmt.Sprintf("address %s belongs to shard %d, client is bound to shard %d", addr, addr.ShardID(), c.shard))
	}
	return nil
}

// call 发起调用并解码结果；传输失败统一包装为 TransportError
func (c *Client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	raw, err := c.transport.Call(ctx, method, params...)
	if err != nil {
		if c.logger != nil {
			c.logger.Debugf("rpc %s failed: %v", method, err)
		}
		return &types.TransportError{Method: method, Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &types.TransportError{Method: method, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// ===== 读取 =====

// GetBalance 查询余额
func (c *Client) GetBalance(ctx context.Context, addr types.Address) (*uint256.Int, error) {
	if err := c.checkShard(addr); err != nil {
		return nil, err
	}
	var q types.Quantity
	if err := c.call(ctx, &q, transport.MethodGetBalance, addr.Hex(), transport.BlockLatest); err != nil {
		return nil, err
	}
	return q.Big(), nil
}

// GetCode 查询合约代码；空结果表示尚未部署
func (c *Client) GetCode(ctx context.Context, addr types.Address) ([]byte, error) {
	if err := c.checkShard(addr); err != nil {
		return nil, err
	}
	if code, ok := c.codeCache.Get(addr); ok {
		return bytes.Clone(code), nil
	}

	var code types.Hex
	if err := c.call(ctx, &code, transport.MethodGetCode, addr.Hex(), transport.BlockLatest); err != nil {
		return nil, err
	}
	b := code.Bytes()
	if len(b) > 0 {
		c.codeCache.Add(addr, bytes.Clone(b))
	}
	return b, nil
}

// IsDeployed 地址上是否已有代码
func (c *Client) IsDeployed(ctx context.Context, addr types.Address) (bool, error) {
	code, err := c.GetCode(ctx, addr)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

// GetSeqno 查询账户下一个可用序列号
func (c *Client) GetSeqno(ctx context.Context, addr types.Address) (uint64, error) {
	if err := c.checkShard(addr); err != nil {
		return 0, err
	}
	var q types.Uint64Quantity
	if err := c.call(ctx, &q, transport.MethodGetTransactionCount, addr.Hex(), transport.BlockLatest); err != nil {
		return 0, err
	}
	return uint64(q), nil
}

// CallArgs 只读调用参数
type CallArgs struct {
	From      *types.Address
	To        types.Address
	Data      []byte
	FeeCredit *uint256.Int
}

type callParams struct {
	From      *types.Address `json:"from,omitempty"`
	To        types.Address  `json:"to"`
	Data      hexutil.Bytes  `json:"data"`
	FeeCredit *hexutil.Big   `json:"feeCredit,omitempty"`
}

type callResult struct {
	Data types.Hex `json:"data"`
}

// Call 在目标地址执行只读调用，返回原始输出
func (c *Client) Call(ctx context.Context, args CallArgs) ([]byte, error) {
	if args.To.IsEmpty() {
		return nil, types.NewValidationError("to", "empty destination")
	}
	if err := args.To.ShardID().Validate(); err != nil {
		return nil, err
	}
	p := callParams{From: args.From, To: args.To, Data: args.Data}
	if p.Data == nil {
		p.Data = hexutil.Bytes{}
	}
	if args.FeeCredit != nil {
		p.FeeCredit = (*hexutil.Big)(args.FeeCredit.ToBig())
	}

	var raw json.RawMessage
	if err := c.call(ctx, &raw, transport.MethodCall, p, transport.BlockLatest); err != nil {
		return nil, err
	}
	return decodeCallResult(raw)
}

// decodeCallResult 兼容 {data} 对象与裸十六进制字符串两种返回
func decodeCallResult(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var h types.Hex
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, &types.TransportError{Method: transport.MethodCall, Err: fmt.Errorf("malformed response: %w", err)}
		}
		return h.Bytes(), nil
	}
	var res callResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &types.TransportError{Method: transport.MethodCall, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return res.Data.Bytes(), nil
}

// ===== 提交 =====

// SendRawTransaction 提交已签名消息，返回 32 字节消息哈希
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (types.Hash, error) {
	var out types.Hash
	if len(raw) == 0 {
		return out, types.NewValidationError("message", "empty payload")
	}
	var s string
	if err := c.call(ctx, &s, transport.MethodSendRawTransaction, hexutil.Encode(raw)); err != nil {
		return out, err
	}
	h, err := types.ParseHash(s)
	if err != nil {
		return out, &types.TransportError{Method: transport.MethodSendRawTransaction, Err: fmt.Errorf("malformed hash %q: %w", s, err)}
	}
	if c.logger != nil {
		c.logger.Debugf("message submitted: %s", h)
	}
	return h, nil
}

// ===== 回执 =====

// GetProcessedMessage 查询本分片上已处理消息；未找到返回 nil
func (c *Client) GetProcessedMessage(ctx context.Context, hash types.Hash) (*types.ProcessedMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, transport.MethodGetInMessageByHash, uint16(c.shard), hash.Hex()); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || raw[0] != '{' {
		return nil, nil
	}
	var m types.ProcessedMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &types.TransportError{Method: transport.MethodGetInMessageByHash, Err: fmt.Errorf("malformed receipt: %w", err)}
	}
	return &m, nil
}

// WaitForMessage 轮询直到消息被处理
//
// 返回的回执可能表示链上拒绝（Rejected），调用方需要自行检查。
func (c *Client) WaitForMessage(ctx context.Context, hash types.Hash, cfg PollConfig) (*types.ProcessedMessage, error) {
	var receipt *types.ProcessedMessage
	err := Poll(ctx, cfg, "wait message "+hash.Hex(), func(ctx context.Context) (bool, error) {
		m, err := c.GetProcessedMessage(ctx, hash)
		if err != nil {
			return false, err
		}
		receipt = m
		return m != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ChainID 查询网络 id
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var q types.Uint64Quantity
	if err := c.call(ctx, &q, transport.MethodChainID); err != nil {
		return 0, err
	}
	return uint64(q), nil
}
