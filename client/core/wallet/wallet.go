// Package wallet implements a self-deploying smart account that signs and submits messages.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	"github.com/weisyn/shardsdk/client/core/address"
	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/core/signer"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/shardsdk/pkg/types"
)

// DefaultFeeCredit 未指定时附带的手续费额度
const DefaultFeeCredit uint64 = 50_000_000

// Config 钱包配置
type Config struct {
	PublicKey []byte       // 33 字节压缩公钥；为空时由 Signer 提供（见 NewFromSigner）
	Salt      *uint256.Int // 地址派生盐值，nil 视为 0
	ShardID   types.ShardID
	Client    *chain.Client
	Signer    signer.Signer
	Code      []byte           // 钱包合约字节码
	FeeCredit *uint256.Int     // 自部署与默认写调用的手续费额度
	Poll      chain.PollConfig // 部署确认轮询参数
	Logger    log.Logger
	Events    event.Publisher // 可选；发布部署与提交事件
}

// Wallet 智能账户
//
// 每个实例独占自己的序列号计数器和签名器；写操作在实例内串行执行。
type Wallet struct {
	client     *chain.Client
	signer     signer.Signer
	pubkey     []byte
	salt       *uint256.Int
	shard      types.ShardID
	deployCode []byte
	feeCredit  *uint256.Int
	poll       chain.PollConfig
	addr       types.Address
	logger     log.Logger
	events     event.Publisher

	state atomic.Int32

	// mu 串行化 序列号获取、签名与提交
	mu            sync.Mutex
	seqno         uint64
	seqnoLoaded   bool
	pendingDeploy *types.Hash // 已提交但尚未观察到代码的自部署消息
}

// New 校验配置并派生钱包地址
func New(cfg Config) (*Wallet, error) {
	if cfg.Client == nil {
		return nil, types.NewValidationError("client", "must be set")
	}
	if cfg.Signer == nil {
		return nil, types.ErrMissingSigner
	}
	if err := cfg.ShardID.Validate(); err != nil {
		return nil, err
	}
	if cfg.Client.ShardID() != cfg.ShardID {
		return nil, types.NewValidationError("shardId",
			fmt.Sprintf("wallet shard %d differs from client shard %d", cfg.ShardID, cfg.Client.ShardID()))
	}
	if len(cfg.PublicKey) != signer.PublicKeyLength {
		return nil, types.NewValidationError("pubkey", "must be a 33-byte compressed key")
	}
	if len(cfg.Code) == 0 {
		return nil, types.NewValidationError("code", "wallet bytecode must be set")
	}

	deployCode, err := constructorCalldata(cfg.Code, cfg.PublicKey)
	if err != nil {
		return nil, err
	}
	salt := new(uint256.Int)
	if cfg.Salt != nil {
		salt.Set(cfg.Salt)
	}
	addr, err := address.Derive(cfg.ShardID, cfg.PublicKey, salt, deployCode)
	if err != nil {
		return nil, err
	}

	feeCredit := uint256.NewInt(DefaultFeeCredit)
	if cfg.FeeCredit != nil {
		feeCredit.Set(cfg.FeeCredit)
	}

	w := &Wallet{
		client:     cfg.Client,
		signer:     cfg.Signer,
		pubkey:     append([]byte(nil), cfg.PublicKey...),
		salt:       salt,
		shard:      cfg.ShardID,
		deployCode: deployCode,
		feeCredit:  feeCredit,
		poll:       cfg.Poll,
		addr:       addr,
		logger:     cfg.Logger,
		events:     cfg.Events,
	}
	if w.logger != nil {
		w.logger = w.logger.With("module", "wallet", "address", addr.Hex())
	}
	return w, nil
}

// NewFromSigner 从签名器读取公钥后创建钱包
func NewFromSigner(ctx context.Context, cfg Config) (*Wallet, error) {
	if cfg.Signer == nil {
		return nil, types.ErrMissingSigner
	}
	if len(cfg.PublicKey) == 0 {
		pub, err := cfg.Signer.PublicKey(ctx)
		if err != nil {
			return nil, err
		}
		cfg.PublicKey = pub
	}
	return New(cfg)
}

// constructorCalldata 钱包字节码 ‖ abi.encode(bytes pubkey)
func constructorCalldata(code, pubkey []byte) ([]byte, error) {
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		return nil, fmt.Errorf("abi bytes type: %w", err)
	}
	args, err := abi.Arguments{{Name: "pubkey", Type: bytesType}}.Pack(pubkey)
	if err != nil {
		return nil, fmt.Errorf("pack wallet constructor: %w", err)
	}
	out := make([]byte, 0, len(code)+len(args))
	out = append(out, code...)
	return append(out, args...), nil
}

// ===== 访问器 =====

// Address 钱包地址
func (w *Wallet) Address() types.Address { return w.addr }

// ShardID 钱包所在分片
func (w *Wallet) ShardID() types.ShardID { return w.shard }

// PublicKey 公钥副本
func (w *Wallet) PublicKey() []byte { return append([]byte(nil), w.pubkey...) }

// Salt 盐值副本
func (w *Wallet) Salt() *uint256.Int { return new(uint256.Int).Set(w.salt) }

// Client 绑定的节点客户端
func (w *Wallet) Client() *chain.Client { return w.client }

// State 最近一次观察到的部署状态
func (w *Wallet) State() DeploymentState { return DeploymentState(w.state.Load()) }

// Balance 查询钱包余额
func (w *Wallet) Balance(ctx context.Context) (*uint256.Int, error) {
	return w.client.GetBalance(ctx, w.addr)
}

// Refresh 查询链上代码并更新部署状态
func (w *Wallet) Refresh(ctx context.Context) (DeploymentState, error) {
	deployed, err := w.client.IsDeployed(ctx, w.addr)
	if err != nil {
		return w.State(), err
	}
	if deployed {
		w.state.Store(int32(StateDeployed))
		return StateDeployed, nil
	}
	// 已部署的状态不会被回退
	w.state.CompareAndSwap(int32(StateUnknown), int32(StateUndeployed))
	return w.State(), nil
}

// publish 未配置事件总线时忽略
func (w *Wallet) publish(eventType event.EventType, data interface{}) {
	if w.events != nil {
		w.events.Publish(eventType, data)
	}
}

// ensureDeployed 写操作前要求钱包已部署
func (w *Wallet) ensureDeployed(ctx context.Context) error {
	if w.State() == StateDeployed {
		return nil
	}
	state, err := w.Refresh(ctx)
	if err != nil {
		return err
	}
	if state != StateDeployed {
		return fmt.Errorf("wallet %s: %w", w.addr, types.ErrNotDeployed)
	}
	return nil
}
