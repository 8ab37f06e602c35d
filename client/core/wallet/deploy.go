package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	"github.com/weisyn/shardsdk/client/core/address"
	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/core/message"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/types"
)

// SelfDeploy 部署钱包自身（Undeployed → Deployed）
//
// 已部署时返回 ErrAlreadyDeployed 且不会重复提交；余额为零时返回校验错误。
// 已提交但代码尚未出现时不会再次签名提交，直接返回上次的消息哈希
// （wait=true 时继续等待确认）。
// wait=true 时轮询代码直到出现，超时返回 TimeoutError（部署结果未知），
// 之后的调用会重新提交。
func (w *Wallet) SelfDeploy(ctx context.Context, wait bool) (types.Hash, error) {
	var hash types.Hash

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.Refresh(ctx)
	if err != nil {
		return hash, err
	}
	if state == StateDeployed {
		w.pendingDeploy = nil
		return hash, fmt.Errorf("wallet %s: %w", w.addr, types.ErrAlreadyDeployed)
	}

	if w.pendingDeploy != nil {
		hash = *w.pendingDeploy
		if w.logger != nil {
			w.logger.Infof("self deploy already submitted: hash=%s wait=%v", hash, wait)
		}
	} else {
		if hash, err = w.submitSelfDeploy(ctx); err != nil {
			return hash, err
		}
		if w.logger != nil {
			w.logger.Infof("self deploy submitted: hash=%s wait=%v", hash, wait)
		}
	}
	if !wait {
		return hash, nil
	}

	err = chain.Poll(ctx, w.poll, "self deploy "+w.addr.Hex(), func(ctx context.Context) (bool, error) {
		state, err := w.Refresh(ctx)
		return state == StateDeployed, err
	})
	if err != nil {
		if types.IsTimeout(err) {
			w.pendingDeploy = nil
		}
		return hash, err
	}
	w.pendingDeploy = nil
	if w.logger != nil {
		w.logger.Info("wallet deployed")
	}
	w.publish(event.EventWalletDeployed, event.WalletDeployed{Address: w.addr, Hash: hash})
	return hash, nil
}

// submitSelfDeploy 检查余额后提交自部署消息；调用方持有 w.mu
func (w *Wallet) submitSelfDeploy(ctx context.Context) (types.Hash, error) {
	var hash types.Hash

	balance, err := w.client.GetBalance(ctx, w.addr)
	if err != nil {
		return hash, err
	}
	if balance.IsZero() {
		return hash, types.NewValidationError("balance", "insufficient funds: wallet must be funded before self deploy")
	}

	msg := &message.ExternalMessage{
		Kind:      message.KindDeploy,
		To:        w.addr,
		Seqno:     0,
		FeeCredit: new(uint256.Int).Set(w.feeCredit),
		Data:      w.deployCode,
	}
	hash, err = w.submit(ctx, msg)
	if err != nil {
		return hash, err
	}
	// 部署消息不使用账户计数器，之后的写操作重新读取
	w.seqnoLoaded = false
	pending := hash
	w.pendingDeploy = &pending
	return hash, nil
}

// DeployParams 合约部署参数
type DeployParams struct {
	ShardID   types.ShardID
	Salt      *uint256.Int
	ABI       *abi.ABI // 为空时不编码构造参数
	Args      []interface{}
	Bytecode  []byte
	Value     *uint256.Int
	FeeCredit *uint256.Int
}

// DeployContract 从已部署的钱包部署合约，返回目标地址与消息哈希
//
// 目标地址 = Derive(ShardID, 钱包公钥, Salt, bytecode ‖ 构造参数)。
func (w *Wallet) DeployContract(ctx context.Context, p DeployParams) (types.Address, types.Hash, error) {
	var (
		target types.Address
		hash   types.Hash
	)
	if err := p.ShardID.Validate(); err != nil {
		return target, hash, err
	}
	if len(p.Bytecode) == 0 {
		return target, hash, types.NewValidationError("bytecode", "must be set")
	}

	calldata, err := deployCalldata(p)
	if err != nil {
		return target, hash, err
	}
	target, err = address.Derive(p.ShardID, w.pubkey, p.Salt, calldata)
	if err != nil {
		return target, hash, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureDeployed(ctx); err != nil {
		return target, hash, err
	}

	msg := &message.ExternalMessage{
		Kind:      message.KindDeploy,
		To:        target,
		Value:     p.Value,
		FeeCredit: w.feeCreditOr(p.FeeCredit),
		Data:      calldata,
	}
	if err := w.withSeqno(ctx, msg); err != nil {
		return target, hash, err
	}
	hash, err = w.submit(ctx, msg)
	if err != nil {
		return target, hash, err
	}
	w.seqno++

	if w.logger != nil {
		w.logger.Infof("contract deploy submitted: target=%s hash=%s", target, hash)
	}
	return target, hash, nil
}

// deployCalldata bytecode ‖ abi 编码的构造参数
func deployCalldata(p DeployParams) ([]byte, error) {
	out := append([]byte(nil), p.Bytecode...)
	if p.ABI == nil {
		if len(p.Args) > 0 {
			return nil, types.NewValidationError("abi", "constructor args given without ABI")
		}
		return out, nil
	}
	args, err := p.ABI.Pack("", p.Args...)
	if err != nil {
		return nil, types.NewValidationError("args", err.Error())
	}
	return append(out, args...), nil
}
