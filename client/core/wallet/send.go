package wallet

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/weisyn/shardsdk/client/core/message"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/types"
)

// SendParams 执行消息参数
type SendParams struct {
	To        types.Address
	Value     *uint256.Int
	FeeCredit *uint256.Int
	Data      []byte
}

// SendMessage 签名并提交执行消息，返回消息哈希
//
// 写操作不会自动重试；提交失败后下一次写操作重新读取序列号。
func (w *Wallet) SendMessage(ctx context.Context, p SendParams) (types.Hash, error) {
	var hash types.Hash

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureDeployed(ctx); err != nil {
		return hash, err
	}

	msg := &message.ExternalMessage{
		Kind:      message.KindExecution,
		To:        p.To,
		Value:     p.Value,
		FeeCredit: w.feeCreditOr(p.FeeCredit),
		Data:      p.Data,
	}
	if err := w.withSeqno(ctx, msg); err != nil {
		return hash, err
	}
	hash, err := w.submit(ctx, msg)
	if err != nil {
		return hash, err
	}
	w.seqno++

	if w.logger != nil {
		w.logger.Debugf("message submitted: to=%s seqno=%d hash=%s", p.To, msg.Seqno, hash)
	}
	return hash, nil
}

// withSeqno 填充序列号；调用方持有 w.mu
func (w *Wallet) withSeqno(ctx context.Context, msg *message.ExternalMessage) error {
	if !w.seqnoLoaded {
		n, err := w.client.GetSeqno(ctx, w.addr)
		if err != nil {
			return err
		}
		w.seqno = n
		w.seqnoLoaded = true
	}
	msg.Seqno = w.seqno
	return nil
}

// submit 签名、编码并提交；调用方持有 w.mu
func (w *Wallet) submit(ctx context.Context, msg *message.ExternalMessage) (types.Hash, error) {
	var hash types.Hash

	signed, err := msg.Sign(ctx, w.signer)
	if err != nil {
		return hash, err
	}
	raw, err := signed.Encode()
	if err != nil {
		return hash, err
	}
	hash, err = w.client.SendRawTransaction(ctx, raw)
	if err != nil {
		w.seqnoLoaded = false
		if w.logger != nil {
			w.logger.Warnf("submit failed, seqno will be re-read: %v", err)
		}
		w.publish(event.EventSubmitFailed, event.SubmitFailed{From: w.addr, To: msg.To, Seqno: msg.Seqno, Err: err})
		return hash, err
	}
	w.publish(event.EventMessageSubmitted, event.MessageSubmitted{
		From:  w.addr,
		To:    msg.To,
		Kind:  msg.Kind.String(),
		Seqno: msg.Seqno,
		Hash:  hash,
	})
	return hash, nil
}

func (w *Wallet) feeCreditOr(v *uint256.Int) *uint256.Int {
	if v != nil {
		return v
	}
	return new(uint256.Int).Set(w.feeCredit)
}
