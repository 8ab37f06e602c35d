// Package message builds, signs and encodes external message envelopes.
package message

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/weisyn/shardsdk/client/core/signer"
	"github.com/weisyn/shardsdk/pkg/types"
)

// Kind 外部消息类型
type Kind uint8

const (
	// KindExecution 调用已部署合约
	KindExecution Kind = iota
	// KindDeploy 部署合约（包括钱包自部署）
	KindDeploy
)

// String 返回类型名称
func (k Kind) String() string {
	switch k {
	case KindExecution:
		return "execution"
	case KindDeploy:
		return "deploy"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ExternalMessage 待签名的外部消息
type ExternalMessage struct {
	Kind      Kind
	To        types.Address
	Seqno     uint64
	Value     *uint256.Int
	FeeCredit *uint256.Int
	Data      []byte
}

// unsignedEnvelope 参与签名哈希的字段
type unsignedEnvelope struct {
	Kind      uint8
	To        types.Address
	Seqno     uint64
	Value     *uint256.Int
	FeeCredit *uint256.Int
	Data      []byte
}

// signedEnvelope 线上编码
type signedEnvelope struct {
	Kind      uint8
	To        types.Address
	Seqno     uint64
	Value     *uint256.Int
	FeeCredit *uint256.Int
	Data      []byte
	AuthData  []byte
}

// Validate 签名前校验
func (m *ExternalMessage) Validate() error {
	if m.Kind != KindExecution && m.Kind != KindDeploy {
		return types.NewValidationError("kind", m.Kind.String())
	}
	if m.To.IsEmpty() {
		return types.NewValidationError("to", "empty destination")
	}
	if err := m.To.ShardID().Validate(); err != nil {
		return err
	}
	if m.FeeCredit == nil {
		return types.NewValidationError("feeCredit", "must be set")
	}
	if m.Kind == KindDeploy && len(m.Data) == 0 {
		return types.NewValidationError("data", "deploy message without code")
	}
	return nil
}

func (m *ExternalMessage) envelope() unsignedEnvelope {
	value := m.Value
	if value == nil {
		value = new(uint256.Int)
	}
	return unsignedEnvelope{
		Kind:      uint8(m.Kind),
		To:        m.To,
		Seqno:     m.Seqno,
		Value:     value,
		FeeCredit: m.FeeCredit,
		Data:      m.Data,
	}
}

// SigningHash keccak256(RLP(不含 AuthData 的字段))
func (m *ExternalMessage) SigningHash() (types.Hash, error) {
	var out types.Hash
	if err := m.Validate(); err != nil {
		return out, err
	}
	enc, err := rlp.EncodeToBytes(m.envelope())
	if err != nil {
		return out, fmt.Errorf("encode envelope: %w", err)
	}
	copy(out[:], crypto.Keccak256(enc))
	return out, nil
}

// Sign 使用签名器生成已签名消息；原消息之后的修改不影响结果
func (m *ExternalMessage) Sign(ctx context.Context, s signer.Signer) (*SignedMessage, error) {
	if s == nil {
		return nil, types.ErrMissingSigner
	}
	digest, err := m.SigningHash()
	if err != nil {
		return nil, err
	}
	sig, err := s.Sign(ctx, digest[:])
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 {
		return nil, &types.KeyError{Op: "sign", Err: fmt.Errorf("empty signature")}
	}

	env := m.envelope()
	return &SignedMessage{
		env: signedEnvelope{
			Kind:      env.Kind,
			To:        env.To,
			Seqno:     env.Seqno,
			Value:     new(uint256.Int).Set(env.Value),
			FeeCredit: new(uint256.Int).Set(env.FeeCredit),
			Data:      clone(env.Data),
			AuthData:  clone(sig),
		},
	}, nil
}

// SignedMessage 已签名消息，构造后不可变
type SignedMessage struct {
	env signedEnvelope
}

// DecodeSignedMessage 解码线上格式
func DecodeSignedMessage(raw []byte) (*SignedMessage, error) {
	var env signedEnvelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return nil, types.NewValidationError("message", err.Error())
	}
	if env.Value == nil {
		env.Value = new(uint256.Int)
	}
	if env.FeeCredit == nil {
		env.FeeCredit = new(uint256.Int)
	}
	return &SignedMessage{env: env}, nil
}

// Kind 消息类型
func (s *SignedMessage) Kind() Kind { return Kind(s.env.Kind) }

// To 目标地址
func (s *SignedMessage) To() types.Address { return s.env.To }

// Seqno 序列号
func (s *SignedMessage) Seqno() uint64 { return s.env.Seqno }

// Value 转账金额副本
func (s *SignedMessage) Value() *uint256.Int { return new(uint256.Int).Set(s.env.Value) }

// FeeCredit 手续费额度副本
func (s *SignedMessage) FeeCredit() *uint256.Int { return new(uint256.Int).Set(s.env.FeeCredit) }

// Data 调用数据副本
func (s *SignedMessage) Data() []byte { return clone(s.env.Data) }

// AuthData 签名副本
func (s *SignedMessage) AuthData() []byte { return clone(s.env.AuthData) }

// Message 返回不含签名的消息
func (s *SignedMessage) Message() ExternalMessage {
	return ExternalMessage{
		Kind:      s.Kind(),
		To:        s.env.To,
		Seqno:     s.env.Seqno,
		Value:     s.Value(),
		FeeCredit: s.FeeCredit(),
		Data:      s.Data(),
	}
}

// Encode 线上编码，包含 AuthData
func (s *SignedMessage) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&s.env)
}

// Hash keccak256(Encode())
func (s *SignedMessage) Hash() (types.Hash, error) {
	var out types.Hash
	enc, err := s.Encode()
	if err != nil {
		return out, err
	}
	copy(out[:], crypto.Keccak256(enc))
	return out, nil
}

// VerifyWith 校验签名与公钥是否匹配
func (s *SignedMessage) VerifyWith(pubkey []byte) bool {
	msg := s.Message()
	digest, err := msg.SigningHash()
	if err != nil {
		return false
	}
	return signer.Verify(pubkey, digest[:], s.env.AuthData)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
