// Package signer provides key-holding capabilities that sign message digests.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/shardsdk/pkg/types"
)

// 签名器错误
var (
	ErrMissingKey = errors.New("private key not set")
	ErrInvalidKey = errors.New("invalid private key")
)

const (
	// PublicKeyLength 压缩公钥长度
	PublicKeyLength = 33
	// SignatureLength r ‖ s ‖ v
	SignatureLength = 65
	// DigestLength 待签名摘要长度
	DigestLength = 32
)

// Signer 签名器能力接口
//
// 不负责持久化，也不维护序列号。
type Signer interface {
	// PublicKey 返回 33 字节压缩 secp256k1 公钥；可能涉及远程或延迟派生
	PublicKey(ctx context.Context) ([]byte, error)

	// Sign 对 32 字节摘要签名，返回 65 字节签名；永远不返回空签名
	Sign(ctx context.Context, digest []byte) ([]byte, error)
}

// LocalECDSAKeySigner 内存中持有私钥的签名器
type LocalECDSAKeySigner struct {
	key *ecdsa.PrivateKey
}

var _ Signer = (*LocalECDSAKeySigner)(nil)

// NewLocalECDSAKeySigner 由十六进制私钥创建签名器
func NewLocalECDSAKeySigner(privateKey types.Hex) (*LocalECDSAKeySigner, error) {
	if privateKey.IsEmpty() {
		return nil, &types.KeyError{Op: "load", Err: ErrMissingKey}
	}
	key, err := crypto.ToECDSA(privateKey.Bytes())
	if err != nil {
		return nil, &types.KeyError{Op: "load", Err: fmt.Errorf("%w: %v", ErrInvalidKey, err)}
	}
	return &LocalECDSAKeySigner{key: key}, nil
}

// NewLocalECDSAKeySignerFromKey 由已有私钥创建签名器
func NewLocalECDSAKeySignerFromKey(key *ecdsa.PrivateKey) (*LocalECDSAKeySigner, error) {
	if key == nil || key.D == nil {
		return nil, &types.KeyError{Op: "load", Err: ErrMissingKey}
	}
	return &LocalECDSAKeySigner{key: key}, nil
}

// GenerateRandomPrivateKey 生成随机私钥
func GenerateRandomPrivateKey() (types.Hex, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", &types.KeyError{Op: "generate", Err: err}
	}
	return types.HexFromBytes(crypto.FromECDSA(key)), nil
}

// PublicKey 实现 Signer
func (s *LocalECDSAKeySigner) PublicKey(ctx context.Context) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, &types.KeyError{Op: "public key", Err: ErrMissingKey}
	}
	return crypto.CompressPubkey(&s.key.PublicKey), nil
}

// Sign 实现 Signer
func (s *LocalECDSAKeySigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, &types.KeyError{Op: "sign", Err: ErrMissingKey}
	}
	if len(digest) != DigestLength {
		return nil, types.NewValidationError("digest", "must be 32 bytes")
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, &types.KeyError{Op: "sign", Err: err}
	}
	if len(sig) != SignatureLength {
		return nil, &types.KeyError{Op: "sign", Err: fmt.Errorf("unexpected signature length %d", len(sig))}
	}
	return sig, nil
}

// Verify 校验签名是否由 pubkey 对应的私钥产生（网络端同样会校验）
func Verify(pubkey, digest, sig []byte) bool {
	if len(sig) != SignatureLength || len(digest) != DigestLength {
		return false
	}
	return crypto.VerifySignature(pubkey, digest, sig[:SignatureLength-1])
}

// RecoverPublicKey 从签名恢复压缩公钥
func RecoverPublicKey(digest, sig []byte) ([]byte, error) {
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, &types.KeyError{Op: "recover", Err: err}
	}
	return crypto.CompressPubkey(pub), nil
}
