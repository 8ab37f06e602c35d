package signer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/weisyn/shardsdk/pkg/types"
)

// ErrInvalidMnemonic 助记词无效
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// MnemonicStrength 助记词熵位数
type MnemonicStrength int

const (
	// Mnemonic12Words 12个助记词 (128 bits 熵)
	Mnemonic12Words MnemonicStrength = 128
	// Mnemonic24Words 24个助记词 (256 bits 熵)
	Mnemonic24Words MnemonicStrength = 256
)

// GenerateMnemonic 生成 BIP39 助记词
func GenerateMnemonic(strength MnemonicStrength) (string, error) {
	if strength != Mnemonic12Words && strength != Mnemonic24Words {
		return "", fmt.Errorf("invalid mnemonic strength: %d, must be 128 or 256", strength)
	}
	entropy := make([]byte, int(strength)/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// MnemonicSignerConfig 助记词签名器配置
type MnemonicSignerConfig struct {
	Mnemonic   string
	Passphrase string
	Path       string // 为空时使用 m/44'/60'/0'/0/0
}

// MnemonicSigner 由助记词派生私钥的签名器
//
// 派生结果只保存在内存中，签名委托给 LocalECDSAKeySigner。
type MnemonicSigner struct {
	path  DerivationPath
	local *LocalECDSAKeySigner
}

var _ Signer = (*MnemonicSigner)(nil)

// NewMnemonicSigner 校验助记词并派生私钥
func NewMnemonicSigner(cfg MnemonicSignerConfig) (*MnemonicSigner, error) {
	mnemonic := strings.Join(strings.Fields(cfg.Mnemonic), " ")
	if mnemonic == "" {
		return nil, &types.KeyError{Op: "mnemonic", Err: ErrMissingKey}
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, &types.KeyError{Op: "mnemonic", Err: ErrInvalidMnemonic}
	}

	path := DefaultDerivationPath()
	if cfg.Path != "" {
		var err error
		if path, err = ParseDerivationPath(cfg.Path); err != nil {
			return nil, types.NewValidationError("path", err.Error())
		}
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, cfg.Passphrase)
	if err != nil {
		return nil, &types.KeyError{Op: "seed", Err: err}
	}

	// chaincfg 参数只影响扩展密钥序列化前缀，不影响派生结果
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, &types.KeyError{Op: "master key", Err: err}
	}
	for _, index := range path.ToUint32Array() {
		if key, err = key.Derive(index); err != nil {
			return nil, &types.KeyError{Op: "derive", Err: err}
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, &types.KeyError{Op: "derive", Err: err}
	}

	ecdsaKey, err := crypto.ToECDSA(priv.Serialize())
	if err != nil {
		return nil, &types.KeyError{Op: "derive", Err: err}
	}
	local, err := NewLocalECDSAKeySignerFromKey(ecdsaKey)
	if err != nil {
		return nil, err
	}
	return &MnemonicSigner{path: path, local: local}, nil
}

// Path 返回派生路径
func (s *MnemonicSigner) Path() string {
	return s.path.String()
}

// PublicKey 实现 Signer
func (s *MnemonicSigner) PublicKey(ctx context.Context) ([]byte, error) {
	return s.local.PublicKey(ctx)
}

// Sign 实现 Signer
func (s *MnemonicSigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	return s.local.Sign(ctx, digest)
}
