package signer

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/shardsdk/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	tests := []struct {
		strength MnemonicStrength
		words    int
	}{
		{Mnemonic12Words, 12},
		{Mnemonic24Words, 24},
	}
	for _, tt := range tests {
		m, err := GenerateMnemonic(tt.strength)
		require.NoError(t, err)
		require.Len(t, strings.Fields(m), tt.words)

		_, err = NewMnemonicSigner(MnemonicSignerConfig{Mnemonic: m})
		require.NoError(t, err)
	}

	_, err := GenerateMnemonic(64)
	require.Error(t, err)
}

func TestMnemonicSignerKnownVector(t *testing.T) {
	s, err := NewMnemonicSigner(MnemonicSignerConfig{Mnemonic: testMnemonic})
	require.NoError(t, err)
	require.Equal(t, "m/44'/60'/0'/0/0", s.Path())

	pub, err := s.PublicKey(context.Background())
	require.NoError(t, err)
	key, err := crypto.DecompressPubkey(pub)
	require.NoError(t, err)
	require.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", crypto.PubkeyToAddress(*key).Hex())
}

func TestMnemonicSignerPaths(t *testing.T) {
	a, err := NewMnemonicSigner(MnemonicSignerConfig{Mnemonic: testMnemonic, Path: "m/44'/60'/0'/0/0"})
	require.NoError(t, err)
	b, err := NewMnemonicSigner(MnemonicSignerConfig{Mnemonic: testMnemonic, Path: "m/44'/60'/0'/0/1"})
	require.NoError(t, err)

	pa, _ := a.PublicKey(context.Background())
	pb, _ := b.PublicKey(context.Background())
	require.NotEqual(t, pa, pb)

	digest := crypto.Keccak256([]byte("hello"))
	sig, err := b.Sign(context.Background(), digest)
	require.NoError(t, err)
	require.True(t, Verify(pb, digest, sig))
}

func TestMnemonicSignerErrors(t *testing.T) {
	tests := []struct {
		name       string
		cfg        MnemonicSignerConfig
		validation bool
	}{
		{"empty", MnemonicSignerConfig{}, false},
		{"invalid words", MnemonicSignerConfig{Mnemonic: "invalid mnemonic words"}, false},
		{"bad path", MnemonicSignerConfig{Mnemonic: testMnemonic, Path: "m/44/60/0/0/0"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMnemonicSigner(tt.cfg)
			require.Error(t, err)
			if tt.validation {
				require.True(t, types.IsValidation(err))
			} else {
				require.True(t, types.IsKey(err))
			}
		})
	}
}

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"default", "m/44'/60'/0'/0/0", "m/44'/60'/0'/0/0", false},
		{"no prefix", "44'/60'/1'/1/7", "m/44'/60'/1'/1/7", false},
		{"h suffix", "m/44h/60h/0h/0/3", "m/44'/60'/0'/0/3", false},
		{"too short", "m/44'/60'", "", true},
		{"unhardened account", "m/44'/60'/0/0/0", "", true},
		{"hardened index", "m/44'/60'/0'/0/0'", "", true},
		{"wrong purpose", "m/49'/60'/0'/0/0", "", true},
		{"bad change", "m/44'/60'/0'/2/0", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, err := ParseDerivationPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, dp.String())
		})
	}
}

func TestDerivationPathIndexes(t *testing.T) {
	dp := DefaultDerivationPath()
	dp.AddressIndex = 5
	require.Equal(t, []uint32{44 + HardenedOffset, 60 + HardenedOffset, HardenedOffset, 0, 5}, dp.ToUint32Array())
}
