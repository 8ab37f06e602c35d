package signer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/shardsdk/pkg/types"
)

func TestLocalSignerSignAndVerify(t *testing.T) {
	ctx := context.Background()
	priv, err := GenerateRandomPrivateKey()
	require.NoError(t, err)
	require.Equal(t, 32, priv.Len())

	s, err := NewLocalECDSAKeySigner(priv)
	require.NoError(t, err)

	pub, err := s.PublicKey(ctx)
	require.NoError(t, err)
	require.Len(t, pub, PublicKeyLength)

	digest := crypto.Keccak256([]byte("payload"))
	sig, err := s.Sign(ctx, digest)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	require.True(t, Verify(pub, digest, sig))

	recovered, err := RecoverPublicKey(digest, sig)
	require.NoError(t, err)
	require.Equal(t, pub, recovered)

	other := crypto.Keccak256([]byte("other"))
	require.False(t, Verify(pub, other, sig))
}

func TestLocalSignerErrors(t *testing.T) {
	tests := []struct {
		name string
		key  types.Hex
	}{
		{"empty", ""},
		{"zero length", "0x"},
		{"short", "0x0102"},
		{"zero key", types.HexFromBytes(make([]byte, 32))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocalECDSAKeySigner(tt.key)
			require.Error(t, err)
			require.True(t, types.IsKey(err))
		})
	}

	var nilSigner *LocalECDSAKeySigner
	_, err := nilSigner.Sign(context.Background(), make([]byte, 32))
	require.True(t, types.IsKey(err))
}

func TestLocalSignerRejectsBadDigest(t *testing.T) {
	priv, err := GenerateRandomPrivateKey()
	require.NoError(t, err)
	s, err := NewLocalECDSAKeySigner(priv)
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), []byte{1, 2, 3})
	require.True(t, types.IsValidation(err))
}

func TestLocalSignerDeterministicPublicKey(t *testing.T) {
	priv := types.MustParseHex("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	a, err := NewLocalECDSAKeySigner(priv)
	require.NoError(t, err)
	b, err := NewLocalECDSAKeySigner(priv)
	require.NoError(t, err)

	pa, _ := a.PublicKey(context.Background())
	pb, _ := b.PublicKey(context.Background())
	require.Equal(t, pa, pb)
}
