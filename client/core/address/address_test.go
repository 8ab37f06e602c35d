package address

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/weisyn/shardsdk/pkg/types"
)

func TestDeriveDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shard := types.ShardID(rapid.Uint16Range(1, 0xFFFF).Draw(t, "shard"))
		pubkey := rapid.SliceOfN(rapid.Byte(), 33, 33).Draw(t, "pubkey")
		salt := uint256.NewInt(rapid.Uint64().Draw(t, "salt"))
		code := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "code")

		a1, err := Derive(shard, pubkey, salt, code)
		if err != nil {
			t.Fatalf("Derive: %v", err)
		}
		a2, err := Derive(shard, bytes.Clone(pubkey), salt.Clone(), bytes.Clone(code))
		if err != nil {
			t.Fatalf("Derive: %v", err)
		}
		if a1 != a2 {
			t.Fatalf("non-deterministic: %s != %s", a1, a2)
		}
		if a1.ShardID() != shard {
			t.Fatalf("shard prefix = %d, want %d", a1.ShardID(), shard)
		}
	})
}

func TestDeriveInputSensitivity(t *testing.T) {
	pubkey := bytes.Repeat([]byte{0x02}, 33)
	code := []byte{0x60, 0x80, 0x60, 0x40}
	base := MustDerive(1, pubkey, uint256.NewInt(100), code)

	otherPub := bytes.Clone(pubkey)
	otherPub[32] ^= 0x01
	otherCode := append(bytes.Clone(code), 0x00)

	variants := map[string]types.Address{
		"shard":  MustDerive(2, pubkey, uint256.NewInt(100), code),
		"pubkey": MustDerive(1, otherPub, uint256.NewInt(100), code),
		"salt":   MustDerive(1, pubkey, uint256.NewInt(101), code),
		"code":   MustDerive(1, pubkey, uint256.NewInt(100), otherCode),
	}
	for name, addr := range variants {
		t.Run(name, func(t *testing.T) {
			require.NotEqual(t, base, addr)
		})
	}
	require.NotEqual(t, base.ShardID(), variants["shard"].ShardID())
}

func TestDeriveValidation(t *testing.T) {
	pubkey := bytes.Repeat([]byte{0x03}, 33)

	_, err := Derive(types.MainShardID, pubkey, nil, []byte{1})
	require.True(t, types.IsValidation(err))

	_, err = Derive(1, nil, nil, []byte{1})
	require.True(t, types.IsValidation(err))

	_, err = Derive(1, pubkey, nil, nil)
	require.True(t, types.IsValidation(err))

	addr, err := Derive(1, pubkey, nil, []byte{1})
	require.NoError(t, err)
	require.Equal(t, MustDerive(1, pubkey, uint256.NewInt(0), []byte{1}), addr)
}
