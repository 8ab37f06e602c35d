// Package address derives deterministic contract addresses for sharded accounts.
package address

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/weisyn/shardsdk/pkg/types"
)

// Derive 计算合约地址
//
// address = shard(2字节大端) ‖ keccak256(shard ‖ pubkey ‖ salt(32字节) ‖ initCode)[14:]
//
// 纯函数：相同输入总是得到相同地址；不同分片的地址前缀必然不同。
func Derive(shard types.ShardID, pubkey []byte, salt *uint256.Int, initCode []byte) (types.Address, error) {
	var out types.Address
	if err := shard.Validate(); err != nil {
		return out, err
	}
	if len(pubkey) == 0 {
		return out, types.NewValidationError("pubkey", "empty public key")
	}
	if len(initCode) == 0 {
		return out, types.NewValidationError("bytecode", "empty init code")
	}
	if salt == nil {
		salt = new(uint256.Int)
	}

	var shardBytes [types.ShardIDLength]byte
	binary.BigEndian.PutUint16(shardBytes[:], uint16(shard))
	saltBytes := salt.Bytes32()

	h := sha3.NewLegacyKeccak256()
	h.Write(shardBytes[:])
	h.Write(pubkey)
	h.Write(saltBytes[:])
	h.Write(initCode)
	digest := h.Sum(nil)

	copy(out[:types.ShardIDLength], shardBytes[:])
	copy(out[types.ShardIDLength:], digest[len(digest)-(types.AddressLength-types.ShardIDLength):])
	return out, nil
}

// MustDerive 派生失败时 panic，仅用于测试与常量
func MustDerive(shard types.ShardID, pubkey []byte, salt *uint256.Int, initCode []byte) types.Address {
	addr, err := Derive(shard, pubkey, salt, initCode)
	if err != nil {
		panic(err)
	}
	return addr
}
