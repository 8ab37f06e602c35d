package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const (
	// AddressLength 地址字节长度
	AddressLength = 20
	// ShardIDLength 地址前缀中分片号所占字节
	ShardIDLength = 2
	// HashLength 哈希字节长度
	HashLength = 32
)

// ShardID 分片标识
type ShardID uint16

// MainShardID 主分片，不接受用户合约
const MainShardID ShardID = 0

// MaxShardID 允许的最大分片号
const MaxShardID ShardID = 0xFFFF

// Validate 校验用户分片号
func (s ShardID) Validate() error {
	if s == MainShardID {
		return NewValidationError("shardId", "main shard is not addressable by user contracts")
	}
	return nil
}

// Address 20 字节地址：前 2 字节为大端分片号，后 18 字节为合约后缀
type Address [AddressLength]byte

// EmptyAddress 零地址
var EmptyAddress Address

// ShardID 返回地址所在分片
func (a Address) ShardID() ShardID {
	return ShardID(binary.BigEndian.Uint16(a[:ShardIDLength]))
}

// Bytes 返回地址字节副本
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// Hex 返回小写十六进制表示
func (a Address) Hex() string {
	return HexPrefix + hex.EncodeToString(a[:])
}

// String 实现 fmt.Stringer
func (a Address) String() string {
	return a.Hex()
}

// IsEmpty 是否为零地址
func (a Address) IsEmpty() bool {
	return a == EmptyAddress
}

// BytesToAddress 将字节转换为地址（长度必须为 20）
func BytesToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, NewValidationError("address", "must be 20 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress 解析十六进制地址
func ParseAddress(s string) (Address, error) {
	h, err := ParseHex(s)
	if err != nil {
		return EmptyAddress, NewValidationError("address", "invalid hex literal")
	}
	return BytesToAddress(h.Bytes())
}

// MustParseAddress 解析失败时 panic，仅用于常量与测试
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalJSON 序列化为十六进制字符串
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON 反序列化；空字符串与 null 视为零地址
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("address", "not a JSON string")
	}
	if s == "" || strings.EqualFold(s, HexPrefix) {
		*a = EmptyAddress
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Hash 32 字节消息/交易哈希
type Hash [HashLength]byte

// ParseHash 解析 0x + 64 位十六进制哈希
func ParseHash(s string) (Hash, error) {
	var out Hash
	h, err := ParseHex(s)
	if err != nil {
		return out, NewValidationError("hash", "invalid hex literal")
	}
	if h.Len() != HashLength {
		return out, NewValidationError("hash", "must be 32 bytes")
	}
	copy(out[:], h.Bytes())
	return out, nil
}

// Hex 返回 66 字符的十六进制表示
func (h Hash) Hex() string {
	return HexPrefix + hex.EncodeToString(h[:])
}

// String 实现 fmt.Stringer
func (h Hash) String() string {
	return h.Hex()
}

// MarshalJSON 序列化为十六进制字符串
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON 反序列化十六进制哈希；空字符串视为零哈希
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("hash", "not a JSON string")
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
