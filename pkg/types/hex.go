package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"
)

// HexPrefix 十六进制字面量前缀
const HexPrefix = "0x"

// Hex 经过校验的十六进制字面量
//
// 不变量：以 0x 开头、长度为偶数、内容为合法十六进制（大小写均可）。
// "0x" 表示空字节串。
type Hex string

// EmptyHex 空字节串
const EmptyHex Hex = HexPrefix

// ParseHex 解析并校验十六进制字面量
func ParseHex(s string) (Hex, error) {
	if !strings.HasPrefix(s, HexPrefix) && !strings.HasPrefix(s, "0X") {
		return "", NewValidationError("hex", "missing 0x prefix")
	}
	body := s[2:]
	if len(body)%2 != 0 {
		return "", NewValidationError("hex", "odd length")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", NewValidationError("hex", "invalid hex digit")
	}
	return Hex(HexPrefix + body), nil
}

// MustParseHex 解析失败时 panic，仅用于常量
func MustParseHex(s string) Hex {
	h, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

// HexFromBytes 字节转十六进制（小写）
func HexFromBytes(b []byte) Hex {
	return Hex(HexPrefix + hex.EncodeToString(b))
}

// Bytes 返回原始字节；Hex 值通过 ParseHex 构造时不会失败
func (h Hex) Bytes() []byte {
	s := string(h)
	if len(s) >= 2 {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Len 字节长度
func (h Hex) Len() int {
	if len(h) < 2 {
		return 0
	}
	return (len(h) - 2) / 2
}

// IsEmpty 是否为空字节串
func (h Hex) IsEmpty() bool {
	return h.Len() == 0
}

// String 实现 fmt.Stringer
func (h Hex) String() string {
	if h == "" {
		return string(EmptyHex)
	}
	return string(h)
}

// MarshalJSON 序列化为 JSON 字符串
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON 反序列化；空字符串视为空字节串
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("hex", "not a JSON string")
	}
	if s == "" {
		*h = EmptyHex
		return nil
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
