package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Quantity 金额/费用数量，JSON 中可为数字、十进制字符串或 0x 十六进制字符串
type Quantity struct {
	uint256.Int
}

// NewQuantity 由 uint64 创建
func NewQuantity(v uint64) Quantity {
	var q Quantity
	q.SetUint64(v)
	return q
}

// Big 返回 uint256 副本
func (q Quantity) Big() *uint256.Int {
	return new(uint256.Int).Set(&q.Int)
}

// MarshalJSON 序列化为十六进制字符串
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Hex())
}

// UnmarshalJSON 反序列化
func (q *Quantity) UnmarshalJSON(data []byte) error {
	s, err := quantityString(data)
	if err != nil {
		return err
	}
	if s == "" {
		q.Clear()
		return nil
	}
	v, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	q.Set(v)
	return nil
}

// ParseQuantity 解析十进制或 0x 十六进制数量
func ParseQuantity(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, HexPrefix) {
		if s == HexPrefix {
			return new(uint256.Int), nil
		}
		v, err := uint256.FromHex(trimLeadingZeros(s))
		if err != nil {
			return nil, NewValidationError("quantity", err.Error())
		}
		return v, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, NewValidationError("quantity", err.Error())
	}
	return v, nil
}

// trimLeadingZeros uint256.FromHex 拒绝前导零
func trimLeadingZeros(s string) string {
	body := strings.TrimLeft(s[2:], "0")
	if body == "" {
		body = "0"
	}
	return HexPrefix + body
}

// Uint64Quantity 区块高度、序列号等 64 位数量
type Uint64Quantity uint64

// MarshalJSON 序列化为十六进制字符串
func (q Uint64Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(HexPrefix + strconv.FormatUint(uint64(q), 16))
}

// UnmarshalJSON 反序列化
func (q *Uint64Quantity) UnmarshalJSON(data []byte) error {
	s, err := quantityString(data)
	if err != nil {
		return err
	}
	v, err := ParseUint64Quantity(s)
	if err != nil {
		return err
	}
	*q = Uint64Quantity(v)
	return nil
}

// ParseUint64Quantity 解析十进制或 0x 十六进制 uint64
func ParseUint64Quantity(s string) (uint64, error) {
	if s == "" || s == HexPrefix {
		return 0, nil
	}
	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, HexPrefix) {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, NewValidationError("quantity", err.Error())
	}
	return v, nil
}

// quantityString 统一取出 JSON 数字或字符串的文本
func quantityString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", NewValidationError("quantity", "invalid JSON string")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", NewValidationError("quantity", "not a number")
	}
	return n.String(), nil
}
