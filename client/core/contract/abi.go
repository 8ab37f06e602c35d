// Package contract binds ABI functions of a deployed contract to read and write calls.
package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/weisyn/shardsdk/pkg/types"
)

// ParseABI 解析 JSON ABI
func ParseABI(data string) (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		return nil, types.NewValidationError("abi", err.Error())
	}
	return &parsed, nil
}

// MustParseABI 解析失败时 panic，仅用于常量与测试
func MustParseABI(data string) *abi.ABI {
	parsed, err := ParseABI(data)
	if err != nil {
		panic(err)
	}
	return parsed
}
