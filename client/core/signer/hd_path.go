package signer

import (
	"fmt"
	"strconv"
	"strings"
)

// BIP44 相关常量
const (
	// DefaultCoinType EVM 兼容链的 BIP44 Coin Type
	DefaultCoinType uint32 = 60

	// BIP44Purpose BIP44 标准的 purpose 值
	BIP44Purpose uint32 = 44

	// HardenedOffset 硬化派生偏移量
	HardenedOffset uint32 = 0x80000000
)

// DerivationPath BIP44 派生路径 m/purpose'/coin'/account'/change/index
type DerivationPath struct {
	Purpose      uint32
	CoinType     uint32
	Account      uint32
	Change       uint32
	AddressIndex uint32
}

// DefaultDerivationPath m/44'/60'/0'/0/0
func DefaultDerivationPath() DerivationPath {
	return DerivationPath{
		Purpose:  BIP44Purpose,
		CoinType: DefaultCoinType,
	}
}

// ParseDerivationPath 解析派生路径字符串
// 支持格式: m/44'/60'/0'/0/0 或 44'/60'/0'/0/0
func ParseDerivationPath(path string) (DerivationPath, error) {
	var dp DerivationPath

	path = strings.TrimPrefix(path, "m/")
	path = strings.TrimPrefix(path, "M/")

	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return dp, fmt.Errorf("invalid derivation path: expected 5 components, got %d", len(parts))
	}

	fields := []*uint32{&dp.Purpose, &dp.CoinType, &dp.Account, &dp.Change, &dp.AddressIndex}
	for i, part := range parts {
		v, err := parsePathComponent(part, i < 3)
		if err != nil {
			return dp, fmt.Errorf("component %d: %w", i, err)
		}
		*fields[i] = v
	}
	if dp.Purpose != BIP44Purpose {
		return dp, fmt.Errorf("invalid purpose: expected %d (BIP44), got %d", BIP44Purpose, dp.Purpose)
	}
	if dp.Change > 1 {
		return dp, fmt.Errorf("invalid change: expected 0 or 1, got %d", dp.Change)
	}
	return dp, nil
}

// parsePathComponent 解析路径组件；前三级要求硬化派生
func parsePathComponent(component string, requireHardened bool) (uint32, error) {
	isHardened := strings.HasSuffix(component, "'") || strings.HasSuffix(component, "h") || strings.HasSuffix(component, "H")
	if requireHardened && !isHardened {
		return 0, fmt.Errorf("hardened derivation required for %s", component)
	}
	if !requireHardened && isHardened {
		return 0, fmt.Errorf("unexpected hardened component %s", component)
	}

	component = strings.TrimRight(component, "'hH")
	value, err := strconv.ParseUint(component, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", component)
	}
	return uint32(value), nil
}

// String 返回路径字符串表示
func (dp DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", dp.Purpose, dp.CoinType, dp.Account, dp.Change, dp.AddressIndex)
}

// ToUint32Array 返回 hdkeychain 派生用的索引（前三级带硬化偏移）
func (dp DerivationPath) ToUint32Array() []uint32 {
	return []uint32{
		dp.Purpose + HardenedOffset,
		dp.CoinType + HardenedOffset,
		dp.Account + HardenedOffset,
		dp.Change,
		dp.AddressIndex,
	}
}
