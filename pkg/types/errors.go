package types

import (
	"errors"
	"fmt"
)

// ==================== 错误分类 ====================
//
// ValidationError: 本地校验失败，不会发往网络
// KeyError:        签名器无法提供公钥或签名
// TransportError:  网络/超时/响应格式错误
// TimeoutError:    确认轮询超时，结果未知（不等于失败）
// 链上拒绝不是错误，调用方需检查解码后的 ProcessedMessage

var (
	// ErrMissingSigner 写调用未绑定钱包
	ErrMissingSigner = errors.New("missing signer: write call requires a wallet")
	// ErrAlreadyDeployed 账户已部署
	ErrAlreadyDeployed = errors.New("account already deployed")
	// ErrNotDeployed 账户尚未部署
	ErrNotDeployed = errors.New("account not deployed")
	// ErrUnknownFunction ABI 中不存在该函数
	ErrUnknownFunction = errors.New("unknown ABI function")
	// ErrAmbiguousFunction 函数名存在重载，需使用完整签名
	ErrAmbiguousFunction = errors.New("ambiguous ABI function")
)

// ValidationError 本地参数校验错误
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError 创建校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// KeyError 签名器错误
type KeyError struct {
	Op  string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key: %s: %v", e.Op, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

// TransportError 传输层错误
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError 轮询超时，表示结果未知
type TimeoutError struct {
	Op       string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s: outcome unknown after %d attempts", e.Op, e.Attempts)
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTransport 是否为传输错误
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsTimeout 是否为轮询超时
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsKey 是否为签名器错误
func IsKey(err error) bool {
	var target *KeyError
	return errors.As(err, &target)
}
