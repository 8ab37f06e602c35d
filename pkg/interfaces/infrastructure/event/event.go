// Package event 定义 SDK 事件总线接口与事件类型
package event

import (
	"github.com/weisyn/shardsdk/pkg/types"
)

// EventType 事件类型
type EventType string

// 钱包生命周期事件
const (
	// EventWalletDeployed 钱包部署已确认，数据为 WalletDeployed
	EventWalletDeployed EventType = "wallet.deployed"
	// EventMessageSubmitted 已签名消息提交成功，数据为 MessageSubmitted
	EventMessageSubmitted EventType = "wallet.message_submitted"
	// EventSubmitFailed 提交失败，数据为 SubmitFailed
	EventSubmitFailed EventType = "wallet.submit_failed"
)

// Publisher 事件发布能力
type Publisher interface {
	// Publish 同步调用所有同步订阅者
	Publish(eventType EventType, args ...interface{})
}

// EventBus 事件总线
type EventBus interface {
	Publisher

	// Subscribe 订阅事件；handler 必须是函数
	Subscribe(eventType EventType, handler interface{}) error
	// SubscribeOnce 一次性订阅事件
	SubscribeOnce(eventType EventType, handler interface{}) error
	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error
	// HasCallback 检查是否有回调函数
	HasCallback(eventType EventType) bool
}

// WalletDeployed 钱包部署事件数据
type WalletDeployed struct {
	Address types.Address
	Hash    types.Hash
}

// MessageSubmitted 消息提交事件数据
type MessageSubmitted struct {
	From  types.Address
	To    types.Address
	Kind  string
	Seqno uint64
	Hash  types.Hash
}

// SubmitFailed 提交失败事件数据
type SubmitFailed struct {
	From  types.Address
	To    types.Address
	Seqno uint64
	Err   error
}
