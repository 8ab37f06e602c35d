// Package event 基于 asaskevich/EventBus 的事件总线实现
package event

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"

	eventInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
)

// EventBus 事件总线
//
// 只提供同步订阅：发布在调用方的 goroutine 中执行全部回调。
type EventBus struct {
	bus    evbus.Bus
	logger log.Logger
}

var _ eventInterface.EventBus = (*EventBus)(nil)

// New 创建事件总线；logger 可以为 nil
func New(logger log.Logger) *EventBus {
	eb := &EventBus{bus: evbus.New()}
	if logger != nil {
		eb.logger = logger.With("module", "event")
	}
	return eb
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType eventInterface.EventType, handler interface{}) error {
	if err := eb.bus.Subscribe(string(eventType), handler); err != nil {
		return fmt.Errorf("subscribe %s: %w", eventType, err)
	}
	return nil
}

// SubscribeOnce 实现一次性订阅
func (eb *EventBus) SubscribeOnce(eventType eventInterface.EventType, handler interface{}) error {
	if err := eb.bus.SubscribeOnce(string(eventType), handler); err != nil {
		return fmt.Errorf("subscribe once %s: %w", eventType, err)
	}
	return nil
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType eventInterface.EventType, handler interface{}) error {
	if err := eb.bus.Unsubscribe(string(eventType), handler); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", eventType, err)
	}
	return nil
}

// HasCallback 检查是否有回调函数
func (eb *EventBus) HasCallback(eventType eventInterface.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// Publish 发布事件
func (eb *EventBus) Publish(eventType eventInterface.EventType, args ...interface{}) {
	if eb.logger != nil {
		eb.logger.Debugf("publish %s", eventType)
	}
	eb.bus.Publish(string(eventType), args...)
}
