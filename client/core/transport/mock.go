package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockHandler 按请求返回结果；结果会被 JSON 序列化后交给调用方
type MockHandler func(req Request) (interface{}, error)

// MockTransport 可编程的测试传输
//
// 按调用顺序记录请求，处理器可以持有状态（例如先返回空代码、部署后返回字节码）。
type MockTransport struct {
	handler MockHandler

	mu     sync.Mutex
	calls  []Request
	closed bool
}

var _ Transport = (*MockTransport)(nil)

// NewMockTransport 创建 mock 传输
func NewMockTransport(handler MockHandler) *MockTransport {
	return &MockTransport{handler: handler}
}

// Call 实现 Transport；处理器在锁内执行，调用严格串行
func (m *MockTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrTransportClosed
	}

	req := Request{Method: method, Params: params}
	m.calls = append(m.calls, req)

	result, err := m.handler(req)
	if err != nil {
		return nil, err
	}
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal mock result: %w", err)
	}
	return raw, nil
}

// Close 实现 Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls 返回按顺序记录的请求副本
func (m *MockTransport) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 统计某方法的调用次数
func (m *MockTransport) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Methods 返回按顺序的方法名列表
func (m *MockTransport) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Method
	}
	return out
}
