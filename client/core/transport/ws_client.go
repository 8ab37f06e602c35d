package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTransportClosed 传输已关闭
var ErrTransportClosed = errors.New("transport closed")

// WebSocketTransport 基于 WebSocket 的 JSON-RPC 传输
//
// 单连接，读循环按 id 把响应分发给等待中的调用。
type WebSocketTransport struct {
	endpoint string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	nextID   atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *jsonrpcResponse
	err     error

	closeCh   chan struct{}
	closeOnce sync.Once
}

var _ Transport = (*WebSocketTransport)(nil)

// DialWebSocket 连接节点 WebSocket 端点
func DialWebSocket(ctx context.Context, endpoint string) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	t := &WebSocketTransport{
		endpoint: endpoint,
		conn:     conn,
		pending:  make(map[uint64]chan *jsonrpcResponse),
		closeCh:  make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// Call 实现 Transport
func (t *WebSocketTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	ch := make(chan *jsonrpcResponse, 1)

	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, err
	}
	t.pending[id] = ch
	t.mu.Unlock()
	defer t.forget(id)

	t.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	err := t.conn.WriteJSON(newRequest(id, method, params))
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, t.closedErr()
		}
		return resp.result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close 关闭连接，所有等待中的调用返回 ErrTransportClosed
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closeCh)
		t.writeMu.Lock()
		_ = t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		err = t.conn.Close()
		t.fail(ErrTransportClosed)
	})
	return err
}

// readLoop 读取响应并分发
func (t *WebSocketTransport) readLoop() {
	for {
		var resp jsonrpcResponse
		if err := t.conn.ReadJSON(&resp); err != nil {
			select {
			case <-t.closeCh:
				t.fail(ErrTransportClosed)
			default:
				t.fail(fmt.Errorf("read response: %w", err))
			}
			return
		}

		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		delete(t.pending, resp.ID)
		t.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

// fail 标记连接失效并唤醒所有等待者
func (t *WebSocketTransport) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

func (t *WebSocketTransport) forget(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *WebSocketTransport) closedErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	return ErrTransportClosed
}
