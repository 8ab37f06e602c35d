// Package transport provides pluggable JSON-RPC transports for the shard client.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport 统一传输接口 - 客户端与节点通信的唯一通道
//
// 调用顺序有意义：实现不得重排或合并请求。
type Transport interface {
	// Call 发送一次 RPC 调用，返回 result 的原始 JSON
	Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)

	// Close 释放连接
	Close() error
}

// Request 一次 RPC 调用（用于 mock 与中间件）
type Request struct {
	Method string
	Params []interface{}
}

// RPCError 节点返回的 JSON-RPC 错误对象
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// jsonrpcRequest JSON-RPC 2.0 请求
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonrpcResponse JSON-RPC 2.0 响应
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// newRequest 构建请求；nil params 序列化为空数组
func newRequest(id uint64, method string, params []interface{}) *jsonrpcRequest {
	if params == nil {
		params = []interface{}{}
	}
	return &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// result 取出响应结果或错误
func (r *jsonrpcResponse) result() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	if len(r.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return r.Result, nil
}
