package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// maxResponseSize 单个响应体上限
const maxResponseSize = 32 << 20

// JSONRPCTransport 基于 HTTP 的 JSON-RPC 2.0 传输
type JSONRPCTransport struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64
}

var _ Transport = (*JSONRPCTransport)(nil)

// NewJSONRPCTransport 创建 HTTP 传输；timeout 为 0 时使用 30s
func NewJSONRPCTransport(endpoint string, timeout time.Duration) *JSONRPCTransport {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &JSONRPCTransport{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Endpoint 返回节点地址
func (c *JSONRPCTransport) Endpoint() string {
	return c.endpoint
}

// Call 实现 Transport
func (c *JSONRPCTransport) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	reqBody, err := json.Marshal(newRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("http status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	// 请求无法解析时节点以 null id 返回错误
	if jsonResp.ID != id && !(jsonResp.ID == 0 && jsonResp.Error != nil) {
		return nil, fmt.Errorf("malformed response: id %d does not match request id %d", jsonResp.ID, id)
	}

	return jsonResp.result()
}

// Close 关闭空闲连接
func (c *JSONRPCTransport) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
