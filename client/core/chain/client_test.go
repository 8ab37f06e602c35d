package chain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weisyn/shardsdk/client/core/transport"
	"github.com/weisyn/shardsdk/pkg/types"
)

var (
	addr1 = types.MustParseAddress("0x00013dc0a0533a7125e9150876a852698686ff43")
	addr2 = types.MustParseAddress("0x00023dc0a0533a7125e9150876a852698686ff43")
	zero  = "0x" + strings.Repeat("00", 32)
)

func newTestClient(t *testing.T, h transport.MockHandler) (*Client, *transport.MockTransport) {
	t.Helper()
	mt := transport.NewMockTransport(h)
	c, err := New(mt, 1)
	require.NoError(t, err)
	return c, mt
}

func TestNewRejectsMainShard(t *testing.T) {
	_, err := New(transport.NewMockTransport(nil), types.MainShardID)
	require.True(t, types.IsValidation(err))
}

func TestGetBalance(t *testing.T) {
	c, mt := newTestClient(t, func(req transport.Request) (interface{}, error) {
		require.Equal(t, transport.MethodGetBalance, req.Method)
		require.Equal(t, []interface{}{addr1.Hex(), transport.BlockLatest}, req.Params)
		return "0xeeeeeee", nil
	})

	bal, err := c.GetBalance(context.Background(), addr1)
	require.NoError(t, err)
	require.Equal(t, uint64(0xeeeeeee), bal.Uint64())
	require.Equal(t, 1, mt.CallCount(transport.MethodGetBalance))
}

func TestWrongShardNeverReachesTransport(t *testing.T) {
	c, mt := newTestClient(t, func(req transport.Request) (interface{}, error) {
		return "0x0", nil
	})
	ctx := context.Background()

	_, err := c.GetBalance(ctx, addr2)
	require.True(t, types.IsValidation(err))
	_, err = c.GetCode(ctx, addr2)
	require.True(t, types.IsValidation(err))
	_, err = c.GetSeqno(ctx, addr2)
	require.True(t, types.IsValidation(err))
	require.Empty(t, mt.Calls())
}

func TestGetCodeCachesOnlyDeployed(t *testing.T) {
	deployed := false
	c, mt := newTestClient(t, func(req transport.Request) (interface{}, error) {
		if deployed {
			return "0x6080", nil
		}
		deployed = true
		return "", nil
	})
	ctx := context.Background()

	code, err := c.GetCode(ctx, addr1)
	require.NoError(t, err)
	require.Empty(t, code)

	code, err = c.GetCode(ctx, addr1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x80}, code)

	code, err = c.GetCode(ctx, addr1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x80}, code)
	require.Equal(t, 2, mt.CallCount(transport.MethodGetCode))
}

func TestGetSeqno(t *testing.T) {
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		return "0x2a", nil
	})
	n, err := c.GetSeqno(context.Background(), addr1)
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestCall(t *testing.T) {
	tests := []struct {
		name   string
		result interface{}
		want   []byte
	}{
		{"object", map[string]string{"data": "0x01ff"}, []byte{0x01, 0xff}},
		{"bare string", "0x0a", []byte{0x0a}},
		{"empty data", map[string]string{"data": ""}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mt := newTestClient(t, func(req transport.Request) (interface{}, error) {
				return tt.result, nil
			})
			// 只读调用可以指向其他分片的地址
			out, err := c.Call(context.Background(), CallArgs{To: addr2, Data: []byte{1}})
			require.NoError(t, err)
			require.Equal(t, len(tt.want), len(out))
			if len(tt.want) > 0 {
				require.Equal(t, tt.want, out)
			}
			calls := mt.Calls()
			require.Len(t, calls, 1)
			require.Equal(t, transport.MethodCall, calls[0].Method)
		})
	}
}

func TestSendRawTransaction(t *testing.T) {
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		require.Equal(t, "0xc0", req.Params[0])
		return zero, nil
	})
	h, err := c.SendRawTransaction(context.Background(), []byte{0xc0})
	require.NoError(t, err)
	require.Len(t, h.Hex(), 66)

	_, err = c.SendRawTransaction(context.Background(), nil)
	require.True(t, types.IsValidation(err))
}

func TestSendRawTransactionMalformedHash(t *testing.T) {
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		return "0x1234", nil
	})
	_, err := c.SendRawTransaction(context.Background(), []byte{0xc0})
	require.True(t, types.IsTransport(err))
}

func TestTransportErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		return nil, boom
	})
	_, err := c.GetBalance(context.Background(), addr1)
	require.True(t, types.IsTransport(err))
	require.ErrorIs(t, err, boom)
}

func TestGetProcessedMessage(t *testing.T) {
	var mu sync.Mutex
	lookups := 0
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, uint16(1), req.Params[0])
		lookups++
		if lookups < 3 {
			return nil, nil
		}
		return map[string]interface{}{
			"success": true,
			"hash":    zero,
			"seqno":   "0x1",
			"index":   "0x2",
			"to":      addr1.Hex(),
		}, nil
	})

	hash, _ := types.ParseHash(zero)
	m, err := c.WaitForMessage(context.Background(), hash, PollConfig{Interval: time.Millisecond, MaxAttempts: 5})
	require.NoError(t, err)
	require.NotNil(t, m)
	require.True(t, m.Success)
	require.False(t, m.Rejected())
	require.NotNil(t, m.Index)
	require.Equal(t, types.Uint64Quantity(2), *m.Index)
	require.Equal(t, 3, lookups)
}

func TestWaitForMessageTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(req transport.Request) (interface{}, error) {
		return nil, nil
	})
	hash, _ := types.ParseHash(zero)
	_, err := c.WaitForMessage(context.Background(), hash, PollConfig{Interval: time.Millisecond, MaxAttempts: 3})
	require.True(t, types.IsTimeout(err))
}
