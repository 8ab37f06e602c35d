package contract

import (
	"context"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/core/signer"
	"github.com/weisyn/shardsdk/client/core/transport"
	"github.com/weisyn/shardsdk/client/core/wallet"
	"github.com/weisyn/shardsdk/pkg/types"
)

var (
	counterAddr = types.MustParseAddress("0x00013dc0a0533a7125e9150876a852698686ff43")
	zeroWord    = "0x" + strings.Repeat("00", 32)
	walletCode  = []byte{0x60, 0x80, 0x60, 0x40}
)

func loadCounter(t *testing.T) (abiJSON string, bin types.Hex) {
	t.Helper()
	a, err := os.ReadFile("testdata/counter.abi.json")
	require.NoError(t, err)
	b, err := os.ReadFile("testdata/counter.bin")
	require.NoError(t, err)
	return string(a), types.MustParseHex(strings.TrimSpace(string(b)))
}

func newSigner(t *testing.T) (*signer.LocalECDSAKeySigner, []byte) {
	t.Helper()
	priv, err := signer.GenerateRandomPrivateKey()
	require.NoError(t, err)
	s, err := signer.NewLocalECDSAKeySigner(priv)
	require.NoError(t, err)
	pub, err := s.PublicKey(context.Background())
	require.NoError(t, err)
	return s, pub
}

// TestContractFactory 自部署 → 部署计数器合约 → 读 getCounter → 写 setCounter
func TestContractFactory(t *testing.T) {
	ctx := context.Background()
	abiJSON, bin := loadCounter(t)
	counterABI, err := ParseABI(abiJSON)
	require.NoError(t, err)

	deployed := false
	mt := transport.NewMockTransport(func(req transport.Request) (interface{}, error) {
		switch req.Method {
		case transport.MethodGetBalance:
			return "0xeeeeeee", nil
		case transport.MethodGetCode:
			if deployed {
				return bin.String(), nil
			}
			deployed = true
			return "", nil
		case transport.MethodCall:
			return map[string]string{"data": zeroWord}, nil
		case transport.MethodSendRawTransaction:
			return zeroWord, nil
		}
		return "0x0", nil
	})

	client, err := chain.New(mt, 1)
	require.NoError(t, err)
	s, pub := newSigner(t)

	w, err := wallet.New(wallet.Config{
		PublicKey: pub,
		Salt:      uint256.NewInt(100),
		ShardID:   1,
		Client:    client,
		Signer:    s,
		Code:      walletCode,
		Poll:      chain.PollConfig{Interval: time.Millisecond, MaxAttempts: 5},
	})
	require.NoError(t, err)

	_, err = w.SelfDeploy(ctx, true)
	require.NoError(t, err)
	require.Equal(t, wallet.StateDeployed, w.State())

	_, _, err = w.DeployContract(ctx, wallet.DeployParams{
		ShardID:   1,
		Salt:      uint256.NewInt(1),
		ABI:       counterABI,
		Args:      []interface{}{big.NewInt(0)},
		Bytecode:  bin.Bytes(),
		FeeCredit: uint256.NewInt(50_000_000),
	})
	require.NoError(t, err)

	contract, err := GetContract(Params{
		Client:  client,
		ABI:     counterABI,
		Address: counterAddr,
		Wallet:  w,
	})
	require.NoError(t, err)

	res, err := contract.ReadOne(ctx, "getCounter")
	require.NoError(t, err)
	require.Equal(t, 0, res.(*big.Int).Sign())

	hash, err := contract.Write(ctx, "setCounter", big.NewInt(100))
	require.NoError(t, err)
	require.Len(t, hash.Hex(), 66)

	methods := mt.Methods()
	require.Equal(t, transport.MethodGetCode, methods[0])
	require.Equal(t, transport.MethodSendRawTransaction, methods[len(methods)-1])
}

type fakeCaller struct {
	out  []byte
	err  error
	args []chain.CallArgs
}

func (f *fakeCaller) Call(ctx context.Context, args chain.CallArgs) ([]byte, error) {
	f.args = append(f.args, args)
	return f.out, f.err
}

type fakeSender struct {
	addr types.Address
	sent []wallet.SendParams
}

func (f *fakeSender) Address() types.Address { return f.addr }

func (f *fakeSender) SendMessage(ctx context.Context, p wallet.SendParams) (types.Hash, error) {
	f.sent = append(f.sent, p)
	return types.Hash{0x01}, nil
}

const overloadedABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"balance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"bool"}]}
]`

func TestFunctionsClassification(t *testing.T) {
	abiJSON, _ := loadCounter(t)
	c, err := GetContract(Params{Client: &fakeCaller{}, ABI: MustParseABI(abiJSON), Address: counterAddr})
	require.NoError(t, err)

	read, write := c.Functions()
	require.Contains(t, read, "getCounter")
	require.Contains(t, read, "getCounter()")
	require.Contains(t, write, "setCounter")
	require.Contains(t, write, "setCounter(uint256)")
	require.Contains(t, write, "receiveMoney")
	require.NotContains(t, write, "getCounter")
	require.NotContains(t, read, "increment")
}

func TestGetContractValidation(t *testing.T) {
	abiJSON, _ := loadCounter(t)
	parsed := MustParseABI(abiJSON)

	_, err := GetContract(Params{ABI: parsed, Address: counterAddr})
	require.True(t, types.IsValidation(err))
	_, err = GetContract(Params{Client: &fakeCaller{}, Address: counterAddr})
	require.True(t, types.IsValidation(err))
	_, err = GetContract(Params{Client: &fakeCaller{}, ABI: parsed})
	require.True(t, types.IsValidation(err))

	_, err = ParseABI("not json")
	require.True(t, types.IsValidation(err))
}

func selectorOf(t *testing.T, c *Contract, sig string) []byte {
	t.Helper()
	for _, m := range c.ABI().Methods {
		if m.Sig == sig {
			return m.ID
		}
	}
	t.Fatalf("no method %s", sig)
	return nil
}

func TestOverloadedFunctions(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{addr: counterAddr}
	c, err := GetContract(Params{Client: &fakeCaller{}, ABI: MustParseABI(overloadedABI), Address: counterAddr, Wallet: sender})
	require.NoError(t, err)

	// 按参数个数选择重载
	_, err = c.Write(ctx, "transfer", counterAddr, big.NewInt(5))
	require.NoError(t, err)
	_, err = c.Write(ctx, "transfer", counterAddr)
	require.NoError(t, err)
	_, err = c.Write(ctx, "transfer(address,uint256)", counterAddr, big.NewInt(6))
	require.NoError(t, err)

	require.Len(t, sender.sent, 3)
	require.Equal(t, selectorOf(t, c, "transfer(address,uint256)"), sender.sent[0].Data[:4])
	require.Equal(t, selectorOf(t, c, "transfer(address)"), sender.sent[1].Data[:4])
	require.Equal(t, selectorOf(t, c, "transfer(address,uint256)"), sender.sent[2].Data[:4])

	_, err = c.Write(ctx, "transfer", counterAddr, big.NewInt(1), big.NewInt(2))
	require.True(t, types.IsValidation(err))
	_, err = c.Write(ctx, "transfer", big.NewInt(1))
	require.True(t, types.IsValidation(err))
	_, err = c.Read(ctx, "transfer", counterAddr)
	require.ErrorIs(t, err, types.ErrUnknownFunction)
	require.Len(t, sender.sent, 3)

	_, write := c.Functions()
	require.Equal(t, []string{"transfer", "transfer(address)", "transfer(address,uint256)"}, write)
}

func TestOverloadsResolvedByArgumentType(t *testing.T) {
	const byTypeABI = `[
		{"type":"function","name":"set","stateMutability":"nonpayable","inputs":[{"name":"v","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"set","stateMutability":"nonpayable","inputs":[{"name":"a","type":"address"}],"outputs":[]},
		{"type":"function","name":"key","stateMutability":"nonpayable","inputs":[{"name":"a","type":"address"}],"outputs":[]},
		{"type":"function","name":"key","stateMutability":"nonpayable","inputs":[{"name":"b","type":"bytes20"}],"outputs":[]}
	]`
	ctx := context.Background()
	sender := &fakeSender{addr: counterAddr}
	c, err := GetContract(Params{Client: &fakeCaller{}, ABI: MustParseABI(byTypeABI), Address: counterAddr, Wallet: sender})
	require.NoError(t, err)

	_, err = c.Write(ctx, "set", big.NewInt(1))
	require.NoError(t, err)
	_, err = c.Write(ctx, "set", counterAddr)
	require.NoError(t, err)
	require.Equal(t, selectorOf(t, c, "set(uint256)"), sender.sent[0].Data[:4])
	require.Equal(t, selectorOf(t, c, "set(address)"), sender.sent[1].Data[:4])

	// 20 字节数组同时满足 address 与 bytes20，只能用完整签名
	_, err = c.Write(ctx, "key", counterAddr)
	require.ErrorIs(t, err, types.ErrAmbiguousFunction)
	_, err = c.Write(ctx, "key(bytes20)", counterAddr)
	require.NoError(t, err)
	require.Equal(t, selectorOf(t, c, "key(bytes20)"), sender.sent[2].Data[:4])
}

func TestIndistinguishableOverloadsRejected(t *testing.T) {
	const sameArityABI = `[
		{"type":"function","name":"f","stateMutability":"nonpayable","inputs":[{"name":"x","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"f","stateMutability":"nonpayable","inputs":[{"name":"x","type":"int256"}],"outputs":[]}
	]`
	_, err := GetContract(Params{Client: &fakeCaller{}, ABI: MustParseABI(sameArityABI), Address: counterAddr})
	require.ErrorIs(t, err, types.ErrAmbiguousFunction)
}

func TestReadDecodesMultipleOutputs(t *testing.T) {
	out := make([]byte, 64)
	out[31] = 7
	out[63] = 1
	caller := &fakeCaller{out: out}
	sender := &fakeSender{addr: counterAddr}
	c, err := GetContract(Params{Client: caller, ABI: MustParseABI(overloadedABI), Address: counterAddr, Wallet: sender})
	require.NoError(t, err)

	values, err := c.Read(context.Background(), "balance")
	require.NoError(t, err)
	require.Len(t, values, 2)
	require.Equal(t, int64(7), values[0].(*big.Int).Int64())
	require.Equal(t, true, values[1])

	require.Len(t, caller.args, 1)
	require.NotNil(t, caller.args[0].From)
	require.Equal(t, counterAddr, *caller.args[0].From)
	require.Empty(t, sender.sent)
}

func TestReadErrors(t *testing.T) {
	abiJSON, _ := loadCounter(t)
	boom := &types.TransportError{Method: "eth_call", Err: errors.New("down")}
	c, err := GetContract(Params{Client: &fakeCaller{err: boom}, ABI: MustParseABI(abiJSON), Address: counterAddr})
	require.NoError(t, err)

	_, err = c.Read(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrUnknownFunction)

	_, err = c.Read(context.Background(), "setCounter", big.NewInt(1))
	require.ErrorIs(t, err, types.ErrUnknownFunction)

	_, err = c.Read(context.Background(), "getCounter")
	require.True(t, types.IsTransport(err))
}

func TestWriteErrors(t *testing.T) {
	abiJSON, _ := loadCounter(t)
	parsed := MustParseABI(abiJSON)

	readOnly, err := GetContract(Params{Client: &fakeCaller{}, ABI: parsed, Address: counterAddr})
	require.NoError(t, err)
	_, err = readOnly.Write(context.Background(), "setCounter", big.NewInt(1))
	require.ErrorIs(t, err, types.ErrMissingSigner)

	sender := &fakeSender{addr: counterAddr}
	c, err := GetContract(Params{Client: &fakeCaller{}, ABI: parsed, Address: counterAddr, Wallet: sender, FeeCredit: uint256.NewInt(9)})
	require.NoError(t, err)

	_, err = c.WriteWithValue(context.Background(), uint256.NewInt(1), "setCounter", big.NewInt(1))
	require.True(t, types.IsValidation(err))

	_, err = c.Write(context.Background(), "setCounter", "not a number")
	require.True(t, types.IsValidation(err))
	require.Empty(t, sender.sent)

	_, err = c.WriteWithValue(context.Background(), uint256.NewInt(1), "receiveMoney")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, uint64(1), sender.sent[0].Value.Uint64())
	require.Equal(t, uint64(9), sender.sent[0].FeeCredit.Uint64())
}
