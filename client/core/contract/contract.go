package contract

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
	"github.com/samber/lo"

	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/core/wallet"
	"github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/shardsdk/pkg/types"
)

// Caller 只读调用能力（*chain.Client 实现）
type Caller interface {
	Call(ctx context.Context, args chain.CallArgs) ([]byte, error)
}

// Sender 写调用能力（*wallet.Wallet 实现）
type Sender interface {
	Address() types.Address
	SendMessage(ctx context.Context, p wallet.SendParams) (types.Hash, error)
}

var (
	_ Caller = (*chain.Client)(nil)
	_ Sender = (*wallet.Wallet)(nil)
)

// Params 合约代理参数
type Params struct {
	Client    Caller
	ABI       *abi.ABI
	Address   types.Address
	Wallet    Sender       // 可选；为空时写调用返回 ErrMissingSigner
	FeeCredit *uint256.Int // 可选；写调用附带的手续费额度
	Logger    log.Logger
}

// Contract 已部署合约的代理
//
// 构造后绑定表不再变化，可并发使用；写调用的串行化由 Wallet 负责。
type Contract struct {
	client    Caller
	abi       *abi.ABI
	address   types.Address
	wallet    Sender
	feeCredit *uint256.Int
	logger    log.Logger

	read      map[string]abi.Method   // 完整签名与无重载的函数名
	write     map[string]abi.Method   // 同上
	overloads map[string][]abi.Method // 重载名 → 候选函数（按签名排序）
}

// GetContract 根据 ABI 生成读写绑定
//
// view/pure 函数绑定为读调用，其余为写调用。
// 每个函数都可以用完整签名访问；重载名在调用时按参数个数与类型匹配。
// 参数个数相同且参数类型无法区分的重载返回 ErrAmbiguousFunction。
func GetContract(p Params) (*Contract, error) {
	if p.Client == nil {
		return nil, types.NewValidationError("client", "must be set")
	}
	if p.ABI == nil {
		return nil, types.NewValidationError("abi", "must be set")
	}
	if p.Address.IsEmpty() {
		return nil, types.NewValidationError("address", "empty contract address")
	}

	c := &Contract{
		client:    p.Client,
		abi:       p.ABI,
		address:   p.Address,
		wallet:    p.Wallet,
		feeCredit: p.FeeCredit,
		read:      make(map[string]abi.Method),
		write:     make(map[string]abi.Method),
		overloads: make(map[string][]abi.Method),
	}
	if p.Logger != nil {
		c.logger = p.Logger.With("module", "contract", "address", p.Address.Hex())
	}

	groups := lo.GroupBy(lo.Values(p.ABI.Methods), func(m abi.Method) string { return m.RawName })
	for name, methods := range groups {
		for _, m := range methods {
			c.bind(m.Sig, m)
		}
		if len(methods) == 1 {
			c.bind(name, methods[0])
			continue
		}
		if err := checkOverloads(methods); err != nil {
			return nil, err
		}
		sort.Slice(methods, func(i, j int) bool { return methods[i].Sig < methods[j].Sig })
		c.overloads[name] = methods
	}
	return c, nil
}

// checkOverloads 同名且参数个数相同的重载必须能按参数类型区分
func checkOverloads(methods []abi.Method) error {
	byArity := lo.GroupBy(methods, func(m abi.Method) int { return len(m.Inputs) })
	for _, same := range byArity {
		for i := 0; i < len(same); i++ {
			for j := i + 1; j < len(same); j++ {
				if sameArgumentTypes(same[i].Inputs, same[j].Inputs) {
					return fmt.Errorf("%w: %s and %s take the same argument types",
						types.ErrAmbiguousFunction, same[i].Sig, same[j].Sig)
				}
			}
		}
	}
	return nil
}

// sameArgumentTypes 两组参数逐个对应的 Go 类型是否完全一致
func sameArgumentTypes(a, b abi.Arguments) bool {
	for i := range a {
		if a[i].Type.GetType() != b[i].Type.GetType() {
			return false
		}
	}
	return true
}

func (c *Contract) bind(key string, m abi.Method) {
	if m.IsConstant() {
		c.read[key] = m
	} else {
		c.write[key] = m
	}
}

// Address 合约地址
func (c *Contract) Address() types.Address { return c.address }

// ABI 合约 ABI
func (c *Contract) ABI() *abi.ABI { return c.abi }

// Functions 返回可调用的读、写函数键（有序），重载名只出现一次
func (c *Contract) Functions() (read, write []string) {
	read, write = lo.Keys(c.read), lo.Keys(c.write)
	for name, methods := range c.overloads {
		if lo.ContainsBy(methods, func(m abi.Method) bool { return m.IsConstant() }) {
			read = append(read, name)
		}
		if lo.ContainsBy(methods, func(m abi.Method) bool { return !m.IsConstant() }) {
			write = append(write, name)
		}
	}
	sort.Strings(read)
	sort.Strings(write)
	return read, write
}

// resolve 查找绑定并编码调用数据
//
// 重载名只在 bindings 所属的读/写类别中匹配：先按参数个数筛选，
// 再以能否按参数类型编码确定唯一候选。
func (c *Contract) resolve(bindings map[string]abi.Method, name string, args []interface{}) (abi.Method, []byte, error) {
	if m, ok := bindings[name]; ok {
		data, err := pack(m, args)
		return m, data, err
	}

	candidates := lo.Filter(c.overloads[name], func(m abi.Method, _ int) bool {
		_, ok := bindings[m.Sig]
		return ok
	})
	if len(candidates) == 0 {
		return abi.Method{}, nil, fmt.Errorf("%w: %s", types.ErrUnknownFunction, name)
	}

	var (
		matched []abi.Method
		data    []byte
	)
	for _, m := range candidates {
		if len(m.Inputs) != len(args) {
			continue
		}
		packed, err := pack(m, args)
		if err != nil {
			continue
		}
		matched = append(matched, m)
		data = packed
	}

	sigs := lo.Map(candidates, func(m abi.Method, _ int) string { return m.Sig })
	switch len(matched) {
	case 1:
		return matched[0], data, nil
	case 0:
		return abi.Method{}, nil, types.NewValidationError("args",
			fmt.Sprintf("%d argument(s) match no overload of %s %v", len(args), name, sigs))
	default:
		matchedSigs := lo.Map(matched, func(m abi.Method, _ int) string { return m.Sig })
		return abi.Method{}, nil, fmt.Errorf("%w: arguments match %v, use a full signature",
			types.ErrAmbiguousFunction, matchedSigs)
	}
}

// pack selector ‖ abi 编码参数
func pack(m abi.Method, args []interface{}) ([]byte, error) {
	input, err := m.Inputs.Pack(args...)
	if err != nil {
		return nil, types.NewValidationError("args", fmt.Sprintf("%s: %v", m.Sig, err))
	}
	out := make([]byte, 0, len(m.ID)+len(input))
	out = append(out, m.ID...)
	return append(out, input...), nil
}

// ========== 读调用 ==========

// Read 执行只读调用并解码全部返回值
//
// 不需要签名器，不改变序列号。
func (c *Contract) Read(ctx context.Context, name string, args ...interface{}) ([]interface{}, error) {
	m, data, err := c.resolve(c.read, name, args)
	if err != nil {
		return nil, err
	}

	callArgs := chain.CallArgs{To: c.address, Data: data}
	if c.wallet != nil {
		from := c.wallet.Address()
		callArgs.From = &from
	}
	out, err := c.client.Call(ctx, callArgs)
	if err != nil {
		return nil, err
	}

	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, &types.TransportError{Method: m.Sig, Err: fmt.Errorf("decode output: %w", err)}
	}
	return values, nil
}

// ReadOne 执行只读调用并返回第一个返回值
func (c *Contract) ReadOne(ctx context.Context, name string, args ...interface{}) (interface{}, error) {
	values, err := c.Read(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values[0], nil
}

// ========== 写调用 ==========

// Write 通过钱包提交执行消息，返回消息哈希
func (c *Contract) Write(ctx context.Context, name string, args ...interface{}) (types.Hash, error) {
	return c.WriteWithValue(ctx, nil, name, args...)
}

// WriteWithValue 附带转账金额的写调用；非 payable 函数不接受金额
func (c *Contract) WriteWithValue(ctx context.Context, value *uint256.Int, name string, args ...interface{}) (types.Hash, error) {
	var hash types.Hash

	m, data, err := c.resolve(c.write, name, args)
	if err != nil {
		return hash, err
	}
	if c.wallet == nil {
		return hash, fmt.Errorf("%s: %w", m.Sig, types.ErrMissingSigner)
	}
	if value != nil && !value.IsZero() && !m.IsPayable() {
		return hash, types.NewValidationError("value", m.Sig+" is not payable")
	}

	hash, err = c.wallet.SendMessage(ctx, wallet.SendParams{
		To:        c.address,
		Value:     value,
		FeeCredit: c.feeCredit,
		Data:      data,
	})
	if err != nil {
		return hash, err
	}
	if c.logger != nil {
		c.logger.Debugf("write %s: hash=%s", m.Sig, hash)
	}
	return hash, nil
}
