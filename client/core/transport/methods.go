package transport

// 节点 RPC 方法名
const (
	MethodChainID             = "eth_chainId"
	MethodGetBalance          = "eth_getBalance"
	MethodGetCode             = "eth_getCode"
	MethodGetTransactionCount = "eth_getTransactionCount"
	MethodCall                = "eth_call"
	MethodSendRawTransaction  = "eth_sendRawTransaction"
	MethodGetInMessageByHash  = "eth_getInMessageByHash"
)

// BlockLatest 最新状态标签
const BlockLatest = "latest"
