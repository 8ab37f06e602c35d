package types

// ProcessedMessage 网络执行后的消息回执
//
// 仅由网络产生、客户端解码；创建后不可变。
// Success=false 或 BounceTo 非空属于链上拒绝，不是本地错误。
type ProcessedMessage struct {
	Success     bool            `json:"success"`
	Data        Hex             `json:"data"`
	BlockHash   Hex             `json:"blockHash"`
	BlockNumber Uint64Quantity  `json:"blockNumber"`
	From        Address         `json:"from"`
	To          Address         `json:"to"`
	RefundTo    Address         `json:"refundTo"`
	BounceTo    Address         `json:"bounceTo"`
	GasUsed     Quantity        `json:"gasUsed"`
	FeeCredit   Quantity        `json:"feeCredit"`
	Value       Quantity        `json:"value"`
	Hash        Hash            `json:"hash"`
	Seqno       Uint64Quantity  `json:"seqno"`
	Index       *Uint64Quantity `json:"index,omitempty"` // 同一交易产生多条内部消息时的序号
	Signature   Hex             `json:"signature"`
}

// Rejected 消息是否被链上拒绝或部分执行后退回
func (m *ProcessedMessage) Rejected() bool {
	return !m.Success || !m.BounceTo.IsEmpty()
}

// Bounced 是否存在退回目标
func (m *ProcessedMessage) Bounced() bool {
	return !m.BounceTo.IsEmpty()
}
