package wallet

// DeploymentState 钱包部署状态
//
// 状态只通过 Refresh 或确认后的 SelfDeploy 推进，不会从 Deployed 回退。
type DeploymentState int32

const (
	// StateUnknown 尚未查询
	StateUnknown DeploymentState = iota
	// StateUndeployed 地址上没有代码
	StateUndeployed
	// StateDeployed 已观察到代码
	StateDeployed
)

// String 返回状态名称
func (s DeploymentState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUndeployed:
		return "undeployed"
	case StateDeployed:
		return "deployed"
	default:
		return "invalid"
	}
}
