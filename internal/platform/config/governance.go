package config

// 治理阈值的缺省值，与线上环境保持一致。
const (
	defaultSignatureThreshold = 50
	defaultInfluenceThreshold = 10000
)

// SignatureThreshold 返回提案转正所需的联署数。
// 在配置未加载时（如单元测试）返回缺省值。
func SignatureThreshold() int {
	if Cfg == nil || Cfg.Governance.SignatureThreshold <= 0 {
		return defaultSignatureThreshold
	}
	return Cfg.Governance.SignatureThreshold
}

// InfluenceThreshold 返回组织账户自动认证所需的关注者数。
func InfluenceThreshold() int {
	if Cfg == nil || Cfg.Governance.InfluenceThreshold <= 0 {
		return defaultInfluenceThreshold
	}
	return Cfg.Governance.InfluenceThreshold
}
