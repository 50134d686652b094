package audit

import (
	"time"
)

// 审计动作与资源类型常量。
const (
	ActionCastVote = "CAST_VOTE"

	ResourceTypeVote = "VOTE"
)

// AuditLog 是只追加的审计记录。
// 每条记录通过ResourceID关联到产生它的资源，并携带决策快照的
// JSON序列化，供事后取证回放。创建后从不修改或删除。
type AuditLog struct {
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// UserID 是执行动作的用户，系统动作可能为空
	UserID *string `gorm:"type:varchar(36);index" json:"user_id"`

	Action       string `gorm:"not null" json:"action"`
	ResourceID   string `gorm:"type:varchar(36);not null;index" json:"resource_id"`
	ResourceType string `gorm:"not null" json:"resource_type"`

	// Details 是决策快照的JSON字符串
	Details string `json:"details"`

	IPAddress string `json:"ip_address"`

	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}
