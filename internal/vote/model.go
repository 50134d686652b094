package vote

import (
	"time"
)

// Vote 定义了投票账本中的一条记录。
// 两条不变量由数据库唯一约束兜底：
//   - 每个(用户, 类别)至多一票
//   - 每个幂等键全局至多一条记录
//
// 记录一经创建就不再修改或删除，它是不可变的账本条目。
type Vote struct {
	// ID 是投票记录的主键，UUID v7字符串。
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// UserID + CategoryID 构成“一人一类别一票”的唯一约束
	UserID     string `gorm:"type:varchar(36);not null;uniqueIndex:uniq_votes_user_category" json:"user_id"`
	CategoryID string `gorm:"type:varchar(36);not null;uniqueIndex:uniq_votes_user_category" json:"category_id"`

	CandidateID string `gorm:"type:varchar(36);not null;index" json:"candidate_id"`

	// DeviceSignature 是客户端设备提交的签名，原样存档
	DeviceSignature string `json:"device_signature"`

	// IdempotencyKey 是客户端提供的幂等键，保证重试不产生第二票
	IdempotencyKey string `gorm:"uniqueIndex;not null" json:"idempotency_key"`

	// VoteHash 是服务端计算的完整性哈希，是针对单票的防篡改戳记
	VoteHash string `json:"vote_hash"`

	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
