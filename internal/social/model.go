package social

import (
	"time"
)

// UserFollow 是关注关系的一条有向边。
// (FollowerID, FollowedID)上的唯一约束防止重复关注。
type UserFollow struct {
	ID         string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	FollowerID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_follow_pair;index" json:"follower_id"`
	FollowedID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_follow_pair;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 固定表名，供跨模块的只读聚合按名引用。
func (UserFollow) TableName() string {
	return "user_follows"
}

// UserBlock 是屏蔽关系的一条有向边。
// 屏蔽写入时会同时清除双向的关注边。
type UserBlock struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	BlockerID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_block_pair;index" json:"blocker_id"`
	BlockedID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_block_pair;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 固定表名。
func (UserBlock) TableName() string {
	return "user_blocks"
}
