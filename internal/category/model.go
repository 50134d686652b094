package category

import (
	"time"
)

// CategoryStatus 定义了类别的生命周期状态。
type CategoryStatus string

const (
	// StatusProposal 表示类别还是待联署的提案，不可投票
	StatusProposal CategoryStatus = "PROPOSAL"
	// StatusActive 表示类别已生效，可以投票。对本状态机而言是终态
	StatusActive CategoryStatus = "ACTIVE"
	// StatusArchived 表示类别已归档
	StatusArchived CategoryStatus = "ARCHIVED"
)

// CategoryType 定义了类别的来源类型。
type CategoryType string

const (
	TypeOfficial  CategoryType = "OFFICIAL"
	TypeCommunity CategoryType = "COMMUNITY"
	TypeAI        CategoryType = "AI"
)

// Category 定义了一个可投票的竞选类别（或待联署的提案）在数据库中的模型。
// 不变量：status为PROPOSAL时is_active必须为false且联署数低于阈值
// （达到阈值的那次写入会同时完成转正）。已观测的流程中从不删除。
type Category struct {
	// ID 是类别的主键，UUID v7字符串。
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// StartTime / EndTime 界定投票窗口。提案转正时StartTime被重置为转正时刻
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	IsActive bool `json:"is_active"`

	// CreatorID 指向发起该类别的用户，官方类别可能为空
	CreatorID *string `gorm:"type:varchar(36);index" json:"creator_id"`

	CategoryType CategoryType   `gorm:"type:varchar(16);default:OFFICIAL" json:"category_type"`
	Status       CategoryStatus `gorm:"type:varchar(16);default:ACTIVE;index" json:"status"`

	// ProposalSignatures 是冗余存储的联署计数，与联署边表在同一事务中维护
	ProposalSignatures int `json:"proposal_signatures"`

	// CommentsDisabled 允许管理侧关闭某个提案下的评论区
	CommentsDisabled bool `json:"comments_disabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate 定义了类别下的一个候选项。创建后不可变。
type Candidate struct {
	ID         string `gorm:"primarykey;type:varchar(36)" json:"id"`
	CategoryID string `gorm:"type:varchar(36);not null;index" json:"category_id"`

	Name     string `gorm:"not null" json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url"`

	CreatedAt time.Time `json:"created_at"`
}
