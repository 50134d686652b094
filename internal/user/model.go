package user

import (
	"strings"
	"time"
)

// UserType 定义了账户的角色类型。
type UserType string

const (
	// TypeIndividual 是普通公民账户
	TypeIndividual UserType = "INDIVIDUAL"
	// TypeOrganization 是组织账户
	TypeOrganization UserType = "ORGANIZATION"
)

// 角色的行为差异收敛在类型方法上，业务代码不再散落role判断。

// CanVote 返回该角色是否允许投票。组织账户被禁止投票。
func (t UserType) CanVote() bool {
	return t != TypeOrganization
}

// CanSignProposals 返回该角色是否允许联署提案。
func (t UserType) CanSignProposals() bool {
	return t != TypeOrganization
}

// ActivatesOnCreate 返回该角色创建的类别是否跳过提案流程直接生效。
func (t UserType) ActivatesOnCreate() bool {
	return t == TypeOrganization
}

// User 定义了公民账户在数据库中的持久化模型。
// 账户在首次令牌认证成功时被即时创建（JIT），在已观测的流程中从不硬删除。
type User struct {
	// ID 是用户的主键，UUID v7字符串。
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// Email 是用户邮箱。历史数据中部分行曾用它暂存身份提供方的subject。
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// AuthSubject 是身份提供方分配的subject，与外部身份一一对应。
	// 旧数据可能为空，由启动时的批量回填和认证路径的兜底逻辑补齐。
	AuthSubject *string `gorm:"uniqueIndex" json:"-"`

	// Name 是展示名，可能由身份提供方的资料补全流程写入。
	Name string `json:"name"`

	PhoneNumber       string `json:"phone_number"`
	DeviceFingerprint string `json:"device_fingerprint"`

	// UserType 区分个人和组织，决定投票、联署、建类的权限
	UserType UserType `gorm:"type:varchar(16);default:INDIVIDUAL" json:"user_type"`

	// IsVerified 表示账户通过了身份提供方的基础认证
	IsVerified bool `json:"is_verified"`

	// IsVerifiedOrg 表示组织账户达到影响力阈值后获得的自动认证标记
	IsVerifiedOrg bool `json:"is_verified_org"`

	// FollowerCount 是冗余存储的关注者计数，与关注边表在同一事务中维护
	FollowerCount int `json:"follower_count"`

	SubscriptionTier string `gorm:"default:Free" json:"subscription_tier"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName 返回用户的展示名，缺省时退化为邮箱的本地部分。
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}
