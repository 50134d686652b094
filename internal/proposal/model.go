package proposal

import (
	"time"
)

// CategoryProposalSignature 是联署边表的一行。
// (UserID, CategoryID)上的唯一约束是防止重复联署的最终防线，
// Category.ProposalSignatures计数必须与本表在同一事务中维护。
type CategoryProposalSignature struct {
	ID         string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_signature_user_category" json:"user_id"`
	CategoryID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_signature_user_category" json:"category_id"`
	SignedAt   time.Time `gorm:"autoCreateTime" json:"signed_at"`
}
