package messaging

import (
	"time"
)

// Comment 是类别评论区中的一条留言，ParentID非空时为楼中楼回复。
type Comment struct {
	ID         string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CategoryID string    `gorm:"type:varchar(36);not null;index" json:"category_id"`
	UserID     string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ParentID   *string   `gorm:"type:varchar(36);index" json:"parent_id"`
	Content    string    `gorm:"not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentLike 是评论点赞的一条边，(UserID, CommentID)唯一。
type CommentLike struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_comment_like" json:"user_id"`
	CommentID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_comment_like;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationType 区分私聊与群聊会话。
type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// Conversation 是一个消息会话。UpdatedAt随最新消息刷新，收件箱按它排序。
type Conversation struct {
	ID        string           `gorm:"primarykey;type:varchar(36)" json:"id"`
	Type      ConversationType `gorm:"type:varchar(16);default:DIRECT" json:"type"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `gorm:"index" json:"updated_at"`
}

// ParticipantRole 是成员在会话中的角色。
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "ADMIN"
	RoleMember ParticipantRole = "MEMBER"
)

// ConversationParticipant 是会话成员表的一行，(ConversationID, UserID)唯一。
type ConversationParticipant struct {
	ID             string          `gorm:"primarykey;type:varchar(36)" json:"id"`
	ConversationID string          `gorm:"type:varchar(36);not null;uniqueIndex:uniq_participant;index" json:"conversation_id"`
	UserID         string          `gorm:"type:varchar(36);not null;uniqueIndex:uniq_participant;index" json:"user_id"`
	Role           ParticipantRole `gorm:"type:varchar(16);default:MEMBER" json:"role"`
	JoinedAt       time.Time       `gorm:"autoCreateTime" json:"joined_at"`
}

// MessageStatus 是消息的已读状态。
type MessageStatus string

const (
	MessageSent MessageStatus = "sent"
	MessageRead MessageStatus = "read"
)

// Message 是会话中的一条消息。
type Message struct {
	ID             string        `gorm:"primarykey;type:varchar(36)" json:"id"`
	ConversationID string        `gorm:"type:varchar(36);not null;index" json:"conversation_id"`
	SenderID       string        `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	Content        string        `gorm:"not null" json:"content"`
	ReplyToID      *string       `gorm:"type:varchar(36)" json:"reply_to_id"`
	IsEdited       bool          `json:"is_edited"`
	Status         MessageStatus `gorm:"type:varchar(16);default:sent" json:"status"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
}

// MessageLike 是消息点赞的一条边，(UserID, MessageID)唯一。
type MessageLike struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_message_like" json:"user_id"`
	MessageID string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_message_like;index" json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}
