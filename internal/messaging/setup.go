package messaging

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// PrimeModule 迁移评论区与私信的全部表。
func PrimeModule() error {
	err := database.DB.AutoMigrate(
		&Comment{},
		&CommentLike{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
		&MessageLike{},
	)
	if err != nil {
		return fmt.Errorf("无法迁移消息模块表: %w", err)
	}
	return nil
}
