package messaging

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/social"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/gorm"
)

// requireParticipant 校验actor是会话成员。非成员与会话不存在同样返回NotFound。
func requireParticipant(conversationID, userID string) error {
	var count int64
	err := database.DB.Model(&ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Failed to load conversation", err)
	}
	if count == 0 {
		return apperr.New(apperr.KindNotFound, "Conversation not found.")
	}
	return nil
}

// GetOrCreateDirectConversation 返回actor与目标用户之间的私聊会话，不存在时创建。
// 任一方向存在屏蔽关系时拒绝建立会话。
func GetOrCreateDirectConversation(actor *user.User, targetIdentifier string) (*Conversation, error) {
	target, err := user.ResolveUser(targetIdentifier)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to resolve citizen", err)
	}
	if target == nil {
		return nil, apperr.New(apperr.KindNotFound, "Citizen not found.")
	}
	if target.ID == actor.ID {
		return nil, apperr.New(apperr.KindBadRequest, "You cannot message yourself.")
	}

	blocked, err := social.IsBlockedEither(actor.ID, target.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to check block status", err)
	}
	if blocked {
		return nil, apperr.New(apperr.KindForbidden, "You cannot message this citizen.")
	}

	// 查找双方共同参与的私聊会话
	var existing Conversation
	err = database.DB.
		Joins("JOIN conversation_participants p1 ON p1.conversation_id = conversations.id AND p1.user_id = ?", actor.ID).
		Joins("JOIN conversation_participants p2 ON p2.conversation_id = conversations.id AND p2.user_id = ?", target.ID).
		Where("conversations.type = ?", ConversationDirect).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load conversation", err)
	}

	convID, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Messaging protocol failed", err)
	}
	conv := Conversation{
		ID:   convID.String(),
		Type: ConversationDirect,
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		for _, uid := range []string{actor.ID, target.ID} {
			pid, err := uuid.NewV7()
			if err != nil {
				return err
			}
			participant := ConversationParticipant{
				ID:             pid.String(),
				ConversationID: conv.ID,
				UserID:         uid,
				Role:           RoleMember,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Messaging protocol failed", txErr)
	}
	return &conv, nil
}

// InboxEntryDTO 是收件箱中的一行。
type InboxEntryDTO struct {
	Conversation
	PeerID      string     `json:"peer_id,omitempty"`
	PeerName    string     `json:"peer_name,omitempty"`
	LastMessage string     `json:"last_message,omitempty"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
	UnreadCount int64      `json:"unread_count"`
}

// ListInbox 返回actor参与的全部会话，按最近活动倒序。
// 私聊会话附带对端名称，每个会话附带最后一条消息与未读计数。
func ListInbox(actor *user.User) ([]InboxEntryDTO, error) {
	var convIDs []string
	err := database.DB.Model(&ConversationParticipant{}).
		Where("user_id = ?", actor.ID).
		Pluck("conversation_id", &convIDs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list conversations", err)
	}

	entries := make([]InboxEntryDTO, 0, len(convIDs))
	if len(convIDs) == 0 {
		return entries, nil
	}

	var convs []Conversation
	err = database.DB.
		Where("id IN ?", convIDs).
		Order("updated_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list conversations", err)
	}

	for _, conv := range convs {
		entry := InboxEntryDTO{Conversation: conv}

		if conv.Type == ConversationDirect {
			var peer ConversationParticipant
			err := database.DB.
				Where("conversation_id = ? AND user_id <> ?", conv.ID, actor.ID).
				First(&peer).Error
			if err == nil {
				entry.PeerID = peer.UserID
				var peerUser user.User
				if err := database.DB.First(&peerUser, "id = ?", peer.UserID).Error; err == nil {
					entry.PeerName = peerUser.DisplayName()
				}
			}
		}

		var last Message
		err := database.DB.
			Where("conversation_id = ?", conv.ID).
			Order("created_at desc").
			First(&last).Error
		if err == nil {
			entry.LastMessage = last.Content
			sentAt := last.CreatedAt
			entry.LastSentAt = &sentAt
		}

		err = database.DB.Model(&Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND status = ?", conv.ID, actor.ID, MessageSent).
			Count(&entry.UnreadCount).Error
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to count unread messages", err)
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// TotalUnread 返回actor在所有会话中的未读消息总数。
func TotalUnread(actor *user.User) (int64, error) {
	var total int64
	err := database.DB.Model(&Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id AND cp.user_id = ?", actor.ID).
		Where("messages.sender_id <> ? AND messages.status = ?", actor.ID, MessageSent).
		Count(&total).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.KindTransactionFailed, "Failed to count unread messages", err)
	}
	return total, nil
}

// MessageDTO 是会话消息列表中的一行。
type MessageDTO struct {
	Message
	SenderName     string `json:"sender_name"`
	LikeCount      int64  `json:"like_count"`
	HasLiked       bool   `json:"has_liked"`
	ReplyToContent string `json:"reply_to_content,omitempty"`
}

// ListMessages 返回会话中的全部消息，按时间正序，附带点赞与被回复消息的摘要。
func ListMessages(actor *user.User, conversationID string) ([]MessageDTO, error) {
	if err := requireParticipant(conversationID, actor.ID); err != nil {
		return nil, err
	}

	var messages []Message
	err := database.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load messages", err)
	}

	dtos := make([]MessageDTO, 0, len(messages))
	if len(messages) == 0 {
		return dtos, nil
	}

	byID := make(map[string]*Message, len(messages))
	msgIDs := make([]string, 0, len(messages))
	senderIDs := make(map[string]bool)
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
		msgIDs = append(msgIDs, messages[i].ID)
		senderIDs[messages[i].SenderID] = true
	}

	type likeRow struct {
		MessageID string
		Total     int64
	}
	var likeRows []likeRow
	err = database.DB.Model(&MessageLike{}).
		Select("message_id, count(*) as total").
		Where("message_id IN ?", msgIDs).
		Group("message_id").
		Scan(&likeRows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load messages", err)
	}
	likeCounts := make(map[string]int64, len(likeRows))
	for _, r := range likeRows {
		likeCounts[r.MessageID] = r.Total
	}

	var likedIDs []string
	err = database.DB.Model(&MessageLike{}).
		Where("user_id = ? AND message_id IN ?", actor.ID, msgIDs).
		Pluck("message_id", &likedIDs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load messages", err)
	}
	liked := make(map[string]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	ids := make([]string, 0, len(senderIDs))
	for id := range senderIDs {
		ids = append(ids, id)
	}
	var senders []user.User
	if err := database.DB.Where("id IN ?", ids).Find(&senders).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load messages", err)
	}
	names := make(map[string]string, len(senders))
	for _, s := range senders {
		names[s.ID] = s.DisplayName()
	}

	for _, msg := range messages {
		dto := MessageDTO{
			Message:    msg,
			SenderName: names[msg.SenderID],
			LikeCount:  likeCounts[msg.ID],
			HasLiked:   liked[msg.ID],
		}
		if msg.ReplyToID != nil {
			if parent, ok := byID[*msg.ReplyToID]; ok {
				dto.ReplyToContent = parent.Content
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// SendMessage 在会话中发送一条消息，并刷新会话的最近活动时间。
func SendMessage(actor *user.User, conversationID, content string, replyToID *string) (*Message, error) {
	if err := requireParticipant(conversationID, actor.ID); err != nil {
		return nil, err
	}

	// 被回复的消息必须在同一会话里
	if replyToID != nil {
		var parent Message
		err := database.DB.First(&parent, "id = ? AND conversation_id = ?", *replyToID, conversationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Message to reply to not found.")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load message", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Messaging protocol failed", err)
	}
	msg := Message{
		ID:             id.String(),
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Content:        content,
		ReplyToID:      replyToID,
		Status:         MessageSent,
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).Where("id = ?", conversationID).
			Update("updated_at", time.Now()).Error
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Messaging protocol failed", txErr)
	}
	return &msg, nil
}

// MarkRead 把会话中对方发来的未读消息全部置为已读，返回置位的条数。
func MarkRead(actor *user.User, conversationID string) (int64, error) {
	if err := requireParticipant(conversationID, actor.ID); err != nil {
		return 0, err
	}

	result := database.DB.Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND status = ?", conversationID, actor.ID, MessageSent).
		Update("status", MessageRead)
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.KindTransactionFailed, "Failed to mark messages read", result.Error)
	}
	return result.RowsAffected, nil
}

// ToggleMessageLike 切换对一条消息的点赞，返回切换后的状态与计数。
func ToggleMessageLike(actor *user.User, messageID string) (bool, int64, error) {
	var msg Message
	err := database.DB.First(&msg, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, apperr.New(apperr.KindNotFound, "Message not found.")
	}
	if err != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load message", err)
	}
	if err := requireParticipant(msg.ConversationID, actor.ID); err != nil {
		return false, 0, err
	}

	likedNow := false
	result := database.DB.Where("user_id = ? AND message_id = ?", actor.ID, messageID).
		Delete(&MessageLike{})
	if result.Error != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", result.Error)
	}
	if result.RowsAffected == 0 {
		id, err := uuid.NewV7()
		if err != nil {
			return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
		}
		like := MessageLike{ID: id.String(), UserID: actor.ID, MessageID: messageID, CreatedAt: time.Now()}
		if err := database.DB.Create(&like).Error; err != nil && !database.IsDuplicatedKey(err) {
			return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
		}
		likedNow = true
	}

	var count int64
	if err := database.DB.Model(&MessageLike{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
	}
	return likedNow, count, nil
}

// ClearConversation 清空会话中的全部消息及其点赞边，会话本身保留。
func ClearConversation(actor *user.User, conversationID string) error {
	if err := requireParticipant(conversationID, actor.ID); err != nil {
		return err
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var msgIDs []string
		err := tx.Model(&Message{}).
			Where("conversation_id = ?", conversationID).
			Pluck("id", &msgIDs).Error
		if err != nil {
			return err
		}
		if len(msgIDs) > 0 {
			if err := tx.Where("message_id IN ?", msgIDs).Delete(&MessageLike{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("conversation_id = ?", conversationID).Delete(&Message{}).Error
	})
	if txErr != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Failed to clear conversation", txErr)
	}
	return nil
}

// LeaveConversation 把actor移出会话。最后一名成员离开时连会话一并删除。
func LeaveConversation(actor *user.User, conversationID string) error {
	if err := requireParticipant(conversationID, actor.ID); err != nil {
		return err
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, actor.ID).
			Delete(&ConversationParticipant{}).Error; err != nil {
			return err
		}

		var remaining int64
		err := tx.Model(&ConversationParticipant{}).
			Where("conversation_id = ?", conversationID).
			Count(&remaining).Error
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		var msgIDs []string
		if err := tx.Model(&Message{}).Where("conversation_id = ?", conversationID).Pluck("id", &msgIDs).Error; err != nil {
			return err
		}
		if len(msgIDs) > 0 {
			if err := tx.Where("message_id IN ?", msgIDs).Delete(&MessageLike{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", conversationID).Delete(&Conversation{}).Error
	})
	if txErr != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Failed to leave conversation", txErr)
	}
	return nil
}
