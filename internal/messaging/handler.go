package messaging

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// CreateCommentRequest 是POST /categories/:id/comments的请求体。
type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CreateCommentHandler 处理评论发表。
func CreateCommentHandler(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindBadRequest, "Invalid comment payload", err))
		return
	}

	comment, err := CreateComment(user.CurrentUser(c), CreateCommentInput{
		CategoryID: c.Param("id"),
		ParentID:   req.ParentID,
		Content:    req.Content,
	})
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListCommentsHandler 处理GET /categories/:id/comments。
func ListCommentsHandler(c *gin.Context) {
	viewerID := ""
	if viewer := user.CurrentUser(c); viewer != nil {
		viewerID = viewer.ID
	}

	comments, err := ListComments(c.Param("id"), viewerID)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list comments", err))
		return
	}
	c.JSON(http.StatusOK, comments)
}

// DeleteCommentHandler 处理DELETE /comments/:id。
func DeleteCommentHandler(c *gin.Context) {
	if err := DeleteComment(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted."})
}

// ToggleCommentLikeHandler 处理POST /comments/:id/like。
func ToggleCommentLikeHandler(c *gin.Context) {
	liked, count, err := ToggleCommentLike(user.CurrentUser(c), c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}

// OpenConversationRequest 是POST /conversations的请求体。
type OpenConversationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// OpenConversationHandler 返回（或创建）与目标用户的私聊会话。
func OpenConversationHandler(c *gin.Context) {
	var req OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindBadRequest, "Invalid conversation payload", err))
		return
	}

	conv, err := GetOrCreateDirectConversation(user.CurrentUser(c), req.UserID)
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListInboxHandler 处理GET /conversations。
func ListInboxHandler(c *gin.Context) {
	entries, err := ListInbox(user.CurrentUser(c))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// UnreadCountHandler 处理GET /conversations/unread-count。
func UnreadCountHandler(c *gin.Context) {
	total, err := TotalUnread(user.CurrentUser(c))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": total})
}

// ListMessagesHandler 处理GET /conversations/:id/messages。
func ListMessagesHandler(c *gin.Context) {
	messages, err := ListMessages(user.CurrentUser(c), c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessageRequest 是POST /conversations/:id/messages的请求体。
type SendMessageRequest struct {
	Content   string  `json:"content" binding:"required"`
	ReplyToID *string `json:"reply_to_id"`
}

// SendMessageHandler 处理消息发送。
func SendMessageHandler(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindBadRequest, "Invalid message payload", err))
		return
	}

	msg, err := SendMessage(user.CurrentUser(c), c.Param("id"), req.Content, req.ReplyToID)
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkReadHandler 处理POST /conversations/:id/read。
func MarkReadHandler(c *gin.Context) {
	updated, err := MarkRead(user.CurrentUser(c), c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": updated})
}

// ToggleMessageLikeHandler 处理POST /messages/:id/like。
func ToggleMessageLikeHandler(c *gin.Context) {
	liked, count, err := ToggleMessageLike(user.CurrentUser(c), c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}

// ClearConversationHandler 处理POST /conversations/:id/clear。
func ClearConversationHandler(c *gin.Context) {
	if err := ClearConversation(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation cleared."})
}

// LeaveConversationHandler 处理DELETE /conversations/:id。
func LeaveConversationHandler(c *gin.Context) {
	if err := LeaveConversation(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted."})
}
