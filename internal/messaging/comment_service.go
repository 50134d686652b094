package messaging

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/social"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/gorm"
)

// CreateCommentInput 是发表评论的入参。
type CreateCommentInput struct {
	CategoryID string
	ParentID   *string
	Content    string
}

// CreateComment 在类别评论区发表一条留言。
// 评论区被关闭、或类别发起人屏蔽了评论者时拒绝。
func CreateComment(actor *user.User, input CreateCommentInput) (*Comment, error) {
	cat, err := category.GetCategoryByID(input.CategoryID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load category", err)
	}
	if cat == nil {
		return nil, apperr.New(apperr.KindNotFound, "Category not found.")
	}
	if cat.CommentsDisabled {
		return nil, apperr.New(apperr.KindForbidden, "Comments are disabled for this category.")
	}
	if cat.CreatorID != nil {
		blocked, err := social.HasBlocked(*cat.CreatorID, actor.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to check block status", err)
		}
		if blocked {
			return nil, apperr.New(apperr.KindForbidden, "You cannot comment on this category.")
		}
	}

	// 楼中楼回复必须指向同一类别下的现存评论
	if input.ParentID != nil {
		var parent Comment
		err := database.DB.First(&parent, "id = ? AND category_id = ?", *input.ParentID, input.CategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Parent comment not found.")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load parent comment", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Comment protocol failed", err)
	}
	comment := Comment{
		ID:         id.String(),
		CategoryID: input.CategoryID,
		UserID:     actor.ID,
		ParentID:   input.ParentID,
		Content:    input.Content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Comment protocol failed", err)
	}
	return &comment, nil
}

// CommentDTO 是评论列表中的一行。
type CommentDTO struct {
	Comment
	AuthorName string `json:"author_name"`
	LikeCount  int64  `json:"like_count"`
	HasLiked   bool   `json:"has_liked"`
}

// ListComments 返回类别下的全部评论，附带作者名称与点赞计数。
// 与viewer存在任一方向屏蔽关系的作者的评论会被过滤掉。
func ListComments(categoryID, viewerID string) ([]CommentDTO, error) {
	var comments []Comment
	err := database.DB.
		Where("category_id = ?", categoryID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	dtos := make([]CommentDTO, 0, len(comments))
	if len(comments) == 0 {
		return dtos, nil
	}

	// 收集viewer相关的屏蔽边，双向都要过滤
	hidden := make(map[string]bool)
	if viewerID != "" {
		var blocks []social.UserBlock
		err := database.DB.
			Where("blocker_id = ? OR blocked_id = ?", viewerID, viewerID).
			Find(&blocks).Error
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			if b.BlockerID == viewerID {
				hidden[b.BlockedID] = true
			} else {
				hidden[b.BlockerID] = true
			}
		}
	}

	commentIDs := make([]string, 0, len(comments))
	authorIDs := make(map[string]bool)
	for _, cmt := range comments {
		commentIDs = append(commentIDs, cmt.ID)
		authorIDs[cmt.UserID] = true
	}

	type likeRow struct {
		CommentID string
		Total     int64
	}
	var likeRows []likeRow
	err = database.DB.Model(&CommentLike{}).
		Select("comment_id, count(*) as total").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&likeRows).Error
	if err != nil {
		return nil, err
	}
	likeCounts := make(map[string]int64, len(likeRows))
	for _, r := range likeRows {
		likeCounts[r.CommentID] = r.Total
	}

	liked := make(map[string]bool)
	if viewerID != "" {
		var likedIDs []string
		err := database.DB.Model(&CommentLike{}).
			Where("user_id = ? AND comment_id IN ?", viewerID, commentIDs).
			Pluck("comment_id", &likedIDs).Error
		if err != nil {
			return nil, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	ids := make([]string, 0, len(authorIDs))
	for id := range authorIDs {
		ids = append(ids, id)
	}
	var authors []user.User
	if err := database.DB.Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(authors))
	for _, a := range authors {
		names[a.ID] = a.DisplayName()
	}

	for _, cmt := range comments {
		if hidden[cmt.UserID] {
			continue
		}
		dtos = append(dtos, CommentDTO{
			Comment:    cmt,
			AuthorName: names[cmt.UserID],
			LikeCount:  likeCounts[cmt.ID],
			HasLiked:   liked[cmt.ID],
		})
	}
	return dtos, nil
}

// DeleteComment 删除自己发表的评论，连带删除其点赞边。
func DeleteComment(actor *user.User, commentID string) error {
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", commentID, actor.ID).Delete(&Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "Comment not found.")
		}
		return tx.Where("comment_id = ?", commentID).Delete(&CommentLike{}).Error
	})
	if txErr != nil {
		var appErr *apperr.Error
		if errors.As(txErr, &appErr) {
			return txErr
		}
		return apperr.Wrap(apperr.KindTransactionFailed, "Failed to delete comment", txErr)
	}
	return nil
}

// ToggleCommentLike 切换对一条评论的点赞，返回切换后的状态与计数。
func ToggleCommentLike(actor *user.User, commentID string) (bool, int64, error) {
	var comment Comment
	err := database.DB.First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, apperr.New(apperr.KindNotFound, "Comment not found.")
	}
	if err != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load comment", err)
	}

	likedNow := false
	result := database.DB.Where("user_id = ? AND comment_id = ?", actor.ID, commentID).
		Delete(&CommentLike{})
	if result.Error != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", result.Error)
	}
	if result.RowsAffected == 0 {
		id, err := uuid.NewV7()
		if err != nil {
			return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
		}
		like := CommentLike{ID: id.String(), UserID: actor.ID, CommentID: commentID, CreatedAt: time.Now()}
		if err := database.DB.Create(&like).Error; err != nil && !database.IsDuplicatedKey(err) {
			return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
		}
		likedNow = true
	}

	var count int64
	if err := database.DB.Model(&CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return false, 0, apperr.Wrap(apperr.KindTransactionFailed, "Like protocol failed", err)
	}
	return likedNow, count, nil
}
