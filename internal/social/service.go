package social

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/gorm"
)

// resolveTarget 把路径参数解析成目标用户，找不到时返回统一的NotFound。
func resolveTarget(identifier string) (*user.User, error) {
	target, err := user.ResolveUser(identifier)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to resolve citizen", err)
	}
	if target == nil {
		return nil, apperr.New(apperr.KindNotFound, "Citizen not found.")
	}
	return target, nil
}

// Follow 建立一条从actor到target的关注边。
// 边的写入与被关注者的follower_count递增在同一事务中完成；
// 计数越过影响力阈值时，认证升级也发生在这个事务里。
func Follow(actor *user.User, targetIdentifier string) error {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return err
	}
	if target.ID == actor.ID {
		return apperr.New(apperr.KindBadRequest, "You cannot follow yourself.")
	}

	edgeID, err := uuid.NewV7()
	if err != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Follow protocol failed", err)
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		edge := UserFollow{
			ID:         edgeID.String(),
			FollowerID: actor.ID,
			FollowedID: target.ID,
		}
		if err := tx.Create(&edge).Error; err != nil {
			if database.IsDuplicatedKey(err) {
				return apperr.New(apperr.KindAlreadyFollowing, "You are already following this citizen.")
			}
			return err
		}

		if err := tx.Model(&user.User{}).Where("id = ?", target.ID).
			Update("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}

		target.FollowerCount++
		if _, err := user.MaybeAutoVerify(tx, target); err != nil {
			return err
		}
		return nil
	})
	if txErr != nil {
		var appErr *apperr.Error
		if errors.As(txErr, &appErr) {
			return txErr
		}
		return apperr.Wrap(apperr.KindTransactionFailed, "Follow protocol failed", txErr)
	}
	return nil
}

// Unfollow 删除一条关注边并回退计数。计数下限为0，不会被减成负数。
func Unfollow(actor *user.User, targetIdentifier string) error {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return err
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND followed_id = ?", actor.ID, target.ID).
			Delete(&UserFollow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "No active relationship found.")
		}
		return decrementFollowerCount(tx, target.ID, 1)
	})
	if txErr != nil {
		var appErr *apperr.Error
		if errors.As(txErr, &appErr) {
			return txErr
		}
		return apperr.Wrap(apperr.KindTransactionFailed, "Unfollow protocol failed", txErr)
	}
	return nil
}

// decrementFollowerCount 回退用户的关注者计数，下限为0。
func decrementFollowerCount(tx *gorm.DB, userID string, n int) error {
	return tx.Model(&user.User{}).
		Where("id = ? AND follower_count >= ?", userID, n).
		Update("follower_count", gorm.Expr("follower_count - ?", n)).Error
}

// Block 建立一条屏蔽边，并在同一事务中拆除双方之间的全部关注边。
func Block(actor *user.User, targetIdentifier string) error {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return err
	}
	if target.ID == actor.ID {
		return apperr.New(apperr.KindBadRequest, "You cannot block yourself.")
	}

	edgeID, err := uuid.NewV7()
	if err != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Block protocol failed", err)
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		edge := UserBlock{
			ID:        edgeID.String(),
			BlockerID: actor.ID,
			BlockedID: target.ID,
		}
		if err := tx.Create(&edge).Error; err != nil {
			if database.IsDuplicatedKey(err) {
				return apperr.New(apperr.KindAlreadyBlocked, "Citizen is already blocked.")
			}
			return err
		}

		// 拆除双向的关注边，被拆边的一方需要回退计数
		result := tx.Where("follower_id = ? AND followed_id = ?", actor.ID, target.ID).
			Delete(&UserFollow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			if err := decrementFollowerCount(tx, target.ID, int(result.RowsAffected)); err != nil {
				return err
			}
		}

		result = tx.Where("follower_id = ? AND followed_id = ?", target.ID, actor.ID).
			Delete(&UserFollow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			if err := decrementFollowerCount(tx, actor.ID, int(result.RowsAffected)); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		var appErr *apperr.Error
		if errors.As(txErr, &appErr) {
			return txErr
		}
		return apperr.Wrap(apperr.KindTransactionFailed, "Block protocol failed", txErr)
	}
	return nil
}

// Unblock 删除一条屏蔽边。关注边不会自动恢复。
func Unblock(actor *user.User, targetIdentifier string) error {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return err
	}

	result := database.DB.Where("blocker_id = ? AND blocked_id = ?", actor.ID, target.ID).
		Delete(&UserBlock{})
	if result.Error != nil {
		return apperr.Wrap(apperr.KindTransactionFailed, "Unblock protocol failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "No active block found.")
	}
	return nil
}

// IsBlockedEither 判断两个用户之间是否存在任一方向的屏蔽边。
// 私信模块据此拒绝建立会话。
func IsBlockedEither(userA, userB string) (bool, error) {
	var count int64
	err := database.DB.Model(&UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("无法查询屏蔽关系: %w", err)
	}
	return count > 0, nil
}

// HasBlocked 判断blocker是否屏蔽了blocked（单方向）。
func HasBlocked(blockerID, blockedID string) (bool, error) {
	var count int64
	err := database.DB.Model(&UserBlock{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("无法查询屏蔽关系: %w", err)
	}
	return count > 0, nil
}

// RelationDTO 是关注/粉丝列表中的一行。
type RelationDTO struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	UserType  string `json:"user_type"`
	IsBlocked bool   `json:"is_blocked,omitempty"`
}

// listRelations 把一组用户ID展开成带名称的列表，保持输入顺序。
func listRelations(userIDs []string) ([]RelationDTO, error) {
	dtos := make([]RelationDTO, 0, len(userIDs))
	if len(userIDs) == 0 {
		return dtos, nil
	}

	var users []user.User
	if err := database.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*user.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			dtos = append(dtos, RelationDTO{
				UserID:   u.ID,
				Name:     u.DisplayName(),
				UserType: string(u.UserType),
			})
		}
	}
	return dtos, nil
}

// ListFollowers 返回关注target的所有用户。
func ListFollowers(targetIdentifier string) ([]RelationDTO, error) {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = database.DB.Model(&UserFollow{}).
		Where("followed_id = ?", target.ID).
		Order("created_at desc").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list followers", err)
	}
	return listRelations(ids)
}

// ListFollowing 返回target关注的所有用户。
func ListFollowing(targetIdentifier string) ([]RelationDTO, error) {
	target, err := resolveTarget(targetIdentifier)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = database.DB.Model(&UserFollow{}).
		Where("follower_id = ?", target.ID).
		Order("created_at desc").
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list following", err)
	}
	return listRelations(ids)
}

// ListBlocks 返回actor屏蔽的所有用户。
func ListBlocks(actor *user.User) ([]RelationDTO, error) {
	var ids []string
	err := database.DB.Model(&UserBlock{}).
		Where("blocker_id = ?", actor.ID).
		Order("created_at desc").
		Pluck("blocked_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list blocks", err)
	}
	return listRelations(ids)
}
