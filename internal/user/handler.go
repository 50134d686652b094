package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// UpdateMeRequest 定义了PATCH /users/me的请求体。
// 全部字段可选，只更新出现的字段。
type UpdateMeRequest struct {
	Name              *string   `json:"name"`
	PhoneNumber       *string   `json:"phone_number"`
	DeviceFingerprint *string   `json:"device_fingerprint"`
	UserType          *UserType `json:"user_type"`
	SubscriptionTier  *string   `json:"subscription_tier"`
}

// ProfileResponse 是公开档案端点的响应模型。
type ProfileResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	UserType       UserType `json:"user_type"`
	IsVerifiedOrg  bool     `json:"is_verified_org"`
	FollowerCount  int      `json:"follower_count"`
	FollowingCount int64    `json:"following_count"`
	TotalVotes     int64    `json:"total_votes"`
	IsFollowing    bool     `json:"is_following"`
	IsMe           bool     `json:"is_me"`
}

// GetMe 返回当前认证用户的完整档案，并机会式地执行组织自动认证检查。
func GetMe(c *gin.Context) {
	usr := CurrentUser(c)

	if _, err := MaybeAutoVerify(database.DB, usr); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Profile refresh failed", err))
		return
	}

	c.JSON(http.StatusOK, usr)
}

// UpdateMe 更新当前用户的档案字段。
func UpdateMe(c *gin.Context) {
	usr := CurrentUser(c)

	var body UpdateMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.AbortWith(c, apperr.New(apperr.KindBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	updates := map[string]interface{}{}
	if body.Name != nil {
		updates["name"] = *body.Name
	}
	if body.PhoneNumber != nil {
		updates["phone_number"] = *body.PhoneNumber
	}
	if body.DeviceFingerprint != nil {
		updates["device_fingerprint"] = *body.DeviceFingerprint
	}
	if body.UserType != nil {
		updates["user_type"] = *body.UserType
	}
	if body.SubscriptionTier != nil {
		updates["subscription_tier"] = *body.SubscriptionTier
	}

	if len(updates) > 0 {
		if err := database.DB.Model(usr).Updates(updates).Error; err != nil {
			apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Profile update failed", err))
			return
		}
	}

	c.JSON(http.StatusOK, usr)
}

// GetUserProfile 返回任意公民的公开档案，并附带与当前访问者的关注关系。
func GetUserProfile(c *gin.Context) {
	target, err := ResolveUser(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Profile lookup failed", err))
		return
	}
	if target == nil {
		apperr.AbortWith(c, apperr.New(apperr.KindNotFound, "Citizen not found."))
		return
	}

	// 派生计数直接在边表/账本表上聚合，避免与上层模块产生循环依赖
	var followingCount int64
	if err := database.DB.Table("user_follows").Where("follower_id = ?", target.ID).Count(&followingCount).Error; err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Profile lookup failed", err))
		return
	}
	var totalVotes int64
	if err := database.DB.Table("votes").Where("user_id = ?", target.ID).Count(&totalVotes).Error; err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Profile lookup failed", err))
		return
	}

	viewer := CurrentUser(c)
	isFollowing := false
	isMe := false
	if viewer != nil {
		isMe = viewer.ID == target.ID
		if !isMe {
			var count int64
			database.DB.Table("user_follows").
				Where("follower_id = ? AND followed_id = ?", viewer.ID, target.ID).
				Count(&count)
			isFollowing = count > 0
		}
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:             target.ID,
		Name:           target.DisplayName(),
		UserType:       target.UserType,
		IsVerifiedOrg:  target.IsVerifiedOrg,
		FollowerCount:  target.FollowerCount,
		FollowingCount: followingCount,
		TotalVotes:     totalVotes,
		IsFollowing:    isFollowing,
		IsMe:           isMe,
	})
}
