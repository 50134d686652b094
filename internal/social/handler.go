package social

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// FollowHandler 处理POST /users/:id/follow。
func FollowHandler(c *gin.Context) {
	if err := Follow(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Citizen followed."})
}

// UnfollowHandler 处理DELETE /users/:id/follow。
func UnfollowHandler(c *gin.Context) {
	if err := Unfollow(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Citizen unfollowed."})
}

// BlockHandler 处理POST /users/:id/block。
func BlockHandler(c *gin.Context) {
	if err := Block(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Citizen blocked."})
}

// UnblockHandler 处理DELETE /users/:id/block。
func UnblockHandler(c *gin.Context) {
	if err := Unblock(user.CurrentUser(c), c.Param("id")); err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Citizen unblocked."})
}

// ListFollowersHandler 处理GET /users/:id/followers。
func ListFollowersHandler(c *gin.Context) {
	relations, err := ListFollowers(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, relations)
}

// ListFollowingHandler 处理GET /users/:id/following。
func ListFollowingHandler(c *gin.Context) {
	relations, err := ListFollowing(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, relations)
}

// ListBlocksHandler 处理GET /users/me/blocks。
func ListBlocksHandler(c *gin.Context) {
	relations, err := ListBlocks(user.CurrentUser(c))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, relations)
}
