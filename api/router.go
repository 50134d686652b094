package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/messaging"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/proposal"
	"github.com/votestar/votestar-backend/internal/social"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/internal/vote"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"redis_healthy": database.RedisAvailable(),
		})
	})

	api := router.Group("/api/v1")
	{
		// 用户与社交图谱相关的路由组 /api/v1/users
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("/me", user.RequireUser(), user.GetMe)
			userRoutes.PATCH("/me", user.RequireUser(), user.UpdateMe)
			userRoutes.GET("/me/blocks", user.RequireUser(), social.ListBlocksHandler)

			userRoutes.GET("/:id", user.OptionalUser(), user.GetUserProfile)
			userRoutes.GET("/:id/votes", vote.GetUserVotesHandler)
			userRoutes.GET("/:id/followers", social.ListFollowersHandler)
			userRoutes.GET("/:id/following", social.ListFollowingHandler)

			userRoutes.POST("/:id/follow", user.RequireUser(), social.FollowHandler)
			userRoutes.DELETE("/:id/follow", user.RequireUser(), social.UnfollowHandler)
			userRoutes.POST("/:id/block", user.RequireUser(), social.BlockHandler)
			userRoutes.DELETE("/:id/block", user.RequireUser(), social.UnblockHandler)
		}

		// 类别与榜单相关的路由组 /api/v1/categories
		categoryRoutes := api.Group("/categories")
		{
			categoryRoutes.GET("", user.OptionalUser(), category.ListCategoriesHandler)
			categoryRoutes.GET("/:id", category.GetCategoryHandler)
			categoryRoutes.GET("/:id/candidates", category.ListCandidatesHandler)
			categoryRoutes.GET("/:id/leaderboard", user.OptionalUser(), category.GetLeaderboardHandler)

			categoryRoutes.GET("/:id/comments", user.OptionalUser(), messaging.ListCommentsHandler)
			categoryRoutes.POST("/:id/comments", user.RequireUser(), messaging.CreateCommentHandler)
		}

		// 投票账本相关的路由
		api.POST("/votes", user.RequireUser(), vote.CastVoteHandler)
		api.GET("/votes", vote.ListVotesHandler)
		api.GET("/stats/summary", vote.SummaryHandler)

		// 提案与联署相关的路由组 /api/v1/proposals
		proposalRoutes := api.Group("/proposals")
		{
			proposalRoutes.GET("", user.OptionalUser(), proposal.ListProposalsHandler)
			proposalRoutes.POST("", user.RequireUser(), proposal.ProposeHandler)
			proposalRoutes.GET("/:id", user.OptionalUser(), proposal.GetProposalHandler)
			proposalRoutes.POST("/:id/sign", user.RequireUser(), proposal.SignHandler)
		}

		// 评论操作的路由
		api.DELETE("/comments/:id", user.RequireUser(), messaging.DeleteCommentHandler)
		api.POST("/comments/:id/like", user.RequireUser(), messaging.ToggleCommentLikeHandler)

		// 私信相关的路由组 /api/v1/conversations
		conversationRoutes := api.Group("/conversations", user.RequireUser())
		{
			conversationRoutes.GET("", messaging.ListInboxHandler)
			conversationRoutes.POST("", messaging.OpenConversationHandler)
			conversationRoutes.GET("/unread-count", messaging.UnreadCountHandler)
			conversationRoutes.GET("/:id/messages", messaging.ListMessagesHandler)
			conversationRoutes.POST("/:id/messages", messaging.SendMessageHandler)
			conversationRoutes.POST("/:id/read", messaging.MarkReadHandler)
			conversationRoutes.POST("/:id/clear", messaging.ClearConversationHandler)
			conversationRoutes.DELETE("/:id", messaging.LeaveConversationHandler)
		}

		api.POST("/messages/:id/like", user.RequireUser(), messaging.ToggleMessageLikeHandler)
	}
}
