package category

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// CategoryResponse 在类别模型上附加了按访问者个性化的has_voted字段。
type CategoryResponse struct {
	Category
	HasVoted bool `json:"has_voted"`
}

// ListCategoriesHandler 处理 GET /categories，附带访问者的has_voted上下文。
func ListCategoriesHandler(c *gin.Context) {
	isActive := c.DefaultQuery("is_active", "true") != "false"

	categories, err := ListCategories(isActive)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch categories", err))
		return
	}

	voted := map[string]bool{}
	if viewer := user.CurrentUser(c); viewer != nil {
		voted, err = VotedCategoryIDs(viewer.ID)
		if err != nil {
			apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch categories", err))
			return
		}
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		responses = append(responses, CategoryResponse{Category: cat, HasVoted: voted[cat.ID]})
	}
	c.JSON(http.StatusOK, responses)
}

// GetCategoryHandler 处理 GET /categories/:id。
func GetCategoryHandler(c *gin.Context) {
	cat, err := GetCategoryByID(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch category", err))
		return
	}
	if cat == nil {
		apperr.AbortWith(c, apperr.New(apperr.KindNotFound, "Category not found"))
		return
	}

	hasVoted := false
	if viewer := user.CurrentUser(c); viewer != nil {
		candidateID, err := votedCandidateID(cat.ID, viewer.ID)
		if err != nil {
			apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch category", err))
			return
		}
		hasVoted = candidateID != ""
	}

	c.JSON(http.StatusOK, CategoryResponse{Category: *cat, HasVoted: hasVoted})
}

// ListCandidatesHandler 处理 GET /categories/:id/candidates。
func ListCandidatesHandler(c *gin.Context) {
	candidates, err := ListCandidates(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch candidates", err))
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// GetLeaderboardHandler 处理 GET /categories/:id/leaderboard。
func GetLeaderboardHandler(c *gin.Context) {
	viewerID := ""
	if viewer := user.CurrentUser(c); viewer != nil {
		viewerID = viewer.ID
	}

	dto, err := GetLeaderboard(c.Param("id"), viewerID)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to fetch leaderboard", err))
		return
	}
	c.JSON(http.StatusOK, dto)
}
