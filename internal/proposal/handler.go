package proposal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// ProposeRequest 是POST /proposals的请求体。
type ProposeRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	EndTime     time.Time        `json:"end_time"`
	Candidates  []CandidateInput `json:"candidates"`
}

// ProposeHandler 处理新提案的创建。
func ProposeHandler(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindBadRequest, "Invalid proposal payload", err))
		return
	}

	actor := user.CurrentUser(c)
	cat, err := Propose(actor, ProposeInput{
		Name:        req.Name,
		Description: req.Description,
		EndTime:     req.EndTime,
		Candidates:  req.Candidates,
	})
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// ListProposalsHandler 返回所有待联署的提案。
func ListProposalsHandler(c *gin.Context) {
	viewerID := ""
	if viewer := user.CurrentUser(c); viewer != nil {
		viewerID = viewer.ID
	}

	proposals, err := ListProposals(viewerID)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to list proposals", err))
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// GetProposalHandler 返回单个提案的详情。
func GetProposalHandler(c *gin.Context) {
	viewerID := ""
	if viewer := user.CurrentUser(c); viewer != nil {
		viewerID = viewer.ID
	}

	detail, err := GetProposal(c.Param("id"), viewerID)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to load proposal", err))
		return
	}
	if detail == nil {
		apperr.AbortWith(c, apperr.New(apperr.KindNotFound, "Proposal not found."))
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SignHandler 处理联署提交，返回联署后的状态与计数。
func SignHandler(c *gin.Context) {
	actor := user.CurrentUser(c)
	result, err := Sign(actor, c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
