package vote

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
)

// CastVoteRequest 是POST /votes的请求体。
type CastVoteRequest struct {
	CategoryID      string `json:"category_id" binding:"required"`
	CandidateID     string `json:"candidate_id" binding:"required"`
	DeviceSignature string `json:"device_signature"`
	IdempotencyKey  string `json:"idempotency_key" binding:"required"`
}

// CastVoteHandler 处理投票提交。新票返回201，幂等重放返回200。
func CastVoteHandler(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindBadRequest, "Invalid vote payload", err))
		return
	}

	actor := user.CurrentUser(c)
	v, replayed, err := CastVote(actor, CastVoteInput{
		CategoryID:      req.CategoryID,
		CandidateID:     req.CandidateID,
		DeviceSignature: req.DeviceSignature,
		IdempotencyKey:  req.IdempotencyKey,
	}, c.ClientIP())
	if err != nil {
		apperr.AbortWith(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	c.JSON(status, v)
}

// ListVotesHandler 返回账本中的投票记录，支持limit/offset分页。
func ListVotesHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	votes, err := ListVotes(limit, offset)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to read the ledger", err))
		return
	}
	c.JSON(http.StatusOK, votes)
}

// SummaryHandler 返回平台级统计。
func SummaryHandler(c *gin.Context) {
	summary, err := GetSummary()
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to compute summary", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetUserVotesHandler 返回指定公民的账本条目。
func GetUserVotesHandler(c *gin.Context) {
	target, err := user.ResolveUser(c.Param("id"))
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to resolve citizen", err))
		return
	}
	if target == nil {
		apperr.AbortWith(c, apperr.New(apperr.KindNotFound, "Citizen not found."))
		return
	}

	rows, err := ListVotesByUser(target.ID)
	if err != nil {
		apperr.AbortWith(c, apperr.Wrap(apperr.KindTransactionFailed, "Failed to read the ledger", err))
		return
	}
	c.JSON(http.StatusOK, rows)
}
