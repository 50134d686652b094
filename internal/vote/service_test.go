package vote_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/votestar/votestar-backend/internal/audit"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/internal/vote"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	database.DB = db
	database.RDB = nil
	require.NoError(t, user.PrimeCachedDB())
	require.NoError(t, category.PrimeCachedDB())
	require.NoError(t, audit.PrimeModule())
	require.NoError(t, vote.PrimeModule())
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func newVoter(t *testing.T, email string) *user.User {
	t.Helper()
	u := &user.User{
		ID:         newID(t),
		Email:      email,
		UserType:   user.TypeIndividual,
		IsVerified: true,
	}
	require.NoError(t, database.DB.Create(u).Error)
	return u
}

func newElection(t *testing.T, candidateCount int) (*category.Category, []category.Candidate) {
	t.Helper()
	cat := &category.Category{
		ID:       newID(t),
		Name:     "Best Star",
		IsActive: true,
		Status:   category.StatusActive,
	}
	require.NoError(t, database.DB.Create(cat).Error)

	candidates := make([]category.Candidate, 0, candidateCount)
	for i := 0; i < candidateCount; i++ {
		cand := category.Candidate{
			ID:         newID(t),
			CategoryID: cat.ID,
			Name:       fmt.Sprintf("Candidate %d", i+1),
		}
		require.NoError(t, database.DB.Create(&cand).Error)
		candidates = append(candidates, cand)
	}
	return cat, candidates
}

func TestComputeVoteHash(t *testing.T) {
	h1 := vote.ComputeVoteHash("user-1", "cand-1", "key-1")
	h2 := vote.ComputeVoteHash("user-1", "cand-1", "key-1")
	h3 := vote.ComputeVoteHash("user-1", "cand-1", "key-2")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestCastVoteCreatesLedgerEntry(t *testing.T) {
	setupTestDB(t)

	voter := newVoter(t, "voter@example.com")
	cat, candidates := newElection(t, 2)

	v, replayed, err := vote.CastVote(voter, vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[0].ID,
		IdempotencyKey: "idem-1",
	}, "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, vote.ComputeVoteHash(voter.ID, candidates[0].ID, "idem-1"), v.VoteHash)

	// 审计记录与投票同事务落库
	var logs []audit.AuditLog
	require.NoError(t, database.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionCastVote, logs[0].Action)
	assert.Equal(t, v.ID, logs[0].ResourceID)
	assert.Equal(t, audit.ResourceTypeVote, logs[0].ResourceType)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, voter.ID, *logs[0].UserID)
	assert.Contains(t, logs[0].Details, v.VoteHash)
	assert.Equal(t, "127.0.0.1", logs[0].IPAddress)
}

func TestCastVoteIdempotentReplay(t *testing.T) {
	setupTestDB(t)

	voter := newVoter(t, "voter@example.com")
	cat, candidates := newElection(t, 2)

	input := vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[0].ID,
		IdempotencyKey: "idem-replay",
	}

	first, replayed, err := vote.CastVote(voter, input, "")
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := vote.CastVote(voter, input, "")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, database.DB.Model(&vote.Vote{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCastVoteRejectsSecondVoteInCategory(t *testing.T) {
	setupTestDB(t)

	voter := newVoter(t, "voter@example.com")
	cat, candidates := newElection(t, 2)

	_, _, err := vote.CastVote(voter, vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[0].ID,
		IdempotencyKey: "idem-a",
	}, "")
	require.NoError(t, err)

	// 换幂等键、换候选项，同一类别依然被拒绝
	_, _, err = vote.CastVote(voter, vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[1].ID,
		IdempotencyKey: "idem-b",
	}, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateVote, apperr.KindOf(err))
}

func TestCastVoteForbiddenForOrganizations(t *testing.T) {
	setupTestDB(t)

	org := &user.User{
		ID:       newID(t),
		Email:    "org@example.com",
		UserType: user.TypeOrganization,
	}
	require.NoError(t, database.DB.Create(org).Error)
	cat, candidates := newElection(t, 1)

	_, _, err := vote.CastVote(org, vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[0].ID,
		IdempotencyKey: "idem-org",
	}, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestListVotesByUser(t *testing.T) {
	setupTestDB(t)

	voter := newVoter(t, "voter@example.com")
	cat, candidates := newElection(t, 2)

	_, _, err := vote.CastVote(voter, vote.CastVoteInput{
		CategoryID:     cat.ID,
		CandidateID:    candidates[1].ID,
		IdempotencyKey: "idem-list",
	}, "")
	require.NoError(t, err)

	rows, err := vote.ListVotesByUser(voter.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, cat.Name, rows[0].CategoryName)
	assert.Equal(t, candidates[1].Name, rows[0].CandidateName)
	assert.NotEmpty(t, rows[0].VoteHash)
}

func TestGetSummary(t *testing.T) {
	setupTestDB(t)

	voterA := newVoter(t, "a@example.com")
	voterB := newVoter(t, "b@example.com")
	cat, candidates := newElection(t, 2)

	// 第二个类别处于非活跃状态，不计入open_elections
	inactive := &category.Category{
		ID:     newID(t),
		Name:   "Archived",
		Status: category.StatusArchived,
	}
	require.NoError(t, database.DB.Create(inactive).Error)

	for i, voter := range []*user.User{voterA, voterB} {
		_, _, err := vote.CastVote(voter, vote.CastVoteInput{
			CategoryID:     cat.ID,
			CandidateID:    candidates[0].ID,
			IdempotencyKey: fmt.Sprintf("idem-sum-%d", i),
		}, "")
		require.NoError(t, err)
	}

	summary, err := vote.GetSummary()
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalVotes)
	assert.Equal(t, int64(2), summary.ActiveUsers)
	assert.Equal(t, int64(1), summary.OpenElections)
}
