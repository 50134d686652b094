package category

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/votestar/votestar-backend/internal/platform/database"
	"gorm.io/gorm"
)

// --- Service-Level Data Transfer Objects (DTOs) ---

// LeaderboardEntryDTO 是计票榜上的一行。
type LeaderboardEntryDTO struct {
	Rank         int     `json:"rank"`
	CandidateID  string  `json:"candidate_id"`
	Name         string  `json:"name"`
	Votes        int64   `json:"votes"`
	Percentage   float64 `json:"percentage"`
	UserVotedFor bool    `json:"user_voted_for"`
}

// LeaderboardDTO 是计票榜端点的完整数据包。
type LeaderboardDTO struct {
	CategoryID  string                `json:"category_id"`
	TotalVotes  int64                 `json:"total_votes"`
	Leaderboard []LeaderboardEntryDTO `json:"leaderboard"`
	HasVoted    bool                  `json:"has_voted"`
}

// --- Service Functions ---

// ListCategories 按is_active筛选返回所有类别。
func ListCategories(isActive bool) ([]Category, error) {
	var categories []Category
	if err := database.DB.Where("is_active = ?", isActive).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("无法查询类别列表: %w", err)
	}
	return categories, nil
}

// GetCategoryByID 返回单个类别。未找到时返回(nil, nil)。
func GetCategoryByID(id string) (*Category, error) {
	var cat Category
	err := database.DB.First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListCandidates 返回类别下的全部候选项。
func ListCandidates(categoryID string) ([]Candidate, error) {
	var candidates []Candidate
	if err := database.DB.Where("category_id = ?", categoryID).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("无法查询候选项列表: %w", err)
	}
	return candidates, nil
}

// VotedCategoryIDs 返回指定用户已投过票的类别ID集合。
// 账本表归vote模块所有，这里只做只读聚合，用表名直查避免反向依赖。
func VotedCategoryIDs(userID string) (map[string]bool, error) {
	var ids []string
	if err := database.DB.Table("votes").Where("user_id = ?", userID).Pluck("category_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("无法查询用户投票记录: %w", err)
	}
	voted := make(map[string]bool, len(ids))
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}

// votedCandidateID 返回viewer在该类别中投给的候选项ID，未投票时为空字符串。
func votedCandidateID(categoryID, viewerID string) (string, error) {
	if viewerID == "" {
		return "", nil
	}
	var candidateIDs []string
	result := database.DB.Table("votes").
		Where("user_id = ? AND category_id = ?", viewerID, categoryID).
		Limit(1).
		Pluck("candidate_id", &candidateIDs)
	if result.Error != nil {
		return "", result.Error
	}
	if len(candidateIDs) == 0 {
		return "", nil
	}
	return candidateIDs[0], nil
}

// GetLeaderboard 返回类别的实时计票榜。
// 优先从Redis的Sorted Set读取（由vote模块维护）；
// Redis不可用时降级为对账本表的直接聚合。
func GetLeaderboard(categoryID, viewerID string) (*LeaderboardDTO, error) {
	candidates, err := ListCandidates(categoryID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(candidates))
	if database.RedisAvailable() {
		entries, err := database.RDB.ZRevRangeWithScores(database.Ctx, LeaderboardKey(categoryID), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("无法从Redis读取计票榜: %w", err)
		}
		for _, z := range entries {
			if member, ok := z.Member.(string); ok {
				counts[member] = int64(z.Score)
			}
		}
	} else {
		// 降级路径：对账本表做一次聚合
		type row struct {
			CandidateID string
			Total       int64
		}
		var rows []row
		err := database.DB.Table("votes").
			Select("candidate_id, count(*) as total").
			Where("category_id = ?", categoryID).
			Group("candidate_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("无法聚合计票数据: %w", err)
		}
		for _, r := range rows {
			counts[r.CandidateID] = r.Total
		}
	}

	var totalVotes int64
	for _, c := range candidates {
		totalVotes += counts[c.ID]
	}

	votedFor, err := votedCandidateID(categoryID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("无法查询用户在该类别的投票: %w", err)
	}

	// 按得票数从高到低排序候选项
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return counts[sorted[i].ID] > counts[sorted[j].ID]
	})

	leaderboard := make([]LeaderboardEntryDTO, 0, len(sorted))
	for i, c := range sorted {
		votes := counts[c.ID]
		percentage := 0.0
		if totalVotes > 0 {
			percentage = float64(votes) / float64(totalVotes) * 100
		}
		leaderboard = append(leaderboard, LeaderboardEntryDTO{
			Rank:         i + 1,
			CandidateID:  c.ID,
			Name:         c.Name,
			Votes:        votes,
			Percentage:   roundToOneDecimal(percentage),
			UserVotedFor: c.ID == votedFor,
		})
	}

	return &LeaderboardDTO{
		CategoryID:  categoryID,
		TotalVotes:  totalVotes,
		Leaderboard: leaderboard,
		HasVoted:    votedFor != "",
	}, nil
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
