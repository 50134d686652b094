package vote

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/votestar/votestar-backend/internal/audit"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/gorm"
)

// CastVoteInput 是投票操作的入参。
type CastVoteInput struct {
	CategoryID      string
	CandidateID     string
	DeviceSignature string
	IdempotencyKey  string
}

// ComputeVoteHash 对(用户ID, 候选项ID, 幂等键)三元组做一次SHA-256摘要。
// 它是针对单票的防篡改戳记，不做跨票链接。对相同输入必须可复现。
func ComputeVoteHash(userID, candidateID, idempotencyKey string) string {
	payload := fmt.Sprintf("%s:%s:%s", userID, candidateID, idempotencyKey)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// findByIdempotencyKey 按幂等键查找已有的投票记录。未找到时返回(nil, nil)。
func findByIdempotencyKey(key string) (*Vote, error) {
	var existing Vote
	err := database.DB.First(&existing, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// CastVote 是投票账本的核心操作。
// 返回值replayed为true表示这是幂等重放，调用方应返回200而非201。
//
// 流程：角色门禁 -> 幂等短路 -> 计算完整性哈希 ->
// 在单个事务中写入Vote和审计记录 -> 唯一约束冲突翻译。
// 幂等键冲突（并发重复提交）会被重查化解，调用方永远看不到这类错误。
func CastVote(actor *user.User, input CastVoteInput, ip string) (*Vote, bool, error) {
	// 组织账户被禁止投票
	if !actor.UserType.CanVote() {
		return nil, false, apperr.New(apperr.KindForbidden,
			"Account Restriction: Only verified individuals can cast votes on the Star Wall.")
	}

	// 1. 幂等短路：同一幂等键的重复提交直接返回原记录
	if existing, err := findByIdempotencyKey(input.IdempotencyKey); err != nil {
		return nil, false, apperr.Wrap(apperr.KindTransactionFailed, "Voting protocol failed", err)
	} else if existing != nil {
		return existing, true, nil
	}

	// 2. 构造新的账本条目并计算完整性哈希
	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindTransactionFailed, "Voting protocol failed", err)
	}
	newVote := Vote{
		ID:              id.String(),
		UserID:          actor.ID,
		CategoryID:      input.CategoryID,
		CandidateID:     input.CandidateID,
		DeviceSignature: input.DeviceSignature,
		IdempotencyKey:  input.IdempotencyKey,
		VoteHash:        ComputeVoteHash(actor.ID, input.CandidateID, input.IdempotencyKey),
	}

	// 3. Vote与审计记录必须在同一事务中落库，要么都写入要么都不写
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newVote).Error; err != nil {
			return err
		}
		return audit.Append(tx, &actor.ID, audit.ActionCastVote, newVote.ID, audit.ResourceTypeVote, map[string]string{
			"category_id":  newVote.CategoryID,
			"candidate_id": newVote.CandidateID,
			"hash":         newVote.VoteHash,
		}, ip)
	})

	if txErr != nil {
		if database.IsDuplicatedKey(txErr) {
			// 先按幂等键重查：并发的相同提交抢先落库时，这里返回已存在的行，
			// 使第1步的检查在竞态下依然安全
			if existing, err := findByIdempotencyKey(input.IdempotencyKey); err == nil && existing != nil {
				return existing, true, nil
			}
			// 不是幂等键冲突，那就是(用户, 类别)约束被触发
			return nil, false, apperr.New(apperr.KindDuplicateVote,
				"You have already cast a vote in this category.")
		}
		return nil, false, apperr.Wrap(apperr.KindTransactionFailed, "Voting protocol failed", txErr)
	}

	// 4. 提交成功后递增计票榜缓存（尽力而为，重建机制兜底）
	bumpLeaderboard(newVote.CategoryID, newVote.CandidateID)

	return &newVote, false, nil
}

// bumpLeaderboard 在Redis计票榜上为候选项加一票。
// 缓存不可用时直接跳过；偏差会在下一次缓存重建时被修正。
func bumpLeaderboard(categoryID, candidateID string) {
	if !database.RedisAvailable() {
		return
	}
	if err := database.RDB.ZIncrBy(database.Ctx, category.LeaderboardKey(categoryID), 1, candidateID).Err(); err != nil {
		fmt.Printf("警告: 计票榜缓存递增失败: %v\n", err)
	}
}

// ListVotes 返回账本中的投票记录，按时间倒序分页。
func ListVotes(limit, offset int) ([]Vote, error) {
	var votes []Vote
	err := database.DB.Order("timestamp desc").Limit(limit).Offset(offset).Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询投票账本: %w", err)
	}
	return votes, nil
}

// SummaryDTO 是平台统计端点的数据包。
type SummaryDTO struct {
	TotalVotes    int64 `json:"total_votes"`
	ActiveUsers   int64 `json:"active_users"`
	OpenElections int64 `json:"open_elections"`
}

// GetSummary 返回平台级的聚合统计。
func GetSummary() (*SummaryDTO, error) {
	var summary SummaryDTO
	if err := database.DB.Model(&Vote{}).Count(&summary.TotalVotes).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&user.User{}).Count(&summary.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&category.Category{}).Where("is_active = ?", true).Count(&summary.OpenElections).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// UserVoteRow 是“某个公民的账本条目”视图中的一行。
type UserVoteRow struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	VoteHash      string    `json:"vote_hash"`
	CategoryName  string    `json:"category_name"`
	CandidateName string    `json:"candidate_name"`
}

// ListVotesByUser 返回指定用户的全部账本条目，附带类别和候选项名称。
func ListVotesByUser(userID string) ([]UserVoteRow, error) {
	var rows []UserVoteRow
	err := database.DB.Model(&Vote{}).
		Select("votes.id, votes.timestamp, votes.vote_hash, categories.name as category_name, candidates.name as candidate_name").
		Joins("JOIN categories ON votes.category_id = categories.id").
		Joins("JOIN candidates ON votes.candidate_id = candidates.id").
		Where("votes.user_id = ?", userID).
		Order("votes.timestamp desc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询用户账本条目: %w", err)
	}
	return rows, nil
}

// WarmupCache 从账本表全量重放计票，重建所有类别的Redis计票榜。
func WarmupCache() error {
	if !database.RedisAvailable() {
		return nil
	}

	var categories []category.Category
	if err := database.DB.Select("id").Find(&categories).Error; err != nil {
		return fmt.Errorf("无法读取类别列表: %w", err)
	}

	type aggRow struct {
		CategoryID  string
		CandidateID string
		Total       int64
	}
	var rows []aggRow
	err := database.DB.Model(&Vote{}).
		Select("category_id, candidate_id, count(*) as total").
		Group("category_id").Group("candidate_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("无法聚合账本数据: %w", err)
	}

	// 先清空所有旧榜单再全量写入，保证数据一致性
	pipe := database.RDB.Pipeline()
	for _, cat := range categories {
		pipe.Del(database.Ctx, category.LeaderboardKey(cat.ID))
	}
	for _, r := range rows {
		pipe.ZAdd(database.Ctx, category.LeaderboardKey(r.CategoryID), redis.Z{
			Score:  float64(r.Total),
			Member: r.CandidateID,
		})
	}
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("重建计票榜缓存失败: %w", err)
	}

	fmt.Printf("成功重建 %d 个类别的计票榜缓存。\n", len(categories))
	return nil
}
