package proposal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/platform/config"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidateInput 是提案中附带的一个候选项。
type CandidateInput struct {
	Name     string `json:"name" binding:"required"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url"`
}

// ProposeInput 是发起新类别提案的入参。
type ProposeInput struct {
	Name        string
	Description string
	EndTime     time.Time
	Candidates  []CandidateInput
}

// Propose 创建一个新的社区类别。
// 组织账户的类别直接生效；个人账户的类别以提案状态创建，
// 并在同一事务中自动记入发起人的联署。
func Propose(actor *user.User, input ProposeInput) (*category.Category, error) {
	catID, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Proposal protocol failed", err)
	}

	now := time.Now()
	cat := category.Category{
		ID:           catID.String(),
		Name:         input.Name,
		Description:  input.Description,
		StartTime:    now,
		EndTime:      input.EndTime,
		CreatorID:    &actor.ID,
		CategoryType: category.TypeCommunity,
	}

	// 组织账户直接生效，个人账户从提案状态起步
	if actor.UserType.ActivatesOnCreate() {
		cat.Status = category.StatusActive
		cat.IsActive = true
		cat.ProposalSignatures = 0
	} else {
		cat.Status = category.StatusProposal
		cat.IsActive = false
		cat.ProposalSignatures = 1
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cat).Error; err != nil {
			return err
		}

		for _, cand := range input.Candidates {
			candID, err := uuid.NewV7()
			if err != nil {
				return err
			}
			candidate := category.Candidate{
				ID:         candID.String(),
				CategoryID: cat.ID,
				Name:       cand.Name,
				Bio:        cand.Bio,
				ImageURL:   cand.ImageURL,
			}
			if err := tx.Create(&candidate).Error; err != nil {
				return err
			}
		}

		// 发起人的自动联署与提案本身同生共死
		if cat.Status == category.StatusProposal {
			sigID, err := uuid.NewV7()
			if err != nil {
				return err
			}
			sig := CategoryProposalSignature{
				ID:         sigID.String(),
				UserID:     actor.ID,
				CategoryID: cat.ID,
			}
			if err := tx.Create(&sig).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Proposal protocol failed", txErr)
	}

	return &cat, nil
}

// SignResult 是联署操作的结果快照。
type SignResult struct {
	Status     category.CategoryStatus `json:"status"`
	Signatures int                     `json:"signatures"`
}

// Sign 为一个处于提案状态的类别记入一次联署。
// 联署写入、计数递增与达阈转正在同一个事务中完成，
// 事务内对类别行加排它锁，保证并发联署下计数与状态的一致。
// 对已生效或不存在的类别统一返回NotFound，不区分两种情况。
func Sign(actor *user.User, categoryID string) (*SignResult, error) {
	// 组织账户被禁止联署
	if !actor.UserType.CanSignProposals() {
		return nil, apperr.New(apperr.KindForbidden,
			"Account Restriction: Organizations cannot co-sign proposals.")
	}

	var result SignResult
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var cat category.Category
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cat, "id = ?", categoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "Proposal not found or already active.")
		}
		if err != nil {
			return err
		}
		if cat.Status != category.StatusProposal {
			return apperr.New(apperr.KindNotFound, "Proposal not found or already active.")
		}

		sigID, err := uuid.NewV7()
		if err != nil {
			return err
		}
		sig := CategoryProposalSignature{
			ID:         sigID.String(),
			UserID:     actor.ID,
			CategoryID: cat.ID,
		}
		if err := tx.Create(&sig).Error; err != nil {
			if database.IsDuplicatedKey(err) {
				return apperr.New(apperr.KindAlreadySigned, "You have already supported this proposal.")
			}
			return err
		}

		cat.ProposalSignatures++
		updates := map[string]interface{}{
			"proposal_signatures": cat.ProposalSignatures,
		}

		// 达到阈值的这次联署同时完成转正，投票窗口从转正时刻起算
		if cat.ProposalSignatures >= config.SignatureThreshold() {
			cat.Status = category.StatusActive
			cat.IsActive = true
			cat.StartTime = time.Now()
			updates["status"] = cat.Status
			updates["is_active"] = true
			updates["start_time"] = cat.StartTime
		}

		if err := tx.Model(&category.Category{}).Where("id = ?", cat.ID).Updates(updates).Error; err != nil {
			return err
		}

		result.Status = cat.Status
		result.Signatures = cat.ProposalSignatures
		return nil
	})
	if txErr != nil {
		var appErr *apperr.Error
		if errors.As(txErr, &appErr) {
			return nil, txErr
		}
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Signing protocol failed", txErr)
	}

	return &result, nil
}

// ProposalDTO 是提案列表里的一行。
type ProposalDTO struct {
	category.Category
	CreatorName string `json:"creator_name"`
	HasSigned   bool   `json:"has_signed"`
}

// ListProposals 返回所有待联署的提案，附带发起人名称。
// viewerID非空时为每行标注当前用户是否已联署。
func ListProposals(viewerID string) ([]ProposalDTO, error) {
	var cats []category.Category
	err := database.DB.
		Where("status = ?", category.StatusProposal).
		Order("created_at desc").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}

	signed := make(map[string]bool)
	if viewerID != "" && len(cats) > 0 {
		var signedIDs []string
		err := database.DB.Model(&CategoryProposalSignature{}).
			Where("user_id = ?", viewerID).
			Pluck("category_id", &signedIDs).Error
		if err != nil {
			return nil, err
		}
		for _, id := range signedIDs {
			signed[id] = true
		}
	}

	dtos := make([]ProposalDTO, 0, len(cats))
	for _, cat := range cats {
		dto := ProposalDTO{Category: cat, HasSigned: signed[cat.ID]}
		if cat.CreatorID != nil {
			var creator user.User
			if err := database.DB.First(&creator, "id = ?", *cat.CreatorID).Error; err == nil {
				dto.CreatorName = creator.DisplayName()
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// SupporterDTO 是提案详情页里的一个联署人。
type SupporterDTO struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	SignedAt time.Time `json:"signed_at"`
}

// ProposalDetailDTO 是单个提案的详情，带联署人墙（最多展示12人）。
type ProposalDetailDTO struct {
	ProposalDTO
	Candidates []category.Candidate `json:"candidates"`
	Supporters []SupporterDTO       `json:"supporters"`
}

// GetProposal 返回单个提案的详情。不存在时返回(nil, nil)。
// 不按状态过滤：转正后的提案详情页（含联署人墙）仍然可读，
// 状态收敛只发生在联署操作上。
func GetProposal(categoryID, viewerID string) (*ProposalDetailDTO, error) {
	var cat category.Category
	err := database.DB.First(&cat, "id = ?", categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	detail := ProposalDetailDTO{
		ProposalDTO: ProposalDTO{Category: cat},
		Supporters:  []SupporterDTO{},
	}
	if cat.CreatorID != nil {
		var creator user.User
		if err := database.DB.First(&creator, "id = ?", *cat.CreatorID).Error; err == nil {
			detail.CreatorName = creator.DisplayName()
		}
	}
	if viewerID != "" {
		var count int64
		err := database.DB.Model(&CategoryProposalSignature{}).
			Where("user_id = ? AND category_id = ?", viewerID, cat.ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		detail.HasSigned = count > 0
	}

	candidates, err := category.ListCandidates(cat.ID)
	if err != nil {
		return nil, err
	}
	detail.Candidates = candidates

	// 联署人墙展示最近的12人，突出联署势头
	var sigs []CategoryProposalSignature
	err = database.DB.
		Where("category_id = ?", cat.ID).
		Order("signed_at desc").
		Limit(12).
		Find(&sigs).Error
	if err != nil {
		return nil, err
	}
	for _, sig := range sigs {
		supporter := SupporterDTO{UserID: sig.UserID, SignedAt: sig.SignedAt}
		var signer user.User
		if err := database.DB.First(&signer, "id = ?", sig.UserID).Error; err == nil {
			supporter.Name = signer.DisplayName()
		}
		detail.Supporters = append(detail.Supporters, supporter)
	}

	return &detail, nil
}
