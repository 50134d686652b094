package proposal

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// PrimeModule 迁移联署边表。
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&CategoryProposalSignature{}); err != nil {
		return fmt.Errorf("无法迁移CategoryProposalSignature表: %w", err)
	}
	return nil
}
